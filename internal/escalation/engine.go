package escalation

import (
	"time"

	"ar-collections-service/internal/models"
	"ar-collections-service/internal/store"
	apperrors "ar-collections-service/pkg/errors"
	"ar-collections-service/pkg/logger"
)

// Action is the recommended next step for an overdue invoice.
type Action string

const (
	ActionNone     Action = "none"
	ActionEmail    Action = "email"
	ActionCall     Action = "call"
	ActionEscalate Action = "escalate"
)

// Urgency buckets an analysis for display and sorting.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// InvoiceAnalysis is the decision for a single invoice: what to do, how far
// along the escalation ladder the case is, and whether a human must sign off.
type InvoiceAnalysis struct {
	Invoice              *models.Invoice              `json:"invoice"`
	DaysOverdue          int                          `json:"days_overdue"`
	ContactCount         int                          `json:"contact_count"`
	DaysSinceLastContact int                          `json:"days_since_last_contact"`
	RecommendedAction    Action                       `json:"recommended_action"`
	EscalationLevel      int                          `json:"escalation_level"`
	RequiresApproval     bool                         `json:"requires_approval"`
	IsVIP                bool                         `json:"is_vip"`
	IsBlacklisted        bool                         `json:"is_blacklisted"`
	Urgency              Urgency                      `json:"urgency"`
	Reason               string                       `json:"reason"`
	History              []models.CommunicationRecord `json:"history,omitempty"`
}

// Engine applies the collections policy to invoices. The clock is injected so
// analyses are reproducible in tests and idempotent within a run.
type Engine struct {
	config *Config
	store  store.Store
	log    logger.Logger
	now    func() time.Time

	history []models.CommunicationRecord
}

// NewEngine creates an escalation engine backed by the given store. Store
// read failures at startup are logged and the engine begins with an empty
// communication history.
func NewEngine(config *Config, st store.Store, log logger.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfiguration,
			apperrors.CodeInvalidConfig, "invalid escalation configuration")
	}

	e := &Engine{
		config: config,
		store:  st,
		log:    log.WithComponent("escalation"),
		now:    time.Now,
	}

	if st != nil {
		history, err := st.LoadCommunications()
		if err != nil {
			e.log.WithError(err).Warn("Failed to load communication history, starting empty")
		}
		e.history = history
	}
	return e, nil
}

// SetClock overrides the engine's notion of now.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// invoiceHistory returns the communication records for an invoice, oldest
// first.
func (e *Engine) invoiceHistory(inv *models.Invoice) []models.CommunicationRecord {
	var out []models.CommunicationRecord
	for _, rec := range e.history {
		if rec.InvoiceID == inv.ID {
			out = append(out, rec)
		}
	}
	return out
}

// AnalyzeInvoice decides the next collections step for one invoice.
//
// The base ladder: a first reminder once the invoice is a week overdue, then
// a reminder per week up to the autonomous limit, then a call for high-value
// balances or an escalation otherwise. Hard overrides apply afterwards, in
// order: very old invoices always escalate, calls on high-value accounts need
// approval, blacklisted companies get no outreach at all, and VIP accounts
// always need approval.
func (e *Engine) AnalyzeInvoice(inv *models.Invoice) InvoiceAnalysis {
	now := e.now()
	history := e.invoiceHistory(inv)

	daysOverdue := 0
	if !inv.DueDate.IsZero() {
		if d := int(now.Sub(inv.DueDate).Hours() / 24); d > 0 {
			daysOverdue = d
		}
	}

	contacts := len(history)
	daysSinceLast := 0
	if contacts > 0 {
		last := history[0].SentAt
		for _, rec := range history[1:] {
			if rec.SentAt.After(last) {
				last = rec.SentAt
			}
		}
		daysSinceLast = int(now.Sub(last).Hours() / 24)
	}

	a := InvoiceAnalysis{
		Invoice:              inv,
		DaysOverdue:          daysOverdue,
		ContactCount:         contacts,
		DaysSinceLastContact: daysSinceLast,
		RecommendedAction:    ActionNone,
		History:              history,
	}

	switch {
	case contacts == 0 && daysOverdue >= e.config.DaysUntilFirstReminder:
		a.RecommendedAction = ActionEmail
		a.EscalationLevel = 1
		a.Reason = "first reminder"
	case contacts == 0:
		a.Reason = "not yet due for first reminder"
	case daysSinceLast < e.config.DaysBetweenReminders:
		a.Reason = "waiting between reminders"
	case contacts < e.config.MaxAutonomousReminders:
		a.RecommendedAction = ActionEmail
		a.EscalationLevel = contacts + 1
		a.Reason = "follow-up reminder"
	case inv.BalanceDue.GreaterThanOrEqual(e.config.HighValueThreshold):
		a.RecommendedAction = ActionCall
		a.EscalationLevel = 4
		a.RequiresApproval = true
		a.Reason = "reminder limit reached on high-value balance"
	default:
		a.RecommendedAction = ActionEscalate
		a.EscalationLevel = 4
		a.RequiresApproval = true
		a.Reason = "reminder limit reached"
	}

	if daysOverdue >= e.config.EscalationDays {
		a.RecommendedAction = ActionEscalate
		a.EscalationLevel = 5
		a.RequiresApproval = true
		a.Reason = "severely overdue"
	}

	if a.RecommendedAction == ActionCall && inv.BalanceDue.GreaterThanOrEqual(e.config.HighValueThreshold) {
		a.RequiresApproval = true
	}

	if e.config.IsBlacklisted(inv.CompanyName) {
		a.IsBlacklisted = true
		a.RecommendedAction = ActionNone
		a.RequiresApproval = true
		a.Reason = "company is blacklisted from automated outreach"
	}

	if e.config.IsVIP(inv.CompanyName) {
		a.IsVIP = true
		a.RequiresApproval = true
	}

	a.Urgency = urgencyFor(a.EscalationLevel)

	e.log.WithFields(logger.Fields{
		"invoice_id":   inv.ID,
		"company":      inv.CompanyName,
		"days_overdue": daysOverdue,
		"action":       a.RecommendedAction,
		"level":        a.EscalationLevel,
	}).Debug("Analyzed invoice")

	return a
}

func urgencyFor(level int) Urgency {
	switch {
	case level >= 5:
		return UrgencyCritical
	case level == 4:
		return UrgencyHigh
	case level >= 2:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// LogCommunication records an outreach in memory and in the store. Store
// failures are returned for the caller to log; the in-memory history already
// reflects the record so the current run stays consistent.
func (e *Engine) LogCommunication(rec models.CommunicationRecord) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = e.now()
	}
	e.history = append(e.history, rec)

	e.log.WithFields(logger.Fields{
		"invoice_id":   rec.InvoiceID,
		"company":      rec.CompanyName,
		"method":       rec.Method,
		"message_type": rec.MessageType,
	}).Info("Logged communication")

	if e.store == nil {
		return nil
	}
	return e.store.AppendCommunication(rec)
}

// History returns the engine's view of the communication log.
func (e *Engine) History() []models.CommunicationRecord {
	return e.history
}
