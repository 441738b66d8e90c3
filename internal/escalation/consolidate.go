package escalation

import (
	"sort"

	"github.com/shopspring/decimal"

	"ar-collections-service/internal/models"
	"ar-collections-service/pkg/logger"
)

// EscalationAction is a consolidated outreach plan for one contact. A contact
// with several overdue invoices gets a single action covering all of them
// rather than one message per invoice.
type EscalationAction struct {
	ContactEmail     string            `json:"contact_email"`
	ContactName      string            `json:"contact_name"`
	CompanyNames     []string          `json:"company_names"`
	Analyses         []InvoiceAnalysis `json:"analyses"`
	Action           Action            `json:"action"`
	EscalationLevel  int               `json:"escalation_level"`
	RequiresApproval bool              `json:"requires_approval"`
	IsVIP            bool              `json:"is_vip"`
	TotalBalance     decimal.Decimal   `json:"total_balance"`
	MaxDaysOverdue   int               `json:"max_days_overdue"`
}

// Invoices returns the invoices covered by this action.
func (a *EscalationAction) Invoices() []*models.Invoice {
	out := make([]*models.Invoice, len(a.Analyses))
	for i := range a.Analyses {
		out[i] = a.Analyses[i].Invoice
	}
	return out
}

// AnalysisSummary carries the headline counts of a run so JSON consumers do
// not have to recount the buckets.
type AnalysisSummary struct {
	InvoicesAnalyzed int `json:"invoices_analyzed"`
	AutonomousEmails int `json:"autonomous_emails"`
	AutonomousCalls  int `json:"autonomous_calls"`
	PendingApprovals int `json:"pending_approvals"`
	NoAction         int `json:"no_action"`
}

// AnalysisResult is the full output of a collections analysis run, with
// per-contact actions bucketed by how they can proceed.
type AnalysisResult struct {
	Summary          AnalysisSummary    `json:"summary"`
	Analyses         []InvoiceAnalysis  `json:"analyses"`
	AutonomousEmails []EscalationAction `json:"autonomous_emails"`
	AutonomousCalls  []EscalationAction `json:"autonomous_calls"`
	PendingApprovals []EscalationAction `json:"pending_approvals"`
	NoActionCount    int                `json:"no_action_count"`
}

// ActionCount returns the number of consolidated actions across all buckets.
func (r *AnalysisResult) ActionCount() int {
	return len(r.AutonomousEmails) + len(r.AutonomousCalls) + len(r.PendingApprovals)
}

// AnalyzeOverdueInvoices analyzes every open invoice and consolidates the
// resulting actions per contact. Invoices needing no action are counted but
// not grouped. Within a group the escalation level, approval requirement, and
// VIP status are the strictest of any member; the action is a call if any
// member calls for one, otherwise an email.
func (e *Engine) AnalyzeOverdueInvoices(invoices []models.Invoice) AnalysisResult {
	var result AnalysisResult

	groups := make(map[string]*EscalationAction)
	var order []string

	for i := range invoices {
		inv := &invoices[i]
		if !inv.IsOpen() {
			continue
		}

		a := e.AnalyzeInvoice(inv)
		result.Analyses = append(result.Analyses, a)

		if a.RecommendedAction == ActionNone {
			result.NoActionCount++
			continue
		}

		key := inv.ContactEmail
		if key == "" {
			key = inv.CompanyName
		}

		g, ok := groups[key]
		if !ok {
			g = &EscalationAction{
				ContactEmail: inv.ContactEmail,
				ContactName:  inv.ContactName,
				Action:       ActionEmail,
				TotalBalance: decimal.Zero,
			}
			groups[key] = g
			order = append(order, key)
		}

		g.Analyses = append(g.Analyses, a)
		if !containsString(g.CompanyNames, inv.CompanyName) {
			g.CompanyNames = append(g.CompanyNames, inv.CompanyName)
		}
		g.TotalBalance = g.TotalBalance.Add(inv.BalanceDue)
		if a.EscalationLevel > g.EscalationLevel {
			g.EscalationLevel = a.EscalationLevel
		}
		if a.DaysOverdue > g.MaxDaysOverdue {
			g.MaxDaysOverdue = a.DaysOverdue
		}
		if a.RequiresApproval {
			g.RequiresApproval = true
		}
		if a.IsVIP {
			g.IsVIP = true
		}
		if a.RecommendedAction == ActionCall {
			g.Action = ActionCall
		}
	}

	sort.Strings(order)
	for _, key := range order {
		g := groups[key]
		switch {
		case g.RequiresApproval:
			result.PendingApprovals = append(result.PendingApprovals, *g)
		case g.Action == ActionCall:
			result.AutonomousCalls = append(result.AutonomousCalls, *g)
		default:
			result.AutonomousEmails = append(result.AutonomousEmails, *g)
		}
	}

	result.Summary = AnalysisSummary{
		InvoicesAnalyzed: len(result.Analyses),
		AutonomousEmails: len(result.AutonomousEmails),
		AutonomousCalls:  len(result.AutonomousCalls),
		PendingApprovals: len(result.PendingApprovals),
		NoAction:         result.NoActionCount,
	}

	e.log.WithFields(logger.Fields{
		"invoices":          len(invoices),
		"autonomous_emails": len(result.AutonomousEmails),
		"autonomous_calls":  len(result.AutonomousCalls),
		"pending_approvals": len(result.PendingApprovals),
		"no_action":         result.NoActionCount,
	}).Info("Completed collections analysis")

	return result
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
