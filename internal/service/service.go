// Package service wires the collections components into the operations the
// CLI exposes: analyzing overdue invoices, matching bank transactions, and
// managing the learning memory.
//
// The analyze and match entry points never fail on data quality or
// persistence problems. Bad records degrade to neutral values at the parsing
// boundary, and store failures are logged while the computed results are
// still returned.
package service

import (
	"context"
	"fmt"

	"ar-collections-service/internal/channels"
	"ar-collections-service/internal/composer"
	"ar-collections-service/internal/escalation"
	"ar-collections-service/internal/matcher"
	"ar-collections-service/internal/models"
	"ar-collections-service/internal/store"
	"ar-collections-service/pkg/logger"
)

// Options configures a collections service. Zero-value fields fall back to
// defaults; a nil Store runs fully in memory.
type Options struct {
	Store            store.Store
	MatcherConfig    *matcher.Config
	EscalationConfig *escalation.Config
	Persona          composer.Persona
	Sender           channels.Sender
	Logger           logger.Logger
}

// Service is the collections facade over the matching and escalation engines.
type Service struct {
	store      store.Store
	matcher    *matcher.Engine
	escalation *escalation.Engine
	composer   *composer.Composer
	sender     channels.Sender
	log        logger.Logger
}

// New creates a Service from the given options.
func New(opts Options) (*Service, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("service")

	persona := opts.Persona
	if persona.Name == "" {
		persona = composer.DefaultPersona()
	}

	m, err := matcher.NewEngine(opts.MatcherConfig, opts.Store, log)
	if err != nil {
		return nil, err
	}
	e, err := escalation.NewEngine(opts.EscalationConfig, opts.Store, log)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:      opts.Store,
		matcher:    m,
		escalation: e,
		composer:   composer.New(persona),
		sender:     opts.Sender,
		log:        log,
	}, nil
}

// Escalation exposes the escalation engine, primarily so callers can pin the
// clock for reproducible runs.
func (s *Service) Escalation() *escalation.Engine {
	return s.escalation
}

// OutreachMessage pairs a consolidated action with its composed message and
// delivery outcome.
type OutreachMessage struct {
	Action  escalation.EscalationAction `json:"action"`
	Message composer.Message            `json:"message"`
	Sent    bool                        `json:"sent"`
}

// CollectionsReport is the output of an analysis run: the raw analysis, the
// composed outreach, and what was actually delivered.
type CollectionsReport struct {
	Result           escalation.AnalysisResult `json:"result"`
	AutonomousEmails []OutreachMessage         `json:"autonomous_emails"`
	AutonomousCalls  []OutreachMessage         `json:"autonomous_calls"`
	PendingApprovals []OutreachMessage         `json:"pending_approvals"`
	SentCount        int                       `json:"sent_count"`
}

// AnalyzeCollections analyzes the given invoices, composes outreach for every
// consolidated action, and, unless dryRun is set, delivers the autonomous
// emails and records them in the communication history. Calls and approvals
// are composed as drafts only. Delivery and persistence failures are logged
// and never abort the run.
func (s *Service) AnalyzeCollections(ctx context.Context, invoices []models.Invoice, dryRun bool) CollectionsReport {
	result := s.escalation.AnalyzeOverdueInvoices(invoices)
	report := CollectionsReport{Result: result}

	for _, action := range result.AutonomousEmails {
		out := OutreachMessage{Action: action, Message: s.composer.Compose(&action)}
		if !dryRun {
			out.Sent = s.deliver(ctx, &action, out.Message)
			if out.Sent {
				report.SentCount++
			}
		}
		report.AutonomousEmails = append(report.AutonomousEmails, out)
	}
	for _, action := range result.AutonomousCalls {
		report.AutonomousCalls = append(report.AutonomousCalls,
			OutreachMessage{Action: action, Message: s.composer.Compose(&action)})
	}
	for _, action := range result.PendingApprovals {
		report.PendingApprovals = append(report.PendingApprovals,
			OutreachMessage{Action: action, Message: s.composer.Compose(&action)})
	}

	s.log.WithFields(logger.Fields{
		"actions": result.ActionCount(),
		"sent":    report.SentCount,
		"dry_run": dryRun,
	}).Info("Completed collections run")

	return report
}

// ApproveAction delivers a previously pending action on behalf of an
// approver and records the communication with the approver's name.
func (s *Service) ApproveAction(ctx context.Context, action *escalation.EscalationAction, approvedBy string) (composer.Message, error) {
	msg := s.composer.Compose(action)
	if s.sender != nil {
		if err := s.sender.Send(ctx, action.ContactEmail, msg); err != nil {
			return msg, err
		}
	}
	s.record(action, approvedBy)
	return msg, nil
}

// deliver sends a message and records it. Failures are logged and reported
// as not-sent.
func (s *Service) deliver(ctx context.Context, action *escalation.EscalationAction, msg composer.Message) bool {
	if s.sender == nil {
		return false
	}
	if err := s.sender.Send(ctx, action.ContactEmail, msg); err != nil {
		s.log.WithError(err).WithField("recipient", action.ContactEmail).Warn("Failed to deliver message")
		return false
	}
	s.record(action, "")
	return true
}

// record logs one communication per invoice covered by the action.
func (s *Service) record(action *escalation.EscalationAction, approvedBy string) {
	method := models.MethodEmail
	if action.Action == escalation.ActionCall {
		method = models.MethodCall
	}
	messageType := fmt.Sprintf("reminder_level_%d", action.EscalationLevel)

	for _, inv := range action.Invoices() {
		rec := models.NewCommunicationRecord(inv.ID, inv.CompanyName, method, messageType, s.escalation.Now(), approvedBy)
		if err := s.escalation.LogCommunication(rec); err != nil {
			s.log.WithError(err).WithField("invoice_id", inv.ID).Warn("Failed to persist communication record")
		}
	}
}

// MatchTransactions pairs bank transactions with open invoices. A negative
// threshold selects the configured default.
func (s *Service) MatchTransactions(transactions []models.Transaction, invoices []models.Invoice, threshold float64) []matcher.Match {
	if threshold < 0 {
		threshold = s.matcher.Config().ConfidenceThreshold
	}
	return s.matcher.MatchTransactionsToInvoices(transactions, invoices, threshold)
}

// LearnAssociation records a transaction-token to company association.
func (s *Service) LearnAssociation(token, companyName string) error {
	return s.matcher.LearnAssociation(token, companyName)
}

// DenyMatch records that a transaction must never match an invoice.
func (s *Service) DenyMatch(transactionDescription, invoiceID string) error {
	return s.matcher.DenyMatch(transactionDescription, invoiceID)
}

// MarkTransactionAccounted records a transaction as already explained.
func (s *Service) MarkTransactionAccounted(t models.Transaction, companyName, invoiceID string) error {
	return s.matcher.MarkTransactionAccounted(t, companyName, invoiceID)
}

// SuggestAssociations proposes learnable associations from historical
// payments against paid invoices.
func (s *Service) SuggestAssociations(transactions []models.Transaction, invoices []models.Invoice) []matcher.AssociationSuggestion {
	return s.matcher.SuggestAssociationsFromHistory(transactions, invoices)
}

// ValidateCompanyPayments checks whether a company's received payments cover
// its paid invoices.
func (s *Service) ValidateCompanyPayments(companyName string, transactions []models.Transaction, invoices []models.Invoice) matcher.PaymentValidation {
	return s.matcher.ValidateCompanyPayments(companyName, transactions, invoices)
}

// AutoAccountHistoricalTransactions proposes (and with approve, records)
// accounting for historical payments that line up with paid invoices.
func (s *Service) AutoAccountHistoricalTransactions(transactions []models.Transaction, invoices []models.Invoice, approve bool) []matcher.Match {
	return s.matcher.AutoAccountHistoricalTransactions(transactions, invoices, approve)
}

// Close releases the underlying store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
