// Package reporter renders collections analyses and matching results for
// terminal display and for programmatic consumption.
//
// Supported output formats:
//   - Console: human-readable output for operators
//   - JSON: structured data for downstream tooling
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ar-collections-service/internal/matcher"
	"ar-collections-service/internal/service"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportGenerator renders reports in a chosen format.
type ReportGenerator struct {
	format OutputFormat
}

// NewReportGenerator creates a generator for the given format.
func NewReportGenerator(format OutputFormat) (*ReportGenerator, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("invalid output format: %s", format)
	}
	return &ReportGenerator{format: format}, nil
}

// WriteCollectionsReport renders a collections analysis run.
func (rg *ReportGenerator) WriteCollectionsReport(report *service.CollectionsReport, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("collections report cannot be nil")
	}
	if rg.format == FormatJSON {
		return writeJSON(report, w)
	}
	return writeCollectionsConsole(report, w)
}

// WriteMatchReport renders a transaction matching run.
func (rg *ReportGenerator) WriteMatchReport(matches []matcher.Match, w io.Writer) error {
	if rg.format == FormatJSON {
		return writeJSON(matches, w)
	}
	return writeMatchesConsole(matches, w)
}

// WriteSuggestions renders association suggestions derived from history.
func (rg *ReportGenerator) WriteSuggestions(suggestions []matcher.AssociationSuggestion, w io.Writer) error {
	if rg.format == FormatJSON {
		return writeJSON(suggestions, w)
	}
	return writeSuggestionsConsole(suggestions, w)
}

// WriteValidation renders a company payment validation.
func (rg *ReportGenerator) WriteValidation(v *matcher.PaymentValidation, w io.Writer) error {
	if v == nil {
		return fmt.Errorf("payment validation cannot be nil")
	}
	if rg.format == FormatJSON {
		return writeJSON(v, w)
	}
	return writeValidationConsole(v, w)
}

func writeJSON(v interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCollectionsConsole(report *service.CollectionsReport, w io.Writer) error {
	var b strings.Builder

	summary := report.Result.Summary
	b.WriteString(header("COLLECTIONS ANALYSIS"))
	fmt.Fprintf(&b, "Invoices analyzed:    %d\n", summary.InvoicesAnalyzed)
	fmt.Fprintf(&b, "Autonomous emails:    %d\n", summary.AutonomousEmails)
	fmt.Fprintf(&b, "Autonomous calls:     %d\n", summary.AutonomousCalls)
	fmt.Fprintf(&b, "Pending approvals:    %d\n", summary.PendingApprovals)
	fmt.Fprintf(&b, "No action needed:     %d\n", summary.NoAction)
	fmt.Fprintf(&b, "Messages sent:        %d\n", report.SentCount)

	writeOutreachSection(&b, "AUTONOMOUS EMAILS", report.AutonomousEmails)
	writeOutreachSection(&b, "AUTONOMOUS CALLS", report.AutonomousCalls)
	writeOutreachSection(&b, "PENDING APPROVALS", report.PendingApprovals)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOutreachSection(b *strings.Builder, title string, messages []service.OutreachMessage) {
	if len(messages) == 0 {
		return
	}

	b.WriteString(header(title))
	for _, m := range messages {
		contact := m.Action.ContactEmail
		if contact == "" {
			contact = strings.Join(m.Action.CompanyNames, ", ")
		}
		fmt.Fprintf(b, "%-40s  level %d  %s  $%s  (%d days overdue)",
			contact, m.Action.EscalationLevel, m.Action.Action,
			m.Action.TotalBalance.StringFixed(2), m.Action.MaxDaysOverdue)
		if m.Action.IsVIP {
			b.WriteString("  [VIP]")
		}
		if m.Sent {
			b.WriteString("  [sent]")
		}
		b.WriteString("\n")
		fmt.Fprintf(b, "    Subject: %s\n", m.Message.Subject)
	}
}

func writeMatchesConsole(matches []matcher.Match, w io.Writer) error {
	var b strings.Builder

	b.WriteString(header("TRANSACTION MATCHES"))
	if len(matches) == 0 {
		b.WriteString("No matches found.\n")
	}
	for _, m := range matches {
		fmt.Fprintf(&b, "%.2f%%  %s -> %s (%s)\n",
			m.Confidence, m.Transaction.ID, m.Invoice.ID, m.Invoice.CompanyName)
		fmt.Fprintf(&b, "    amount %s vs %s | scores: memory=%.0f amount=%.0f name=%.0f date=%.0f invoice=%.0f",
			m.Transaction.Amount.StringFixed(2), m.Invoice.Amount.StringFixed(2),
			m.Reasons.MemoryScore, m.Reasons.AmountScore, m.Reasons.NameScore,
			m.Reasons.DateScore, m.Reasons.InvoiceNumberScore)
		if m.Reasons.Processor != "" {
			fmt.Fprintf(&b, " processor=%s", m.Reasons.Processor)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSuggestionsConsole(suggestions []matcher.AssociationSuggestion, w io.Writer) error {
	var b strings.Builder

	b.WriteString(header("ASSOCIATION SUGGESTIONS"))
	if len(suggestions) == 0 {
		b.WriteString("No suggestions found.\n")
	}
	for _, s := range suggestions {
		fmt.Fprintf(&b, "%.1f%%  %q -> %q\n", s.Confidence, s.TransactionToken, s.CompanyName)
		fmt.Fprintf(&b, "    invoice %s, %.1f%% amount diff, %.0f days apart\n",
			s.InvoiceID, s.AmountDiffPercent, s.DaysApart)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeValidationConsole(v *matcher.PaymentValidation, w io.Writer) error {
	var b strings.Builder

	b.WriteString(header("PAYMENT VALIDATION: " + v.CompanyName))
	fmt.Fprintf(&b, "Total invoiced:  $%s\n", v.TotalInvoiced.StringFixed(2))
	fmt.Fprintf(&b, "Total received:  $%s\n", v.TotalReceived.StringFixed(2))
	fmt.Fprintf(&b, "Difference:      $%s (tolerance $%s)\n",
		v.Difference.StringFixed(2), v.Tolerance.StringFixed(2))
	fmt.Fprintf(&b, "Status:          %s\n", strings.ToUpper(string(v.Status)))
	fmt.Fprintf(&b, "Transactions:    %d new, %d already accounted\n",
		len(v.MatchedTransactions), len(v.AccountedTransactions))

	_, err := io.WriteString(w, b.String())
	return err
}

func header(title string) string {
	line := strings.Repeat("=", 60)
	return fmt.Sprintf("\n%s\n%s\n%s\n", line, title, line)
}
