// Package composer turns escalation decisions into outbound messages. It is
// purely functional: given an action and a persona it produces a subject and
// body, with no I/O and no clock.
package composer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ar-collections-service/internal/escalation"
	"ar-collections-service/internal/models"
)

// Persona identifies the sender of collections outreach.
type Persona struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// DefaultPersona returns the stock collections persona.
func DefaultPersona() Persona {
	return Persona{
		Name:    "Klaus",
		Title:   "Accounts Receivable",
		Company: "Finance Department",
	}
}

// Message is a composed outbound message.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Composer builds messages in the voice of a persona.
type Composer struct {
	persona Persona
}

// New creates a composer for the given persona.
func New(persona Persona) *Composer {
	return &Composer{persona: persona}
}

// Compose builds the message for a consolidated escalation action. The tone
// follows the action's escalation level; VIP accounts always get the
// courteous template set regardless of level.
func (c *Composer) Compose(action *escalation.EscalationAction) Message {
	count := len(action.Analyses)
	tone := toneFor(action.EscalationLevel, action.IsVIP)

	var b strings.Builder
	b.WriteString(greeting(action.ContactName))
	b.WriteString("\n\n")
	b.WriteString(expand(tone.opening, count))
	b.WriteString("\n\n")
	b.WriteString(invoiceTable(action.Analyses, len(action.CompanyNames) > 1))
	b.WriteString(fmt.Sprintf("Total amount due: %s\n", formatAmount(totalDue(action.Analyses))))
	b.WriteString("\n")

	if history := recentHistory(action.Analyses, 5); len(history) > 0 {
		b.WriteString("For reference, our previous outreach on this account:\n")
		for _, rec := range history {
			b.WriteString(fmt.Sprintf("  - %s: %s (%s)\n",
				rec.SentAt.Format("Jan 2, 2006"), rec.Method, rec.MessageType))
		}
		b.WriteString("\n")
	}

	b.WriteString(expand(tone.closing, count))
	b.WriteString("\n\n")
	b.WriteString(c.signature())

	return Message{
		Subject: expand(tone.subject, count),
		Body:    b.String(),
	}
}

// corporateMarkers are entity suffixes that indicate a contact name is really
// a company name, so a first-name greeting would read wrong.
var corporateMarkers = []string{"LLC", "INC", "CORP", "LTD", "LP"}

// greeting addresses the contact by first name when one is available and the
// name is not a company.
func greeting(contactName string) string {
	name := strings.TrimSpace(contactName)
	if name == "" {
		return "Hello,"
	}

	upper := strings.ToUpper(name)
	for _, marker := range corporateMarkers {
		for _, word := range strings.Fields(upper) {
			if strings.Trim(word, ".,") == marker {
				return "Hello,"
			}
		}
	}

	first := strings.Fields(name)[0]
	return fmt.Sprintf("Hi %s,", first)
}

// invoiceTable renders the invoice list oldest first. The company column is
// included only when the action spans more than one company.
func invoiceTable(analyses []escalation.InvoiceAnalysis, withCompany bool) string {
	sorted := append([]escalation.InvoiceAnalysis(nil), analyses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Invoice.DueDate.Before(sorted[j].Invoice.DueDate)
	})

	var b strings.Builder
	for _, a := range sorted {
		inv := a.Invoice
		number := inv.Number
		if number == "" {
			number = inv.ID
		}
		b.WriteString("  ")
		b.WriteString(number)
		if withCompany {
			b.WriteString("  ")
			b.WriteString(inv.CompanyName)
		}
		b.WriteString("  ")
		b.WriteString(formatAmount(inv.BalanceDue))
		if !inv.DueDate.IsZero() {
			b.WriteString("  due ")
			b.WriteString(inv.DueDate.Format("Jan 2, 2006"))
		}
		if a.DaysOverdue > 0 {
			b.WriteString(fmt.Sprintf("  (%d days overdue)", a.DaysOverdue))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// totalDue sums the outstanding balance across the action's invoices.
func totalDue(analyses []escalation.InvoiceAnalysis) decimal.Decimal {
	total := decimal.Zero
	for _, a := range analyses {
		total = total.Add(a.Invoice.BalanceDue)
	}
	return total
}

// recentHistory returns up to limit of the most recent communication records
// across the action's invoices, in chronological order.
func recentHistory(analyses []escalation.InvoiceAnalysis, limit int) []models.CommunicationRecord {
	var all []models.CommunicationRecord
	for _, a := range analyses {
		all = append(all, a.History...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SentAt.Before(all[j].SentAt)
	})
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}

func (c *Composer) signature() string {
	var b strings.Builder
	b.WriteString("Best regards,\n")
	b.WriteString(c.persona.Name)
	if c.persona.Title != "" {
		b.WriteString("\n" + c.persona.Title)
	}
	if c.persona.Company != "" {
		b.WriteString("\n" + c.persona.Company)
	}
	if c.persona.Email != "" {
		b.WriteString("\n" + c.persona.Email)
	}
	if c.persona.Phone != "" {
		b.WriteString("\n" + c.persona.Phone)
	}
	return b.String()
}

// formatAmount renders a dollar amount with thousands separators.
func formatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]

	var b strings.Builder
	if d.IsNegative() {
		b.WriteString("-")
	}
	b.WriteString("$")
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(",")
		}
		b.WriteRune(c)
	}
	b.WriteString(".")
	b.WriteString(parts[1])
	return b.String()
}
