package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice as reported by
// the upstream billing system.
type InvoiceStatus string

const (
	// StatusUnpaid marks an invoice that has been issued but not settled.
	StatusUnpaid InvoiceStatus = "UNPAID"
	// StatusOpen marks an invoice that is open in the billing system.
	StatusOpen InvoiceStatus = "OPEN"
	// StatusOutstanding marks an invoice flagged as outstanding upstream.
	StatusOutstanding InvoiceStatus = "OUTSTANDING"
	// StatusPaid marks a settled invoice.
	StatusPaid InvoiceStatus = "PAID"
	// StatusUnknown is used when the upstream system reports no status at all.
	// Invoices with an unknown status are still treated as potentially open.
	StatusUnknown InvoiceStatus = ""
)

// NormalizeStatus maps free-form upstream status strings onto InvoiceStatus.
// Unrecognized values are preserved uppercased so they can be inspected later.
func NormalizeStatus(s string) InvoiceStatus {
	return InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// IsOpenStatus reports whether the status counts as "not yet settled" for
// matching and collections purposes.
func (s InvoiceStatus) IsOpenStatus() bool {
	switch s {
	case StatusUnpaid, StatusOpen, StatusOutstanding, StatusUnknown:
		return true
	default:
		return false
	}
}

// Transaction represents a single bank transaction fetched from the bank feed.
// Transactions are immutable once fetched; the amount sign is normalized at
// construction so that a positive amount always means money received.
type Transaction struct {
	ID          string          `json:"transaction_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	IsCredit    bool            `json:"is_credit"`
}

// NewTransaction creates a Transaction with a sign-normalized amount.
func NewTransaction(id string, date time.Time, amount decimal.Decimal, description string, isCredit bool) *Transaction {
	t := &Transaction{
		ID:          id,
		Date:        date,
		Amount:      amount,
		Description: description,
		IsCredit:    isCredit,
	}
	t.NormalizeSign()
	return t
}

// NormalizeSign forces the amount sign to agree with the credit flag:
// credits are positive, debits negative.
func (t *Transaction) NormalizeSign() {
	if t.IsCredit && t.Amount.IsNegative() {
		t.Amount = t.Amount.Neg()
	}
	if !t.IsCredit && t.Amount.IsPositive() {
		t.Amount = t.Amount.Neg()
	}
}

// Validate performs basic validation on the Transaction.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}
	return nil
}

// String returns a string representation of the Transaction.
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Amount: %s, Date: %s}",
		t.ID, t.Amount.String(), t.Date.Format("2006-01-02"))
}

// Invoice represents a receivable invoice fetched from the billing system.
type Invoice struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	CompanyName  string          `json:"company_name"`
	ContactName  string          `json:"contact_name"`
	ContactEmail string          `json:"contact_email"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
	DueDate      time.Time       `json:"due_date"`
	CreatedDate  time.Time       `json:"created_date"`
	PaymentDate  *time.Time      `json:"payment_date,omitempty"`
	Status       InvoiceStatus   `json:"status"`
}

// IsOpen reports whether the invoice is still collectible: a positive balance,
// no recorded payment, and a status that has not been settled upstream.
func (inv *Invoice) IsOpen() bool {
	return inv.BalanceDue.IsPositive() && inv.PaymentDate == nil && inv.Status.IsOpenStatus()
}

// IsPaid reports whether the invoice has a recorded payment date.
func (inv *Invoice) IsPaid() bool {
	return inv.PaymentDate != nil
}

// Validate performs basic validation on the Invoice.
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.ID) == "" {
		return fmt.Errorf("invoice ID cannot be empty")
	}
	if inv.BalanceDue.IsNegative() {
		return fmt.Errorf("invoice balance due cannot be negative: %s", inv.BalanceDue)
	}
	return nil
}

// String returns a string representation of the Invoice.
func (inv *Invoice) String() string {
	return fmt.Sprintf("Invoice{ID: %s, Number: %s, Company: %s, BalanceDue: %s}",
		inv.ID, inv.Number, inv.CompanyName, inv.BalanceDue.String())
}

// Association is a learned mapping from a normalized transaction-name token to
// a normalized company-name token. The transaction token is the unique key;
// re-learning a token overwrites the previous company (last write wins).
type Association struct {
	TransactionToken string    `json:"transaction_token"`
	CompanyToken     string    `json:"company_token"`
	LearnedAt        time.Time `json:"learned_at"`
}

// DeniedMatch records a (transaction description, invoice) pairing a human has
// rejected. Uniqueness is the exact pair: denying one pairing does not block
// the transaction or the invoice from matching anything else.
type DeniedMatch struct {
	TransactionDescription string    `json:"transaction_description"`
	InvoiceID              string    `json:"invoice_id"`
	DeniedAt               time.Time `json:"denied_at"`
}

// AccountedTransaction marks a transaction as already explained so it is
// excluded from future matching candidate pools. Unique by description.
type AccountedTransaction struct {
	TransactionDescription string          `json:"transaction_description"`
	TransactionID          string          `json:"transaction_id,omitempty"`
	Amount                 decimal.Decimal `json:"amount"`
	Date                   time.Time       `json:"date"`
	CompanyName            string          `json:"company_name"`
	InvoiceID              string          `json:"invoice_id,omitempty"`
	AccountedAt            time.Time       `json:"accounted_at"`
}

// ContactMethod identifies the delivery channel of a communication.
type ContactMethod string

const (
	MethodEmail ContactMethod = "email"
	MethodCall  ContactMethod = "call"
	MethodSMS   ContactMethod = "sms"
)

// CommunicationRecord is one entry in the append-only communication log.
// Records are never mutated after creation; escalation decisions are derived
// from their count and recency.
type CommunicationRecord struct {
	ID          string        `json:"id"`
	InvoiceID   string        `json:"invoice_id"`
	CompanyName string        `json:"company_name"`
	Method      ContactMethod `json:"method"`
	MessageType string        `json:"message_type"`
	SentAt      time.Time     `json:"sent_at"`
	ApprovedBy  string        `json:"approved_by,omitempty"`
}

// NewCommunicationRecord creates a CommunicationRecord stamped with a fresh
// identifier and the given send time.
func NewCommunicationRecord(invoiceID, companyName string, method ContactMethod, messageType string, sentAt time.Time, approvedBy string) CommunicationRecord {
	return CommunicationRecord{
		ID:          uuid.NewString(),
		InvoiceID:   invoiceID,
		CompanyName: companyName,
		Method:      method,
		MessageType: messageType,
		SentAt:      sentAt,
		ApprovedBy:  approvedBy,
	}
}

// ParseAmount parses a decimal amount from a string, tolerating currency
// symbols and thousand separators commonly present in exported data.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// dateFormats are the timestamp layouts accepted from upstream systems,
// tried in order.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
}

// ParseDateLenient attempts to parse a date string using the accepted layouts.
// It returns the zero time and false instead of an error: date-quality
// problems must degrade to neutral values rather than abort an analysis run.
func ParseDateLenient(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
