package matcher

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ar-collections-service/internal/models"
)

func TestExtractCompanyFromTransaction(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
	}{
		{
			"ach originator",
			"ORIG CO NAME:BLUE MARTEN LLC ORIG ID:9876543210",
			"BLUE MARTEN LLC",
		},
		{
			"wire by order of",
			"B/O: GOLDEN GATE FUND REF: 20240315",
			"GOLDEN GATE FUND",
		},
		{
			"wire from",
			"FROM: PINNACLE DENTAL REF: 88123",
			"PINNACLE DENTAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractCompanyFromTransaction(tt.description); got != tt.expected {
				t.Errorf("extractCompanyFromTransaction(%q) = %q, want %q", tt.description, got, tt.expected)
			}
		})
	}
}

func TestExtractCompanyFallbackTruncates(t *testing.T) {
	long := strings.Repeat("DEPOSIT ", 20)
	got := extractCompanyFromTransaction(long)
	if len(got) > 50 {
		t.Errorf("fallback token length = %d, want <= 50", len(got))
	}
}

func paidInvoice(id, company string, amount float64, paymentDate time.Time) models.Invoice {
	return models.Invoice{
		ID:          id,
		CompanyName: company,
		Amount:      decimal.NewFromFloat(amount),
		Status:      models.StatusPaid,
		PaymentDate: &paymentDate,
	}
}

func TestSuggestAssociationsFromHistory(t *testing.T) {
	engine := newTestEngine(t)

	paidAt := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("inv-1", "Blue Marten LLC", 500.00, paidAt),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", "ORIG CO NAME:BLUE MARTEN LLC ORIG ID:9876543210", 495.00, paidAt.AddDate(0, 0, 3)),
	}

	suggestions := engine.SuggestAssociationsFromHistory(transactions, invoices)
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}

	s := suggestions[0]
	if s.TransactionToken != "BLUE MARTEN LLC" {
		t.Errorf("token = %q, want %q", s.TransactionToken, "BLUE MARTEN LLC")
	}
	if s.CompanyName != "Blue Marten LLC" {
		t.Errorf("company = %q, want %q", s.CompanyName, "Blue Marten LLC")
	}
	if s.Confidence < 80 {
		t.Errorf("confidence = %v, want >= 80", s.Confidence)
	}
}

func TestSuggestSkipsKnownTokensAndFarPayments(t *testing.T) {
	engine := newTestEngine(t)

	paidAt := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("inv-1", "Blue Marten LLC", 500.00, paidAt),
		paidInvoice("inv-2", "Golden Gate Fund", 900.00, paidAt),
	}
	transactions := []models.Transaction{
		// Token already learned: no suggestion.
		creditTransaction("tx-1", "ORIG CO NAME:BLUE MARTEN LLC ORIG ID:9876543210", 495.00, paidAt.AddDate(0, 0, 3)),
		// Too long after payment: no suggestion.
		creditTransaction("tx-2", "B/O: GOLDEN GATE FUND REF: 1", 900.00, paidAt.AddDate(0, 0, 45)),
	}

	if err := engine.LearnAssociation("BLUE MARTEN LLC", "Blue Marten LLC"); err != nil {
		t.Fatalf("LearnAssociation failed: %v", err)
	}

	if suggestions := engine.SuggestAssociationsFromHistory(transactions, invoices); len(suggestions) != 0 {
		t.Errorf("expected no suggestions, got %d", len(suggestions))
	}
}

func TestValidateCompanyPaymentsBalanced(t *testing.T) {
	engine := newTestEngine(t)

	paidAt := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("inv-1", "Blue Marten LLC", 600.00, paidAt),
		paidInvoice("inv-2", "Blue Marten LLC", 400.00, paidAt),
		paidInvoice("inv-3", "Other Company", 123.00, paidAt),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", "ACH CREDIT BLUE MARTEN LLC", 600.00, paidAt),
		creditTransaction("tx-2", "ACH CREDIT BLUE MARTEN LLC PMT 2", 398.00, paidAt),
		creditTransaction("tx-3", "ZELLE UNRELATED SENDER", 50.00, paidAt),
	}

	v := engine.ValidateCompanyPayments("Blue Marten LLC", transactions, invoices)
	if !v.TotalInvoiced.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("total invoiced = %s, want 1000", v.TotalInvoiced)
	}
	if !v.TotalReceived.Equal(decimal.NewFromInt(998)) {
		t.Errorf("total received = %s, want 998", v.TotalReceived)
	}
	// $2 short is inside the max(1%, $5) tolerance.
	if v.Status != PaymentBalanced {
		t.Errorf("status = %s, want %s", v.Status, PaymentBalanced)
	}
}

func TestValidateCompanyPaymentsShort(t *testing.T) {
	engine := newTestEngine(t)

	paidAt := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("inv-1", "Blue Marten LLC", 1000.00, paidAt),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", "ACH CREDIT BLUE MARTEN LLC", 500.00, paidAt),
	}

	v := engine.ValidateCompanyPayments("Blue Marten LLC", transactions, invoices)
	if v.Status != PaymentShort {
		t.Errorf("status = %s, want %s", v.Status, PaymentShort)
	}
	if !v.Difference.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("difference = %s, want -500", v.Difference)
	}
}

func TestAutoAccountHistoricalTransactions(t *testing.T) {
	engine := newTestEngine(t)

	paidAt := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		paidInvoice("inv-1", "Blue Marten LLC", 500.00, paidAt),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", "ACH CREDIT BLUE MARTEN LLC", 500.00, paidAt),
	}

	proposals := engine.AutoAccountHistoricalTransactions(transactions, invoices, false)
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	if engine.IsTransactionAccounted(transactions[0].Description) {
		t.Error("transaction should not be accounted without approval")
	}

	engine.AutoAccountHistoricalTransactions(transactions, invoices, true)
	if !engine.IsTransactionAccounted(transactions[0].Description) {
		t.Error("transaction should be accounted after approval")
	}
}
