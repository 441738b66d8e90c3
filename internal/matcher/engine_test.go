package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ar-collections-service/internal/models"
	"ar-collections-service/pkg/logger"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultConfig(), nil, logger.GetGlobalLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func openInvoice(id, number, company string, amount float64, created time.Time) models.Invoice {
	return models.Invoice{
		ID:          id,
		Number:      number,
		CompanyName: company,
		Amount:      decimal.NewFromFloat(amount),
		BalanceDue:  decimal.NewFromFloat(amount),
		CreatedDate: created,
		Status:      models.StatusUnpaid,
	}
}

func creditTransaction(id, description string, amount float64, date time.Time) models.Transaction {
	return models.Transaction{
		ID:          id,
		Date:        date,
		Amount:      decimal.NewFromFloat(amount),
		Description: description,
		IsCredit:    true,
	}
}

func TestScoreAmountTiers(t *testing.T) {
	tests := []struct {
		name     string
		trans    float64
		invoice  float64
		expected float64
	}{
		{"exact match", 1000.00, 1000.00, 100},
		{"within a dollar", 999.50, 1000.00, 100},
		{"within one percent", 992.00, 1000.00, 95},
		{"within two percent", 984.50, 1000.00, 85},
		{"within five percent", 960.00, 1000.00, 70},
		{"within ten percent", 910.00, 1000.00, 50},
		{"too far off", 800.00, 1000.00, 0},
		{"zero invoice amount", 100.00, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreAmount(decimal.NewFromFloat(tt.trans), decimal.NewFromFloat(tt.invoice))
			if got != tt.expected {
				t.Errorf("scoreAmount(%v, %v) = %v, want %v", tt.trans, tt.invoice, got, tt.expected)
			}
		})
	}
}

func TestScoreDateTiers(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		trans    time.Time
		invoice  time.Time
		expected float64
	}{
		{"same day", created, created, 100},
		{"within thirty days", created.AddDate(0, 0, 20), created, 100},
		{"within sixty days", created.AddDate(0, 0, 45), created, 90},
		{"within ninety days", created.AddDate(0, 0, 75), created, 80},
		{"within one twenty days", created.AddDate(0, 0, 110), created, 60},
		{"very late", created.AddDate(0, 0, 200), created, 30},
		{"payment before invoice", created.AddDate(0, 0, -5), created, 0},
		{"missing transaction date", time.Time{}, created, 20},
		{"missing invoice date", created, time.Time{}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreDate(tt.trans, tt.invoice)
			if got != tt.expected {
				t.Errorf("scoreDate = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScoreInvoiceNumber(t *testing.T) {
	if got := scoreInvoiceNumber("ACH CREDIT REF INV-1042", "inv-1042"); got != 100 {
		t.Errorf("expected case-insensitive substring to score 100, got %v", got)
	}
	if got := scoreInvoiceNumber("ACH CREDIT", "INV-1042"); got != 0 {
		t.Errorf("expected absent invoice number to score 0, got %v", got)
	}
	if got := scoreInvoiceNumber("ACH CREDIT INV-1042", ""); got != 0 {
		t.Errorf("expected empty invoice number to score 0, got %v", got)
	}
}

func TestMatchHighConfidenceScenario(t *testing.T) {
	engine := newTestEngine(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		openInvoice("inv-1", "INV-100", "Sunrise Properties LLC", 1000.00, created),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", "WIRE TRANSFER SUNRISE PROPERTIES PAYMENT", 984.50, created.AddDate(0, 0, 5)),
	}

	matches := engine.MatchTransactionsToInvoices(transactions, invoices, 70)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.Invoice.ID != "inv-1" {
		t.Errorf("matched wrong invoice: %s", m.Invoice.ID)
	}
	if m.Reasons.AmountScore != 85 {
		t.Errorf("amount score = %v, want 85", m.Reasons.AmountScore)
	}
	if m.Reasons.NameScore != 100 {
		t.Errorf("name score = %v, want 100", m.Reasons.NameScore)
	}
	if m.Reasons.DateScore != 100 {
		t.Errorf("date score = %v, want 100", m.Reasons.DateScore)
	}
	if m.Confidence < 90 {
		t.Errorf("confidence = %v, want >= 90", m.Confidence)
	}
}

func TestMatchNoDoubleBooking(t *testing.T) {
	engine := newTestEngine(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		openInvoice("inv-1", "INV-100", "Sunrise Properties LLC", 1000.00, created),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", "WIRE SUNRISE PROPERTIES PAYMENT A", 1000.00, created.AddDate(0, 0, 5)),
		creditTransaction("tx-2", "WIRE SUNRISE PROPERTIES PAYMENT B", 1000.00, created.AddDate(0, 0, 6)),
	}

	matches := engine.MatchTransactionsToInvoices(transactions, invoices, 70)

	seenInvoices := make(map[string]bool)
	seenTransactions := make(map[string]bool)
	for _, m := range matches {
		if seenInvoices[m.Invoice.ID] {
			t.Errorf("invoice %s matched more than once", m.Invoice.ID)
		}
		if seenTransactions[m.Transaction.ID] {
			t.Errorf("transaction %s matched more than once", m.Transaction.ID)
		}
		seenInvoices[m.Invoice.ID] = true
		seenTransactions[m.Transaction.ID] = true
	}
	if len(matches) != 1 {
		t.Errorf("expected exactly 1 match for a single invoice, got %d", len(matches))
	}
}

func TestMatchDenialRespectedAtThresholdZero(t *testing.T) {
	engine := newTestEngine(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	description := "WIRE SUNRISE PROPERTIES PAYMENT"
	invoices := []models.Invoice{
		openInvoice("inv-1", "INV-100", "Sunrise Properties LLC", 1000.00, created),
	}
	transactions := []models.Transaction{
		creditTransaction("tx-1", description, 1000.00, created.AddDate(0, 0, 5)),
	}

	if got := engine.MatchTransactionsToInvoices(transactions, invoices, 0); len(got) != 1 {
		t.Fatalf("expected a match before denial, got %d", len(got))
	}

	if err := engine.DenyMatch(description, "inv-1"); err != nil {
		t.Fatalf("DenyMatch failed: %v", err)
	}

	for _, m := range engine.MatchTransactionsToInvoices(transactions, invoices, 0) {
		if m.Transaction.Description == description && m.Invoice.ID == "inv-1" {
			t.Error("denied pairing was proposed again")
		}
	}
	if !engine.IsMatchDenied(description, "inv-1") {
		t.Error("IsMatchDenied should report the denial")
	}
}

func TestMatchSkipsAccountedAndNonCredits(t *testing.T) {
	engine := newTestEngine(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	invoices := []models.Invoice{
		openInvoice("inv-1", "INV-100", "Sunrise Properties LLC", 1000.00, created),
	}

	accounted := creditTransaction("tx-1", "WIRE SUNRISE PROPERTIES PAYMENT", 1000.00, created.AddDate(0, 0, 5))
	if err := engine.MarkTransactionAccounted(accounted, "Sunrise Properties LLC", "inv-0"); err != nil {
		t.Fatalf("MarkTransactionAccounted failed: %v", err)
	}

	debit := models.Transaction{
		ID:          "tx-2",
		Date:        created.AddDate(0, 0, 5),
		Amount:      decimal.NewFromFloat(-1000.00),
		Description: "WIRE SUNRISE PROPERTIES REFUND",
		IsCredit:    false,
	}

	matches := engine.MatchTransactionsToInvoices([]models.Transaction{accounted, debit}, invoices, 0)
	if len(matches) != 0 {
		t.Errorf("expected no matches from accounted or debit transactions, got %d", len(matches))
	}
	if !engine.IsTransactionAccounted(accounted.Description) {
		t.Error("IsTransactionAccounted should report the accounted transaction")
	}
}

func TestMatchSkipsClosedInvoices(t *testing.T) {
	engine := newTestEngine(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	paid := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	settled := openInvoice("inv-1", "INV-100", "Sunrise Properties LLC", 1000.00, created)
	settled.Status = models.StatusPaid
	settled.PaymentDate = &paid
	settled.BalanceDue = decimal.Zero

	transactions := []models.Transaction{
		creditTransaction("tx-1", "WIRE SUNRISE PROPERTIES PAYMENT", 1000.00, created.AddDate(0, 0, 5)),
	}

	if got := engine.MatchTransactionsToInvoices(transactions, []models.Invoice{settled}, 0); len(got) != 0 {
		t.Errorf("expected no matches against a settled invoice, got %d", len(got))
	}
}

func TestLearnAssociationLastWriteWins(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.LearnAssociation("BLUE MARTEN PMT", "First Company LLC"); err != nil {
		t.Fatalf("LearnAssociation failed: %v", err)
	}
	if err := engine.LearnAssociation("BLUE MARTEN PMT", "Second Company LLC"); err != nil {
		t.Fatalf("LearnAssociation failed: %v", err)
	}

	associations := engine.Associations()
	if got := associations["blue marten pmt"]; got != "second company" {
		t.Errorf("association = %q, want %q", got, "second company")
	}
	if len(associations) != 1 {
		t.Errorf("expected a single association, got %d", len(associations))
	}
}

func TestLearnAssociationRejectsEmptyInput(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.LearnAssociation("", "Some Company"); err == nil {
		t.Error("expected an error for an empty transaction token")
	}
	if err := engine.LearnAssociation("SOME TOKEN", ""); err == nil {
		t.Error("expected an error for an empty company name")
	}
}

func TestMemoryScoreDrivesMatching(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.LearnAssociation("ZQX PAYMENTS", "Greenfield Ventures LLC"); err != nil {
		t.Fatalf("LearnAssociation failed: %v", err)
	}

	if got := engine.scoreMemory("ACH CREDIT ZQX PAYMENTS 000123", "Greenfield Ventures LLC"); got != 100 {
		t.Errorf("memory score = %v, want 100", got)
	}
	if got := engine.scoreMemory("ACH CREDIT ZQX PAYMENTS 000123", "Unrelated Holdings"); got != 0 {
		t.Errorf("memory score for unrelated company = %v, want 0", got)
	}
}

func TestDetectProcessor(t *testing.T) {
	tests := []struct {
		description string
		expected    string
	}{
		{"STRIPE TRANSFER ST-A1B2", "stripe"},
		{"ORIG CO NAME:BLUE MARTEN SEC:CCD", "ach"},
		{"FEDWIRE CREDIT VIA ABC BANK", "wire"},
		{"ZELLE PAYMENT FROM JANE", "zelle"},
		{"CHECK DEPOSIT 1234", ""},
	}

	for _, tt := range tests {
		tx := models.Transaction{Description: tt.description}
		p := DetectProcessor(&tx)
		got := ""
		if p != nil {
			got = p.Name
		}
		if got != tt.expected {
			t.Errorf("DetectProcessor(%q) = %q, want %q", tt.description, got, tt.expected)
		}
	}
}
