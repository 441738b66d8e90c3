package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"ar-collections-service/pkg/logger"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadInvoices(t *testing.T) {
	path := writeFixture(t, "invoices.json", `[
		{
			"id": "inv-1",
			"number": "INV-100",
			"company_name": "Acme Corp",
			"contact_email": "dana@example.com",
			"amount": "$1,000.00",
			"balance_due": "1000.00",
			"due_date": "2024-03-01",
			"created_date": "2024-02-01",
			"status": "unpaid"
		},
		{
			"id": "inv-2",
			"company_name": "Beta LLC",
			"amount": "500.00",
			"status": "PAID",
			"payment_date": "2024-02-20"
		},
		{
			"company_name": "No ID Company"
		}
	]`)

	invoices, err := LoadInvoices(path, logger.GetGlobalLogger())
	if err != nil {
		t.Fatalf("LoadInvoices failed: %v", err)
	}
	if len(invoices) != 2 {
		t.Fatalf("expected 2 invoices (record without ID dropped), got %d", len(invoices))
	}

	first := invoices[0]
	if first.Amount.StringFixed(2) != "1000.00" {
		t.Errorf("amount = %s, want 1000.00", first.Amount)
	}
	if !first.IsOpen() {
		t.Error("first invoice should be open")
	}

	second := invoices[1]
	if !second.IsPaid() {
		t.Error("second invoice should be paid")
	}
	// Missing balance_due falls back to the invoice amount.
	if second.BalanceDue.StringFixed(2) != "500.00" {
		t.Errorf("balance due = %s, want 500.00", second.BalanceDue)
	}
}

func TestLoadInvoicesToleratesBadFields(t *testing.T) {
	path := writeFixture(t, "invoices.json", `[
		{
			"id": "inv-1",
			"company_name": "Acme Corp",
			"amount": "not a number",
			"due_date": "not a date",
			"status": "unpaid"
		}
	]`)

	invoices, err := LoadInvoices(path, logger.GetGlobalLogger())
	if err != nil {
		t.Fatalf("LoadInvoices failed: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected the record to survive with defaults, got %d invoices", len(invoices))
	}
	if !invoices[0].Amount.IsZero() {
		t.Errorf("bad amount should default to zero, got %s", invoices[0].Amount)
	}
	if !invoices[0].DueDate.IsZero() {
		t.Error("bad due date should default to unknown")
	}
}

func TestLoadInvoicesMissingFile(t *testing.T) {
	if _, err := LoadInvoices("/nonexistent/invoices.json", logger.GetGlobalLogger()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadInvoicesCorruptFile(t *testing.T) {
	path := writeFixture(t, "invoices.json", `{not json`)
	if _, err := LoadInvoices(path, logger.GetGlobalLogger()); err == nil {
		t.Error("expected an error for a corrupt file")
	}
}

func TestLoadTransactions(t *testing.T) {
	path := writeFixture(t, "transactions.json", `[
		{
			"transaction_id": "tx-1",
			"date": "2024-03-05",
			"amount": "-984.50",
			"description": "WIRE SUNRISE PROPERTIES",
			"is_credit": true
		},
		{
			"transaction_id": "tx-2",
			"description": ""
		}
	]`)

	transactions, err := LoadTransactions(path, logger.GetGlobalLogger())
	if err != nil {
		t.Fatalf("LoadTransactions failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction (empty description dropped), got %d", len(transactions))
	}

	tx := transactions[0]
	// Credits are sign-normalized to positive.
	if tx.Amount.StringFixed(2) != "984.50" {
		t.Errorf("amount = %s, want 984.50", tx.Amount)
	}
	if tx.Date.IsZero() {
		t.Error("date should be parsed")
	}
}
