package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain decimal", "1234.56", "1234.56", false},
		{"currency symbol", "$1,234.56", "1234.56", false},
		{"negative", "-42.00", "-42", false},
		{"whitespace", "  99.95  ", "99.95", false},
		{"empty", "", "", true},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAmount(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) failed: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, expected)
			}
		})
	}
}

func TestParseDateLenient(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-03-15", true},
		{"2024-03-15T10:30:00Z", true},
		{"03/15/2024", true},
		{"Mar 15, 2024", true},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		if _, ok := ParseDateLenient(tt.input); ok != tt.ok {
			t.Errorf("ParseDateLenient(%q) ok = %v, want %v", tt.input, ok, tt.ok)
		}
	}
}

func TestNormalizeSign(t *testing.T) {
	credit := Transaction{Amount: decimal.NewFromInt(-100), IsCredit: true}
	credit.NormalizeSign()
	if !credit.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("credit amount = %s, want 100", credit.Amount)
	}

	debit := Transaction{Amount: decimal.NewFromInt(100), IsCredit: false}
	debit.NormalizeSign()
	if !debit.Amount.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("debit amount = %s, want -100", debit.Amount)
	}
}

func TestInvoiceIsOpen(t *testing.T) {
	paid := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		invoice Invoice
		open    bool
	}{
		{
			"unpaid with balance",
			Invoice{BalanceDue: decimal.NewFromInt(100), Status: StatusUnpaid},
			true,
		},
		{
			"unknown status with balance",
			Invoice{BalanceDue: decimal.NewFromInt(100), Status: StatusUnknown},
			true,
		},
		{
			"zero balance",
			Invoice{BalanceDue: decimal.Zero, Status: StatusUnpaid},
			false,
		},
		{
			"payment recorded",
			Invoice{BalanceDue: decimal.NewFromInt(100), Status: StatusUnpaid, PaymentDate: &paid},
			false,
		},
		{
			"paid status",
			Invoice{BalanceDue: decimal.NewFromInt(100), Status: StatusPaid},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invoice.IsOpen(); got != tt.open {
				t.Errorf("IsOpen() = %v, want %v", got, tt.open)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := NormalizeStatus("  unpaid "); got != StatusUnpaid {
		t.Errorf("NormalizeStatus = %q, want %q", got, StatusUnpaid)
	}
	if !NormalizeStatus("outstanding").IsOpenStatus() {
		t.Error("OUTSTANDING should count as open")
	}
	if NormalizeStatus("PAID").IsOpenStatus() {
		t.Error("PAID should not count as open")
	}
}

func TestNewCommunicationRecordAssignsID(t *testing.T) {
	rec := NewCommunicationRecord("inv-1", "Acme", MethodEmail, "reminder_level_1", time.Now(), "")
	if rec.ID == "" {
		t.Error("expected a generated record ID")
	}
	other := NewCommunicationRecord("inv-1", "Acme", MethodEmail, "reminder_level_1", time.Now(), "")
	if rec.ID == other.ID {
		t.Error("expected unique record IDs")
	}
}
