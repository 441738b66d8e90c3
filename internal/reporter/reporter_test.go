package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ar-collections-service/internal/composer"
	"ar-collections-service/internal/escalation"
	"ar-collections-service/internal/matcher"
	"ar-collections-service/internal/models"
	"ar-collections-service/internal/service"
)

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		format      OutputFormat
		expectError bool
	}{
		{"console format", FormatConsole, false},
		{"json format", FormatJSON, false},
		{"invalid format", "yaml", true},
		{"empty format", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.format)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Errorf("expected generator but got nil")
			}
		})
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatConsole, true},
		{FormatJSON, true},
		{"csv", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.format.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.format, got, tt.valid)
		}
	}
}

func sampleReport() *service.CollectionsReport {
	action := escalation.EscalationAction{
		ContactEmail:    "dana@example.com",
		CompanyNames:    []string{"Acme Corp"},
		Action:          escalation.ActionEmail,
		EscalationLevel: 2,
		TotalBalance:    decimal.NewFromInt(1500),
		MaxDaysOverdue:  21,
	}
	return &service.CollectionsReport{
		Result: escalation.AnalysisResult{
			Summary: escalation.AnalysisSummary{
				InvoicesAnalyzed: 3,
				AutonomousEmails: 1,
				NoAction:         2,
			},
			Analyses:         make([]escalation.InvoiceAnalysis, 3),
			AutonomousEmails: []escalation.EscalationAction{action},
			NoActionCount:    2,
		},
		AutonomousEmails: []service.OutreachMessage{
			{
				Action:  action,
				Message: composer.Message{Subject: "Follow-up: outstanding invoices", Body: "body"},
				Sent:    true,
			},
		},
		SentCount: 1,
	}
}

func TestWriteCollectionsReportConsole(t *testing.T) {
	generator, err := NewReportGenerator(FormatConsole)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.WriteCollectionsReport(sampleReport(), &buf); err != nil {
		t.Fatalf("WriteCollectionsReport failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"COLLECTIONS ANALYSIS",
		"Invoices analyzed:    3",
		"Autonomous emails:    1",
		"No action needed:     2",
		"Messages sent:        1",
		"AUTONOMOUS EMAILS",
		"dana@example.com",
		"[sent]",
		"Subject: Follow-up: outstanding invoices",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q\noutput:\n%s", want, output)
		}
	}
	if strings.Contains(output, "PENDING APPROVALS") {
		t.Error("empty sections should be omitted")
	}
}

func TestWriteCollectionsReportJSON(t *testing.T) {
	generator, err := NewReportGenerator(FormatJSON)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.WriteCollectionsReport(sampleReport(), &buf); err != nil {
		t.Fatalf("WriteCollectionsReport failed: %v", err)
	}

	var decoded service.CollectionsReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.SentCount != 1 {
		t.Errorf("sent_count = %d, want 1", decoded.SentCount)
	}
	if len(decoded.AutonomousEmails) != 1 {
		t.Errorf("autonomous_emails length = %d, want 1", len(decoded.AutonomousEmails))
	}
}

func TestWriteCollectionsReportNil(t *testing.T) {
	generator, _ := NewReportGenerator(FormatConsole)
	if err := generator.WriteCollectionsReport(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestWriteMatchReportConsole(t *testing.T) {
	generator, _ := NewReportGenerator(FormatConsole)

	matches := []matcher.Match{
		{
			Transaction: &models.Transaction{
				ID:     "tx-1",
				Amount: decimal.NewFromFloat(984.50),
			},
			Invoice: &models.Invoice{
				ID:          "inv-1",
				CompanyName: "Sunrise Properties LLC",
				Amount:      decimal.NewFromInt(1000),
			},
			Confidence: 99.25,
			Reasons: matcher.MatchReasons{
				AmountScore: 85,
				NameScore:   100,
				DateScore:   100,
				Processor:   "wire",
			},
		},
	}

	var buf bytes.Buffer
	if err := generator.WriteMatchReport(matches, &buf); err != nil {
		t.Fatalf("WriteMatchReport failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"TRANSACTION MATCHES",
		"99.25%",
		"tx-1 -> inv-1",
		"Sunrise Properties LLC",
		"processor=wire",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q\noutput:\n%s", want, output)
		}
	}
}

func TestWriteMatchReportEmpty(t *testing.T) {
	generator, _ := NewReportGenerator(FormatConsole)

	var buf bytes.Buffer
	if err := generator.WriteMatchReport(nil, &buf); err != nil {
		t.Fatalf("WriteMatchReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No matches found.") {
		t.Error("empty match list should say so")
	}
}

func TestWriteValidationConsole(t *testing.T) {
	generator, _ := NewReportGenerator(FormatConsole)

	v := &matcher.PaymentValidation{
		CompanyName:   "Acme Corp",
		TotalInvoiced: decimal.NewFromInt(1000),
		TotalReceived: decimal.NewFromInt(990),
		Difference:    decimal.NewFromInt(10),
		Tolerance:     decimal.NewFromInt(10),
		Status:        matcher.PaymentBalanced,
	}

	var buf bytes.Buffer
	if err := generator.WriteValidation(v, &buf); err != nil {
		t.Fatalf("WriteValidation failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"PAYMENT VALIDATION: Acme Corp",
		"Total invoiced:  $1000.00",
		"Total received:  $990.00",
		"Status:          BALANCED",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q\noutput:\n%s", want, output)
		}
	}
}

func TestWriteValidationNil(t *testing.T) {
	generator, _ := NewReportGenerator(FormatJSON)
	if err := generator.WriteValidation(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil validation")
	}
}
