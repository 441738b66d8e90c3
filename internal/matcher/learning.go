package matcher

import (
	"regexp"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/shopspring/decimal"

	"ar-collections-service/internal/models"
	"ar-collections-service/pkg/logger"
)

// AssociationSuggestion proposes a learnable token/company pairing derived
// from a historical payment that lines up with a paid invoice.
type AssociationSuggestion struct {
	TransactionToken       string  `json:"transaction_token"`
	CompanyName            string  `json:"company_name"`
	Confidence             float64 `json:"confidence"`
	TransactionDescription string  `json:"transaction_description"`
	InvoiceID              string  `json:"invoice_id"`
	AmountDiffPercent      float64 `json:"amount_diff_percent"`
	DaysApart              float64 `json:"days_apart"`
}

// companyExtractors pull the originating company out of structured bank
// descriptions. Tried in order; the first capture wins.
var companyExtractors = []*regexp.Regexp{
	regexp.MustCompile(`ORIG CO NAME:([^O]+?)(?:ORIG|$)`),
	regexp.MustCompile(`B/O:\s*([^R]+?)(?:REF:|$)`),
	regexp.MustCompile(`FROM:\s*([^R]+?)(?:REF:|$)`),
}

var (
	origIDTail = regexp.MustCompile(`\s+ORIG ID:.*`)
	longDigits = regexp.MustCompile(`\s+\d{9,}`)
)

// extractCompanyFromTransaction pulls a company token out of a raw bank
// description. Wire and ACH descriptions embed the originator in a few known
// layouts; when none match, a prefix of the description is the token.
func extractCompanyFromTransaction(description string) string {
	for _, re := range companyExtractors {
		if m := re.FindStringSubmatch(description); m != nil {
			token := strings.TrimSpace(m[1])
			token = origIDTail.ReplaceAllString(token, "")
			token = longDigits.ReplaceAllString(token, "")
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if len(description) > 50 {
		return strings.TrimSpace(description[:50])
	}
	return strings.TrimSpace(description)
}

// SuggestAssociationsFromHistory pairs historical credit transactions with
// paid invoices that landed within thirty days and twenty percent of the
// invoice amount, and proposes the extracted company tokens as associations.
// Tokens already learned are skipped. Results are deduplicated, sorted by
// confidence, and capped at the configured suggestion limit.
func (e *Engine) SuggestAssociationsFromHistory(transactions []models.Transaction, invoices []models.Invoice) []AssociationSuggestion {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var suggestions []AssociationSuggestion

	for i := range invoices {
		inv := &invoices[i]
		if !inv.IsPaid() || inv.PaymentDate == nil {
			continue
		}

		for j := range transactions {
			t := &transactions[j]
			if !t.IsCredit || !t.Amount.IsPositive() {
				continue
			}

			daysApart := t.Date.Sub(*inv.PaymentDate).Hours() / 24
			if daysApart < 0 {
				daysApart = -daysApart
			}
			if daysApart > 30 {
				continue
			}

			if inv.Amount.IsZero() {
				continue
			}
			diffPct, _ := t.Amount.Sub(inv.Amount).Abs().
				Div(inv.Amount.Abs()).Mul(decimal.NewFromInt(100)).Float64()
			if diffPct >= 20 {
				continue
			}

			token := extractCompanyFromTransaction(t.Description)
			cleanToken := CleanCompanyName(token)
			if cleanToken == "" {
				continue
			}
			if _, known := e.associations[cleanToken]; known {
				continue
			}

			similarity := float64(fuzzy.PartialRatio(cleanToken, CleanCompanyName(inv.CompanyName)))
			if similarity <= 30 {
				continue
			}

			dateScore := 100 - 3*daysApart
			if dateScore < 0 {
				dateScore = 0
			}
			confidence := similarity*0.5 + (100-diffPct)*0.3 + dateScore*0.2

			suggestions = append(suggestions, AssociationSuggestion{
				TransactionToken:       token,
				CompanyName:            inv.CompanyName,
				Confidence:             confidence,
				TransactionDescription: t.Description,
				InvoiceID:              inv.ID,
				AmountDiffPercent:      diffPct,
				DaysApart:              daysApart,
			})
		}
	}

	seen := make(map[string]bool)
	deduped := suggestions[:0]
	for _, s := range suggestions {
		key := strings.ToLower(s.TransactionToken) + "|" + strings.ToLower(s.CompanyName)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, s)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Confidence > deduped[j].Confidence
	})
	if len(deduped) > e.config.SuggestionLimit {
		deduped = deduped[:e.config.SuggestionLimit]
	}

	e.log.WithField("suggestions", len(deduped)).Info("Generated association suggestions from history")
	return deduped
}

// PaymentValidationStatus classifies the outcome of a company payment check.
type PaymentValidationStatus string

const (
	PaymentBalanced PaymentValidationStatus = "balanced"
	PaymentShort    PaymentValidationStatus = "short"
	PaymentOver     PaymentValidationStatus = "over"
)

// PaymentValidation summarizes whether a company's received payments cover
// its paid invoices.
type PaymentValidation struct {
	CompanyName           string                  `json:"company_name"`
	TotalInvoiced         decimal.Decimal         `json:"total_invoiced"`
	TotalReceived         decimal.Decimal         `json:"total_received"`
	Difference            decimal.Decimal         `json:"difference"`
	Tolerance             decimal.Decimal         `json:"tolerance"`
	Status                PaymentValidationStatus `json:"status"`
	MatchedTransactions   []models.Transaction    `json:"matched_transactions"`
	AccountedTransactions []models.Transaction    `json:"accounted_transactions"`
}

// ValidateCompanyPayments sums the paid invoices for a company and the credit
// transactions attributable to it, then classifies the balance. The tolerance
// is one percent of the invoiced total, floored at five dollars, to absorb
// processor fees. Transactions already marked as accounted are reported
// separately from new ones.
func (e *Engine) ValidateCompanyPayments(companyName string, transactions []models.Transaction, invoices []models.Invoice) PaymentValidation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	totalInvoiced := decimal.Zero
	for i := range invoices {
		if invoices[i].CompanyName == companyName && invoices[i].IsPaid() {
			totalInvoiced = totalInvoiced.Add(invoices[i].Amount)
		}
	}

	cleanCompany := CleanCompanyName(companyName)
	totalReceived := decimal.Zero
	var matched, accounted []models.Transaction
	for i := range transactions {
		t := transactions[i]
		if !t.IsCredit || !t.Amount.IsPositive() {
			continue
		}
		if fuzzy.PartialRatio(cleanCompany, CleanCompanyName(t.Description)) < 80 {
			continue
		}

		totalReceived = totalReceived.Add(t.Amount)
		if e.accounted[t.Description] {
			accounted = append(accounted, t)
		} else {
			matched = append(matched, t)
		}
	}

	onePercent := totalInvoiced.Mul(decimal.NewFromFloat(0.01)).Abs()
	tolerance := decimal.NewFromInt(5)
	if onePercent.GreaterThan(tolerance) {
		tolerance = onePercent
	}

	difference := totalReceived.Sub(totalInvoiced)
	status := PaymentBalanced
	if difference.Abs().GreaterThan(tolerance) {
		if difference.IsNegative() {
			status = PaymentShort
		} else {
			status = PaymentOver
		}
	}

	return PaymentValidation{
		CompanyName:           companyName,
		TotalInvoiced:         totalInvoiced,
		TotalReceived:         totalReceived,
		Difference:            difference,
		Tolerance:             tolerance,
		Status:                status,
		MatchedTransactions:   matched,
		AccountedTransactions: accounted,
	}
}

// AutoAccountHistoricalTransactions finds credit transactions that line up
// tightly with paid invoices and, when approve is set, marks them as
// accounted. Without approval only the proposed pairings are returned.
func (e *Engine) AutoAccountHistoricalTransactions(transactions []models.Transaction, invoices []models.Invoice, approve bool) []Match {
	var proposals []Match

	matchedInvoices := make(map[string]bool)
	for i := range transactions {
		t := &transactions[i]
		if !t.IsCredit || !t.Amount.IsPositive() || e.IsTransactionAccounted(t.Description) {
			continue
		}

		for j := range invoices {
			inv := &invoices[j]
			if !inv.IsPaid() || matchedInvoices[inv.ID] {
				continue
			}

			amount := scoreAmount(t.Amount, inv.Amount)
			name := e.scoreName(t.Description, inv.CompanyName)
			if amount < 95 || name < 80 {
				continue
			}

			matchedInvoices[inv.ID] = true
			proposals = append(proposals, Match{
				Transaction: t,
				Invoice:     inv,
				Confidence:  e.blendConfidence(componentScores{Amount: amount, Name: name}, DetectProcessor(t)),
				Reasons:     MatchReasons{AmountScore: amount, NameScore: name},
			})
			break
		}
	}

	if approve {
		for _, p := range proposals {
			if err := e.MarkTransactionAccounted(*p.Transaction, p.Invoice.CompanyName, p.Invoice.ID); err != nil {
				e.log.WithError(err).WithField("transaction_id", p.Transaction.ID).
					Warn("Failed to persist accounted transaction")
			}
		}
	}

	e.log.WithFields(logger.Fields{
		"proposals": len(proposals),
		"approved":  approve,
	}).Info("Completed historical accounting pass")

	return proposals
}
