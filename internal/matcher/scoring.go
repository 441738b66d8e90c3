package matcher

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ar-collections-service/internal/models"
)

// scoreAmount compares transaction and invoice amounts with tiered tolerance.
// Small deductions from processor fees still score well; an expected invoice
// amount is a stronger baseline than the balance due when the invoice has
// been partially paid.
func scoreAmount(transAmount, invoiceAmount decimal.Decimal) float64 {
	if invoiceAmount.IsZero() {
		return 0
	}

	diff := transAmount.Sub(invoiceAmount).Abs()
	if diff.LessThan(decimal.NewFromInt(1)) {
		return 100
	}

	pct, _ := diff.Div(invoiceAmount.Abs()).Float64()
	switch {
	case pct < 0.01:
		return 95
	case pct < 0.02:
		return 85
	case pct < 0.05:
		return 70
	case pct < 0.10:
		return 50
	default:
		return 0
	}
}

// scoreDate scores the delay between invoice creation and payment arrival.
// Missing dates are a weak neutral signal; a payment dated before the invoice
// was created is disqualifying.
func scoreDate(transDate, invoiceDate time.Time) float64 {
	if transDate.IsZero() || invoiceDate.IsZero() {
		return 20
	}

	days := transDate.Sub(invoiceDate).Hours() / 24
	switch {
	case days < 0:
		return 0
	case days <= 30:
		return 100
	case days <= 60:
		return 90
	case days <= 90:
		return 80
	case days <= 120:
		return 60
	default:
		return 30
	}
}

// scoreInvoiceNumber checks whether the invoice number appears in the
// transaction description. All-or-nothing: references are either present
// or absent.
func scoreInvoiceNumber(description, invoiceNumber string) float64 {
	if invoiceNumber == "" {
		return 0
	}
	if strings.Contains(strings.ToUpper(description), strings.ToUpper(invoiceNumber)) {
		return 100
	}
	return 0
}

// scoreMemory checks the learned association memory: if the transaction
// description contains a learned token whose company token and the invoice
// company contain each other, the association fires.
func (e *Engine) scoreMemory(description, companyName string) float64 {
	transDesc := CleanCompanyName(description)
	company := CleanCompanyName(companyName)
	if transDesc == "" || company == "" {
		return 0
	}

	for token, learnedCompany := range e.associations {
		if !strings.Contains(transDesc, token) {
			continue
		}
		if strings.Contains(company, learnedCompany) || strings.Contains(learnedCompany, company) {
			return 100
		}
	}
	return 0
}

// componentScores holds the per-signal scores feeding the confidence blend.
type componentScores struct {
	Memory        float64
	Amount        float64
	Name          float64
	Date          float64
	InvoiceNumber float64
}

// blendConfidence combines component scores into a final 0-100 confidence.
//
// A very strong name plus amount agreement short-circuits the weighted blend:
// that pairing is near-certain regardless of the weaker signals. Otherwise a
// fired memory association dominates the weights; without one the amount and
// name carry the score. A detected payment processor adds a small bonus.
func (e *Engine) blendConfidence(s componentScores, processor *Processor) float64 {
	var confidence float64

	if s.Name >= 95 && s.Amount >= 85 {
		confidence = 85 + 0.1*s.Name + 0.05*s.Amount
		if confidence > 100 {
			confidence = 100
		}
	} else {
		w := e.config.DirectWeights
		if s.Memory > 0 {
			w = e.config.MemoryWeights
		}
		confidence = s.Memory*w.Memory +
			s.Amount*w.Amount +
			s.Name*w.Name +
			s.Date*w.Date +
			s.InvoiceNumber*w.InvoiceNumber
	}

	if processor != nil {
		confidence += e.config.ProcessorBonus
		if confidence > 100 {
			confidence = 100
		}
	}

	return math.Round(confidence*100) / 100
}

// scoreCandidate computes all component scores for a transaction/invoice pair
// and blends them into a confidence.
func (e *Engine) scoreCandidate(t *models.Transaction, inv *models.Invoice) (float64, componentScores) {
	scores := componentScores{
		Memory:        e.scoreMemory(t.Description, inv.CompanyName),
		Amount:        scoreAmount(t.Amount, inv.Amount),
		Name:          e.scoreName(t.Description, inv.CompanyName),
		Date:          scoreDate(t.Date, inv.CreatedDate),
		InvoiceNumber: scoreInvoiceNumber(t.Description, inv.Number),
	}
	return e.blendConfidence(scores, DetectProcessor(t)), scores
}
