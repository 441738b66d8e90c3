// Package matcher provides the transaction-to-invoice matching engine.
//
// The engine pairs incoming bank transactions with open invoices using a
// blend of signals:
//   - Learned associations between transaction descriptions and companies
//   - Amount proximity with tiered tolerance for processor fees
//   - Company-name similarity (exact, fuzzy substring, word overlap)
//   - Date proximity relative to invoice creation
//   - Invoice numbers embedded in the transaction description
//
// Matching is greedy: each transaction takes its best-scoring invoice, and a
// consumed invoice is unavailable to later transactions. Previously denied
// pairings are never suggested again, and transactions already marked as
// accounted are excluded from the candidate pool.
//
// Example usage:
//
//	engine, err := matcher.NewEngine(matcher.DefaultConfig(), memStore, log)
//	matches := engine.MatchTransactionsToInvoices(transactions, invoices, 70)
package matcher

import "fmt"

// Weights defines the relative importance of each matching signal when
// blending the final confidence score.
type Weights struct {
	Memory        float64 `json:"memory"`
	Amount        float64 `json:"amount"`
	Name          float64 `json:"name"`
	Date          float64 `json:"date"`
	InvoiceNumber float64 `json:"invoice_number"`
}

// Validate checks that each weight is a sane fraction and that the weights
// sum to approximately 1.0.
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{
		"memory":         w.Memory,
		"amount":         w.Amount,
		"name":           w.Name,
		"date":           w.Date,
		"invoice_number": w.InvoiceNumber,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, v)
		}
	}

	total := w.Memory + w.Amount + w.Name + w.Date + w.InvoiceNumber
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}
	return nil
}

// Config holds tunable parameters for the matching engine. The score tiers
// themselves (amount, name, date) are fixed; the config controls thresholds,
// blend weights, and learning behavior.
type Config struct {
	// ConfidenceThreshold is the default minimum confidence (0-100) for an
	// accepted match when the caller does not supply one.
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// CandidateFloor is the minimum blended confidence for an invoice to be
	// considered a candidate at all.
	CandidateFloor float64 `json:"candidate_floor"`

	// MemoryWeights are used when a learned association fires.
	MemoryWeights Weights `json:"memory_weights"`

	// DirectWeights are used when no learned association applies.
	DirectWeights Weights `json:"direct_weights"`

	// ProcessorBonus is added to the confidence when a known payment
	// processor is detected in the transaction description, capped at 100.
	ProcessorBonus float64 `json:"processor_bonus"`

	// FuzzyWordThreshold is the similarity ratio (0-100) above which two
	// words are treated as the same word with a typo.
	FuzzyWordThreshold int `json:"fuzzy_word_threshold"`

	// SuggestionLimit caps the number of association suggestions returned
	// from historical analysis.
	SuggestionLimit int `json:"suggestion_limit"`
}

// DefaultConfig returns a configuration with the production defaults.
func DefaultConfig() *Config {
	return &Config{
		ConfidenceThreshold: 70.0,
		CandidateFloor:      50.0,
		MemoryWeights: Weights{
			Memory:        0.5,
			Amount:        0.3,
			Name:          0.1,
			Date:          0.05,
			InvoiceNumber: 0.05,
		},
		DirectWeights: Weights{
			Memory:        0.0,
			Amount:        0.35,
			Name:          0.40,
			Date:          0.15,
			InvoiceNumber: 0.10,
		},
		ProcessorBonus:     5.0,
		FuzzyWordThreshold: 80,
		SuggestionLimit:    20,
	}
}

// Validate checks if the matching configuration is valid.
func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0.0 || c.ConfidenceThreshold > 100.0 {
		return fmt.Errorf("confidence threshold must be between 0 and 100: %f", c.ConfidenceThreshold)
	}
	if c.CandidateFloor < 0.0 || c.CandidateFloor > 100.0 {
		return fmt.Errorf("candidate floor must be between 0 and 100: %f", c.CandidateFloor)
	}
	if c.ProcessorBonus < 0.0 {
		return fmt.Errorf("processor bonus cannot be negative: %f", c.ProcessorBonus)
	}
	if c.FuzzyWordThreshold < 0 || c.FuzzyWordThreshold > 100 {
		return fmt.Errorf("fuzzy word threshold must be between 0 and 100: %d", c.FuzzyWordThreshold)
	}
	if c.SuggestionLimit <= 0 {
		return fmt.Errorf("suggestion limit must be positive: %d", c.SuggestionLimit)
	}

	if err := c.MemoryWeights.Validate(); err != nil {
		return fmt.Errorf("invalid memory weights: %w", err)
	}
	if err := c.DirectWeights.Validate(); err != nil {
		return fmt.Errorf("invalid direct weights: %w", err)
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Threshold: %.1f, Floor: %.1f, ProcessorBonus: %.1f}",
		c.ConfidenceThreshold, c.CandidateFloor, c.ProcessorBonus)
}
