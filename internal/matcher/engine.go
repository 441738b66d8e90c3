package matcher

import (
	"sort"
	"strings"
	"sync"
	"time"

	"ar-collections-service/internal/models"
	"ar-collections-service/internal/store"
	apperrors "ar-collections-service/pkg/errors"
	"ar-collections-service/pkg/logger"
)

// Match represents a proposed pairing between a bank transaction and an open
// invoice, with the blended confidence and the component scores that produced
// it.
type Match struct {
	Transaction *models.Transaction `json:"transaction"`
	Invoice     *models.Invoice     `json:"invoice"`
	Confidence  float64             `json:"confidence"`
	Reasons     MatchReasons        `json:"reasons"`
}

// MatchReasons exposes the per-signal scores behind a match so a reviewer can
// see why the engine proposed it.
type MatchReasons struct {
	MemoryScore        float64 `json:"memory_score"`
	AmountScore        float64 `json:"amount_score"`
	NameScore          float64 `json:"name_score"`
	DateScore          float64 `json:"date_score"`
	InvoiceNumberScore float64 `json:"invoice_number_score"`
	Processor          string  `json:"processor,omitempty"`
}

type deniedKey struct {
	description string
	invoiceID   string
}

// Engine matches transactions to invoices and manages the learning memory.
// The memory collections are held in maps loaded from the store at
// construction; mutations update the maps first and then persist, so a store
// failure degrades durability but never the current run.
type Engine struct {
	config *Config
	store  store.Store
	log    logger.Logger

	mu           sync.RWMutex
	associations map[string]string
	denied       map[deniedKey]bool
	accounted    map[string]bool
}

// NewEngine creates a matching engine backed by the given store. Store read
// failures at startup are logged and the engine begins with empty memory.
func NewEngine(config *Config, st store.Store, log logger.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfiguration,
			apperrors.CodeInvalidConfig, "invalid matcher configuration")
	}

	e := &Engine{
		config:       config,
		store:        st,
		log:          log.WithComponent("matcher"),
		associations: make(map[string]string),
		denied:       make(map[deniedKey]bool),
		accounted:    make(map[string]bool),
	}
	e.loadMemory()
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

func (e *Engine) loadMemory() {
	if e.store == nil {
		return
	}

	associations, err := e.store.LoadAssociations()
	if err != nil {
		e.log.WithError(err).Warn("Failed to load associations, starting with empty memory")
	}
	for _, a := range associations {
		e.associations[a.TransactionToken] = a.CompanyToken
	}

	denied, err := e.store.LoadDeniedMatches()
	if err != nil {
		e.log.WithError(err).Warn("Failed to load denied matches, starting with empty memory")
	}
	for _, d := range denied {
		e.denied[deniedKey{d.TransactionDescription, d.InvoiceID}] = true
	}

	accounted, err := e.store.LoadAccountedTransactions()
	if err != nil {
		e.log.WithError(err).Warn("Failed to load accounted transactions, starting with empty memory")
	}
	for _, a := range accounted {
		e.accounted[a.TransactionDescription] = true
	}

	e.log.WithFields(logger.Fields{
		"associations": len(e.associations),
		"denied":       len(e.denied),
		"accounted":    len(e.accounted),
	}).Debug("Loaded matching memory")
}

// MatchTransactionsToInvoices pairs credit transactions with open invoices.
// Matching is greedy: transactions are processed in order, each taking its
// best-scoring remaining invoice at or above the threshold. The threshold is
// honored as given, including zero.
//
// Transactions that are not credits, have non-positive amounts, or are
// already accounted for are skipped, as are invoices that are not open.
// Denied pairings are never proposed.
func (e *Engine) MatchTransactionsToInvoices(transactions []models.Transaction, invoices []models.Invoice, threshold float64) []Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	open := make([]*models.Invoice, 0, len(invoices))
	for i := range invoices {
		if invoices[i].IsOpen() {
			open = append(open, &invoices[i])
		}
	}

	var matches []Match
	matchedInvoices := make(map[string]bool)

	for i := range transactions {
		t := &transactions[i]
		if !t.IsCredit || !t.Amount.IsPositive() {
			continue
		}
		if e.accounted[t.Description] {
			e.log.WithField("transaction_id", t.ID).Debug("Skipping accounted transaction")
			continue
		}

		var (
			best       *models.Invoice
			bestScore  float64
			bestScores componentScores
		)
		for _, inv := range open {
			if matchedInvoices[inv.ID] {
				continue
			}
			if e.denied[deniedKey{t.Description, inv.ID}] {
				continue
			}

			confidence, scores := e.scoreCandidate(t, inv)
			if confidence <= e.config.CandidateFloor {
				continue
			}
			if confidence > bestScore {
				best = inv
				bestScore = confidence
				bestScores = scores
			}
		}

		if best == nil || bestScore < threshold {
			continue
		}

		matchedInvoices[best.ID] = true
		reasons := MatchReasons{
			MemoryScore:        bestScores.Memory,
			AmountScore:        bestScores.Amount,
			NameScore:          bestScores.Name,
			DateScore:          bestScores.Date,
			InvoiceNumberScore: bestScores.InvoiceNumber,
		}
		if p := DetectProcessor(t); p != nil {
			reasons.Processor = p.Name
		}
		matches = append(matches, Match{
			Transaction: t,
			Invoice:     best,
			Confidence:  bestScore,
			Reasons:     reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	e.log.WithFields(logger.Fields{
		"transactions": len(transactions),
		"invoices":     len(open),
		"matches":      len(matches),
	}).Info("Completed matching run")

	return matches
}

// LearnAssociation records that a transaction token belongs to a company.
// Both sides are normalized before storage; relearning a token overwrites the
// previous company (last write wins).
func (e *Engine) LearnAssociation(transactionToken, companyName string) error {
	token := CleanCompanyName(transactionToken)
	company := CleanCompanyName(companyName)
	if token == "" || company == "" {
		return apperrors.New(apperrors.CategoryValidation, apperrors.CodeMissingField,
			"association requires both a transaction token and a company name")
	}

	e.mu.Lock()
	e.associations[token] = company
	e.mu.Unlock()

	e.log.WithFields(logger.Fields{
		"token":   token,
		"company": company,
	}).Info("Learned association")

	if e.store == nil {
		return nil
	}
	return e.store.SaveAssociation(models.Association{
		TransactionToken: token,
		CompanyToken:     company,
		LearnedAt:        time.Now(),
	})
}

// DenyMatch records that a transaction must never be paired with an invoice.
// Denying the same pair again is a no-op.
func (e *Engine) DenyMatch(transactionDescription, invoiceID string) error {
	if transactionDescription == "" || invoiceID == "" {
		return apperrors.New(apperrors.CategoryValidation, apperrors.CodeMissingField,
			"denial requires both a transaction description and an invoice ID")
	}

	key := deniedKey{transactionDescription, invoiceID}
	e.mu.Lock()
	already := e.denied[key]
	e.denied[key] = true
	e.mu.Unlock()

	if already {
		return nil
	}

	e.log.WithFields(logger.Fields{
		"invoice_id":  invoiceID,
		"description": truncate(transactionDescription, 60),
	}).Info("Denied match")

	if e.store == nil {
		return nil
	}
	return e.store.AppendDeniedMatch(models.DeniedMatch{
		TransactionDescription: transactionDescription,
		InvoiceID:              invoiceID,
		DeniedAt:               time.Now(),
	})
}

// MarkTransactionAccounted records a transaction as handled so future matching
// runs skip it. A transaction already accounted for is a no-op.
func (e *Engine) MarkTransactionAccounted(t models.Transaction, companyName, invoiceID string) error {
	if t.Description == "" {
		return apperrors.New(apperrors.CategoryValidation, apperrors.CodeMissingField,
			"accounted transaction requires a description")
	}

	e.mu.Lock()
	already := e.accounted[t.Description]
	e.accounted[t.Description] = true
	e.mu.Unlock()

	if already {
		return nil
	}

	e.log.WithFields(logger.Fields{
		"transaction_id": t.ID,
		"company":        companyName,
	}).Info("Marked transaction as accounted")

	if e.store == nil {
		return nil
	}
	return e.store.AppendAccountedTransaction(models.AccountedTransaction{
		TransactionDescription: t.Description,
		TransactionID:          t.ID,
		Amount:                 t.Amount,
		Date:                   t.Date,
		CompanyName:            companyName,
		InvoiceID:              invoiceID,
		AccountedAt:            time.Now(),
	})
}

// IsTransactionAccounted reports whether a transaction description is already
// recorded as handled.
func (e *Engine) IsTransactionAccounted(description string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accounted[description]
}

// IsMatchDenied reports whether a transaction/invoice pairing was denied.
func (e *Engine) IsMatchDenied(transactionDescription, invoiceID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.denied[deniedKey{transactionDescription, invoiceID}]
}

// Associations returns a copy of the learned association memory.
func (e *Engine) Associations() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]string, len(e.associations))
	for k, v := range e.associations {
		out[k] = v
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
