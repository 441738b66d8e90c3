// Package parsers loads invoices and transactions from JSON exports. Parsing
// is lenient: malformed amounts or dates on a record degrade to neutral
// values with a warning, and only structurally broken files abort a load.
package parsers

import (
	"encoding/json"
	"os"

	"ar-collections-service/internal/models"
	apperrors "ar-collections-service/pkg/errors"
	"ar-collections-service/pkg/logger"
)

// rawInvoice matches the upstream invoice export, with amounts and dates as
// strings so quality problems surface here at the boundary and nowhere else.
type rawInvoice struct {
	ID           string `json:"id"`
	Number       string `json:"number"`
	CompanyName  string `json:"company_name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Amount       string `json:"amount"`
	BalanceDue   string `json:"balance_due"`
	DueDate      string `json:"due_date"`
	CreatedDate  string `json:"created_date"`
	PaymentDate  string `json:"payment_date"`
	Status       string `json:"status"`
}

type rawTransaction struct {
	ID          string `json:"transaction_id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	IsCredit    bool   `json:"is_credit"`
}

// LoadInvoices reads an invoice export file. Records missing an ID are
// dropped; bad amounts default to zero and bad dates to unknown, each with a
// warning naming the record.
func LoadInvoices(path string, log logger.Logger) ([]models.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
	}

	var raw []rawInvoice
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}

	log = log.WithComponent("parser")
	invoices := make([]models.Invoice, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			log.WithField("record", i).Warn("Dropping invoice without an ID")
			continue
		}

		inv := models.Invoice{
			ID:           r.ID,
			Number:       r.Number,
			CompanyName:  r.CompanyName,
			ContactName:  r.ContactName,
			ContactEmail: r.ContactEmail,
			Status:       models.NormalizeStatus(r.Status),
		}

		if r.Amount != "" {
			if amount, err := models.ParseAmount(r.Amount); err == nil {
				inv.Amount = amount
			} else {
				log.WithField("invoice_id", r.ID).WithError(err).Warn("Invalid invoice amount, defaulting to zero")
			}
		}
		if r.BalanceDue != "" {
			if balance, err := models.ParseAmount(r.BalanceDue); err == nil {
				inv.BalanceDue = balance
			} else {
				log.WithField("invoice_id", r.ID).WithError(err).Warn("Invalid balance due, defaulting to zero")
			}
		} else {
			inv.BalanceDue = inv.Amount
		}

		if due, ok := models.ParseDateLenient(r.DueDate); ok {
			inv.DueDate = due
		} else if r.DueDate != "" {
			log.WithField("invoice_id", r.ID).Warn("Invalid due date, treating as unknown")
		}
		if created, ok := models.ParseDateLenient(r.CreatedDate); ok {
			inv.CreatedDate = created
		}
		if paid, ok := models.ParseDateLenient(r.PaymentDate); ok {
			inv.PaymentDate = &paid
		}

		invoices = append(invoices, inv)
	}

	log.WithFields(logger.Fields{
		"path":     path,
		"invoices": len(invoices),
		"dropped":  len(raw) - len(invoices),
	}).Info("Loaded invoices")

	return invoices, nil
}

// LoadTransactions reads a bank transaction export file. Records missing an
// ID or description are dropped; bad amounts default to zero and bad dates to
// unknown.
func LoadTransactions(path string, log logger.Logger) ([]models.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
	}

	var raw []rawTransaction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}

	log = log.WithComponent("parser")
	transactions := make([]models.Transaction, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" || r.Description == "" {
			log.WithField("record", i).Warn("Dropping transaction without an ID or description")
			continue
		}

		t := models.Transaction{
			ID:          r.ID,
			Description: r.Description,
			IsCredit:    r.IsCredit,
		}

		if r.Amount != "" {
			if amount, err := models.ParseAmount(r.Amount); err == nil {
				t.Amount = amount
			} else {
				log.WithField("transaction_id", r.ID).WithError(err).Warn("Invalid transaction amount, defaulting to zero")
			}
		}
		if date, ok := models.ParseDateLenient(r.Date); ok {
			t.Date = date
		} else if r.Date != "" {
			log.WithField("transaction_id", r.ID).Warn("Invalid transaction date, treating as unknown")
		}

		t.NormalizeSign()
		transactions = append(transactions, t)
	}

	log.WithFields(logger.Fields{
		"path":         path,
		"transactions": len(transactions),
		"dropped":      len(raw) - len(transactions),
	}).Info("Loaded transactions")

	return transactions, nil
}
