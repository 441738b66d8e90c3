package store

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ar-collections-service/internal/models"
	apperrors "ar-collections-service/pkg/errors"
)

// PostgresStore persists the memory collections in Postgres, one table per
// collection. Uniqueness is enforced by the schema: associations upsert on
// the transaction token, denials and accounted transactions insert with
// ON CONFLICT DO NOTHING, the communication log is insert-only.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore connects to Postgres and ensures the schema exists.
// Some platforms hand out postgres:// DSNs; both prefixes are accepted.
func OpenPostgresStore(databaseURL string) (*PostgresStore, error) {
	if strings.HasPrefix(databaseURL, "postgres://") {
		databaseURL = "postgresql://" + strings.TrimPrefix(databaseURL, "postgres://")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeStoreUnavailable, "postgres", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.StoreError(apperrors.CodeStoreUnavailable, "postgres", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS associations (
			transaction_token TEXT PRIMARY KEY,
			company_token     TEXT NOT NULL,
			learned_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS denied_matches (
			transaction_description TEXT NOT NULL,
			invoice_id              TEXT NOT NULL,
			denied_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (transaction_description, invoice_id)
		)`,
		`CREATE TABLE IF NOT EXISTS accounted_transactions (
			transaction_description TEXT PRIMARY KEY,
			transaction_id          TEXT,
			amount                  NUMERIC(14,2) NOT NULL,
			date                    TIMESTAMPTZ,
			company_name            TEXT NOT NULL,
			invoice_id              TEXT,
			accounted_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS communication_history (
			id           TEXT PRIMARY KEY,
			invoice_id   TEXT NOT NULL,
			company_name TEXT NOT NULL,
			method       TEXT NOT NULL,
			message_type TEXT NOT NULL,
			sent_at      TIMESTAMPTZ NOT NULL,
			approved_by  TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return apperrors.StoreError(apperrors.CodeStoreUnavailable, "schema", err)
		}
	}
	return nil
}

// LoadAssociations returns all learned associations.
func (s *PostgresStore) LoadAssociations() ([]models.Association, error) {
	rows, err := s.db.Query(`SELECT transaction_token, company_token, learned_at FROM associations`)
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "associations", err)
	}
	defer rows.Close()

	var out []models.Association
	for rows.Next() {
		var a models.Association
		if err := rows.Scan(&a.TransactionToken, &a.CompanyToken, &a.LearnedAt); err != nil {
			return nil, apperrors.StoreError(apperrors.CodeReadFailed, "associations", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "associations", err)
	}
	return out, nil
}

// SaveAssociation upserts on the transaction token (last write wins).
func (s *PostgresStore) SaveAssociation(a models.Association) error {
	_, err := s.db.Exec(`
		INSERT INTO associations (transaction_token, company_token, learned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (transaction_token)
		DO UPDATE SET company_token = EXCLUDED.company_token, learned_at = EXCLUDED.learned_at`,
		a.TransactionToken, a.CompanyToken, a.LearnedAt)
	if err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, "associations", err)
	}
	return nil
}

// LoadDeniedMatches returns all recorded denials.
func (s *PostgresStore) LoadDeniedMatches() ([]models.DeniedMatch, error) {
	rows, err := s.db.Query(`SELECT transaction_description, invoice_id, denied_at FROM denied_matches`)
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "denied_matches", err)
	}
	defer rows.Close()

	var out []models.DeniedMatch
	for rows.Next() {
		var d models.DeniedMatch
		if err := rows.Scan(&d.TransactionDescription, &d.InvoiceID, &d.DeniedAt); err != nil {
			return nil, apperrors.StoreError(apperrors.CodeReadFailed, "denied_matches", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "denied_matches", err)
	}
	return out, nil
}

// AppendDeniedMatch inserts a denial; duplicates are silently ignored.
func (s *PostgresStore) AppendDeniedMatch(d models.DeniedMatch) error {
	_, err := s.db.Exec(`
		INSERT INTO denied_matches (transaction_description, invoice_id, denied_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		d.TransactionDescription, d.InvoiceID, d.DeniedAt)
	if err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, "denied_matches", err)
	}
	return nil
}

// LoadAccountedTransactions returns all accounted transactions.
func (s *PostgresStore) LoadAccountedTransactions() ([]models.AccountedTransaction, error) {
	rows, err := s.db.Query(`
		SELECT transaction_description, transaction_id, amount, date, company_name, invoice_id, accounted_at
		FROM accounted_transactions`)
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "accounted_transactions", err)
	}
	defer rows.Close()

	var out []models.AccountedTransaction
	for rows.Next() {
		var (
			a             models.AccountedTransaction
			transactionID sql.NullString
			invoiceID     sql.NullString
			date          sql.NullTime
			amount        string
		)
		if err := rows.Scan(&a.TransactionDescription, &transactionID, &amount, &date,
			&a.CompanyName, &invoiceID, &a.AccountedAt); err != nil {
			return nil, apperrors.StoreError(apperrors.CodeReadFailed, "accounted_transactions", err)
		}

		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, apperrors.StoreError(apperrors.CodeReadFailed, "accounted_transactions", err)
		}
		a.Amount = parsed
		a.TransactionID = transactionID.String
		a.InvoiceID = invoiceID.String
		if date.Valid {
			a.Date = date.Time
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "accounted_transactions", err)
	}
	return out, nil
}

// AppendAccountedTransaction inserts an accounted transaction; a duplicate
// description is silently ignored.
func (s *PostgresStore) AppendAccountedTransaction(a models.AccountedTransaction) error {
	var date interface{}
	if !a.Date.IsZero() {
		date = a.Date
	}

	_, err := s.db.Exec(`
		INSERT INTO accounted_transactions
			(transaction_description, transaction_id, amount, date, company_name, invoice_id, accounted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING`,
		a.TransactionDescription, nullable(a.TransactionID), a.Amount.StringFixed(2), date,
		a.CompanyName, nullable(a.InvoiceID), a.AccountedAt)
	if err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, "accounted_transactions", err)
	}
	return nil
}

// LoadCommunications returns the communication log ordered by send time.
func (s *PostgresStore) LoadCommunications() ([]models.CommunicationRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, invoice_id, company_name, method, message_type, sent_at, approved_by
		FROM communication_history
		ORDER BY sent_at`)
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "communication_history", err)
	}
	defer rows.Close()

	var out []models.CommunicationRecord
	for rows.Next() {
		var (
			c          models.CommunicationRecord
			method     string
			approvedBy sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.InvoiceID, &c.CompanyName, &method,
			&c.MessageType, &c.SentAt, &approvedBy); err != nil {
			return nil, apperrors.StoreError(apperrors.CodeReadFailed, "communication_history", err)
		}
		c.Method = models.ContactMethod(method)
		c.ApprovedBy = approvedBy.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeReadFailed, "communication_history", err)
	}
	return out, nil
}

// AppendCommunication appends a record to the communication log.
func (s *PostgresStore) AppendCommunication(c models.CommunicationRecord) error {
	sentAt := c.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO communication_history (id, invoice_id, company_name, method, message_type, sent_at, approved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.InvoiceID, c.CompanyName, string(c.Method), c.MessageType, sentAt, nullable(c.ApprovedBy))
	if err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, "communication_history", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
