// Package store provides persistent storage for the learned matching memory
// and the communication log.
//
// Four collections with independent lifecycles are kept:
//   - associations: learned transaction-token -> company-token mappings,
//     unique by transaction token, last write wins
//   - denied matches: append-only, unique per (description, invoice) pair
//   - accounted transactions: append-only, unique by description
//   - communication history: append-only log of outbound contacts
//
// Two backends are available: a Postgres-backed store for deployments and a
// JSON-file store for local development. Both enforce the same uniqueness
// semantics so engines can treat writes as idempotent.
package store

import (
	"ar-collections-service/internal/models"
	"ar-collections-service/pkg/logger"
)

// Store is the persistence contract consumed by the matching and escalation
// engines. Implementations must be safe for concurrent use.
type Store interface {
	LoadAssociations() ([]models.Association, error)
	// SaveAssociation inserts or overwrites the association for its
	// transaction token (last write wins).
	SaveAssociation(a models.Association) error

	LoadDeniedMatches() ([]models.DeniedMatch, error)
	// AppendDeniedMatch records a denial. Appending an already-denied pair
	// is a no-op.
	AppendDeniedMatch(d models.DeniedMatch) error

	LoadAccountedTransactions() ([]models.AccountedTransaction, error)
	// AppendAccountedTransaction records an accounted transaction. Appending
	// a description that is already accounted is a no-op.
	AppendAccountedTransaction(a models.AccountedTransaction) error

	LoadCommunications() ([]models.CommunicationRecord, error)
	AppendCommunication(c models.CommunicationRecord) error

	Close() error
}

// Open selects a backend: Postgres when a DSN is provided, JSON files in
// dataDir otherwise.
func Open(databaseURL, dataDir string, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	if databaseURL != "" {
		log.WithComponent("store").Info("using postgres store")
		return OpenPostgresStore(databaseURL)
	}

	log.WithComponent("store").Infof("no database configured, using file store in %s", dataDir)
	return NewFileStore(dataDir)
}
