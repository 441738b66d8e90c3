package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ar-collections-service/internal/models"
	apperrors "ar-collections-service/pkg/errors"
)

// Collection file names. One file per collection keeps writer conflicts
// scoped: appending a communication never rewrites the association memory.
const (
	associationsFile = "associations.json"
	deniedFile       = "denied_matches.json"
	accountedFile    = "accounted_transactions.json"
	historyFile      = "communication_history.json"
)

// FileStore persists each collection as a JSON file under a data directory.
// Intended for local development and single-process deployments.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the data directory if needed and returns a FileStore.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeStoreUnavailable, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// LoadAssociations returns all learned associations.
func (fs *FileStore) LoadAssociations() ([]models.Association, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []models.Association
	if err := fs.read(associationsFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAssociation inserts or overwrites the association keyed by its
// transaction token.
func (fs *FileStore) SaveAssociation(a models.Association) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var existing []models.Association
	if err := fs.read(associationsFile, &existing); err != nil {
		return err
	}

	replaced := false
	for i := range existing {
		if existing[i].TransactionToken == a.TransactionToken {
			existing[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, a)
	}

	return fs.write(associationsFile, existing)
}

// LoadDeniedMatches returns all recorded denials.
func (fs *FileStore) LoadDeniedMatches() ([]models.DeniedMatch, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []models.DeniedMatch
	if err := fs.read(deniedFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendDeniedMatch appends a denial unless the exact pair is already present.
func (fs *FileStore) AppendDeniedMatch(d models.DeniedMatch) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var existing []models.DeniedMatch
	if err := fs.read(deniedFile, &existing); err != nil {
		return err
	}

	for _, e := range existing {
		if e.TransactionDescription == d.TransactionDescription && e.InvoiceID == d.InvoiceID {
			return nil
		}
	}

	existing = append(existing, d)
	return fs.write(deniedFile, existing)
}

// LoadAccountedTransactions returns all accounted transactions.
func (fs *FileStore) LoadAccountedTransactions() ([]models.AccountedTransaction, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []models.AccountedTransaction
	if err := fs.read(accountedFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendAccountedTransaction appends an accounted transaction unless its
// description is already recorded.
func (fs *FileStore) AppendAccountedTransaction(a models.AccountedTransaction) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var existing []models.AccountedTransaction
	if err := fs.read(accountedFile, &existing); err != nil {
		return err
	}

	for _, e := range existing {
		if e.TransactionDescription == a.TransactionDescription {
			return nil
		}
	}

	existing = append(existing, a)
	return fs.write(accountedFile, existing)
}

// LoadCommunications returns the full communication history.
func (fs *FileStore) LoadCommunications() ([]models.CommunicationRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var out []models.CommunicationRecord
	if err := fs.read(historyFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendCommunication appends a record to the communication log.
func (fs *FileStore) AppendCommunication(c models.CommunicationRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var existing []models.CommunicationRecord
	if err := fs.read(historyFile, &existing); err != nil {
		return err
	}

	existing = append(existing, c)
	return fs.write(historyFile, existing)
}

// Close is a no-op for the file store.
func (fs *FileStore) Close() error {
	return nil
}

// read decodes a collection file into out. A missing file yields an empty
// collection, not an error.
func (fs *FileStore) read(name string, out interface{}) error {
	path := filepath.Join(fs.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.StoreError(apperrors.CodeReadFailed, name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.StoreError(apperrors.CodeReadFailed, name, err)
	}
	return nil
}

// write marshals a collection and replaces the file atomically so a crash
// mid-write cannot leave a half-written collection behind.
func (fs *FileStore) write(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, name, err)
	}

	path := filepath.Join(fs.dir, name)
	tmp := fmt.Sprintf("%s.tmp", path)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperrors.StoreError(apperrors.CodeWriteFailed, name, err)
	}
	return nil
}
