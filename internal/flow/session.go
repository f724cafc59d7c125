package flow

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Session is the state persisted between runs: the resolved identity and
// any in-flight purchase, so a restarted client can resume polling. It is
// the localStorage of the browser storefront.
type Session struct {
	Identity   *Identity `json:"identity,omitempty"`
	PurchaseID string    `json:"purchase_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Currency   string    `json:"currency,omitempty"`
}

type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileStore persists the session as a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Session{}, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		// A corrupt session file is treated as absent, not fatal.
		return &Session{}, nil
	}
	return &session, nil
}

func (s *FileStore) Save(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
