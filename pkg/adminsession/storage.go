package adminsession

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StorageKey is the fixed key under which the session blob persists.
const StorageKey = "coursedesk_admin_session"

// Storage is the durable client-side store for the session blob.
// Implementations hold at most one session at the fixed key.
type Storage interface {
	// Load returns the persisted session, or nil if none exists.
	Load() (*Session, error)

	// Save persists the session, replacing any previous one.
	Save(session *Session) error

	// Clear removes any persisted session. Clearing an empty store is
	// not an error.
	Clear() error
}

// FileStorage persists the session blob as a JSON file, the CLI
// equivalent of browser local storage.
type FileStorage struct {
	path string
}

// NewFileStorage creates storage rooted at dir; the blob lives at
// dir/<StorageKey>.json.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, StorageKey+".json")}
}

func (s *FileStorage) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("corrupt session file: %w", err)
	}
	return &session, nil
}

func (s *FileStorage) Save(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-process Storage for tests.
type MemoryStorage struct {
	session *Session
}

// NewMemoryStorage creates empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() (*Session, error) {
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *MemoryStorage) Save(session *Session) error {
	copied := *session
	s.session = &copied
	return nil
}

func (s *MemoryStorage) Clear() error {
	s.session = nil
	return nil
}
