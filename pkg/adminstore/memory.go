package adminstore

import (
	"context"
	"sync"

	"github.com/coursedesk/coursedesk/pkg/admin"
)

// MemoryStore implements Store with an in-process map. Used in tests
// and for local development without Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*admin.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*admin.Record),
	}
}

func (s *MemoryStore) Get(ctx context.Context, email string) (*admin.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[admin.DeriveKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	copied.Permissions = clonePermissions(record.Permissions)
	return &copied, nil
}

func (s *MemoryStore) Put(ctx context.Context, record *admin.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Key = admin.DeriveKey(record.Email)

	copied := *record
	copied.Permissions = clonePermissions(record.Permissions)
	if copied.Permissions == nil {
		copied.Permissions = make(map[string]bool)
	}
	s.records[copied.Key] = &copied
	return nil
}

func (s *MemoryStore) SetActive(ctx context.Context, email string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[admin.DeriveKey(email)]
	if !ok {
		return ErrNotFound
	}
	record.Active = active
	return nil
}

func (s *MemoryStore) SetPermission(ctx context.Context, email, permission string, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[admin.DeriveKey(email)]
	if !ok {
		return ErrNotFound
	}
	if record.Permissions == nil {
		record.Permissions = make(map[string]bool)
	}
	record.Permissions[permission] = granted
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*admin.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*admin.Record, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		copied.Permissions = clonePermissions(record.Permissions)
		records = append(records, &copied)
	}
	return records, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func clonePermissions(perms map[string]bool) map[string]bool {
	if perms == nil {
		return nil
	}
	cloned := make(map[string]bool, len(perms))
	for k, v := range perms {
		cloned[k] = v
	}
	return cloned
}
