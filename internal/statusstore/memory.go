package statusstore

import (
	"context"
	"sort"
	"sync"

	"roomcraft/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory status store. Records do not
// survive a restart; production deployments should configure Postgres or
// Redis instead.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.StatusRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.StatusRecord)}
}

// Put stores a copy of the record.
func (s *MemoryStore) Put(ctx context.Context, record *domain.StatusRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.RequestID] = *record
	return nil
}

// Get returns a copy of the stored record, or domain.ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, requestID string) (*domain.StatusRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// ListByOwner returns the owner's records, newest update first.
func (s *MemoryStore) ListByOwner(ctx context.Context, owner string, limit int) ([]domain.StatusRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []domain.StatusRecord
	for _, record := range s.records {
		if record.Owner == owner {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

var _ domain.StatusStore = (*MemoryStore)(nil)
