package domain

import "context"

// StatusStore persists StatusRecords keyed by request id. Implementations
// must tolerate concurrent writers for distinct request ids; the orchestrator
// never writes the same id from two goroutines.
type StatusStore interface {
	// Put inserts or fully replaces the record for record.RequestID.
	Put(ctx context.Context, record *StatusRecord) error
	// Get returns the record for the request id, or ErrNotFound.
	Get(ctx context.Context, requestID string) (*StatusRecord, error)
	// ListByOwner returns the most recently updated records for an owner.
	ListByOwner(ctx context.Context, owner string, limit int) ([]StatusRecord, error)
}
