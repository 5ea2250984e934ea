// Package statusstore provides the durable status record stores. Postgres is
// the primary backend; Redis serves deployments without a relational
// database; the in-memory store backs tests and local development.
package statusstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomcraft/internal/domain"
)

// PostgresStore implements domain.StatusStore on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a status store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Put inserts or fully replaces the record for its request id.
func (s *PostgresStore) Put(ctx context.Context, record *domain.StatusRecord) error {
	query := `
INSERT INTO generation_status (request_id, owner, feature, state, provider_job_id, result_url, error_text, started_at, completed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (request_id) DO UPDATE
SET state = EXCLUDED.state,
    provider_job_id = EXCLUDED.provider_job_id,
    result_url = EXCLUDED.result_url,
    error_text = EXCLUDED.error_text,
    completed_at = EXCLUDED.completed_at,
    updated_at = EXCLUDED.updated_at;
`
	_, err := s.pool.Exec(ctx, query,
		record.RequestID,
		record.Owner,
		record.Feature,
		record.State,
		record.ProviderJobID,
		record.ResultURL,
		record.ErrorText,
		record.StartedAt,
		nullableTime(record.CompletedAt),
		record.UpdatedAt,
	)
	return err
}

// Get fetches a record by request id.
func (s *PostgresStore) Get(ctx context.Context, requestID string) (*domain.StatusRecord, error) {
	query := `
SELECT request_id, owner, feature, state, provider_job_id, result_url, error_text, started_at, completed_at, updated_at
FROM generation_status
WHERE request_id = $1;
`
	row := s.pool.QueryRow(ctx, query, requestID)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListByOwner returns the owner's most recently updated records.
func (s *PostgresStore) ListByOwner(ctx context.Context, owner string, limit int) ([]domain.StatusRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT request_id, owner, feature, state, provider_job_id, result_url, error_text, started_at, completed_at, updated_at
FROM generation_status
WHERE owner = $1
ORDER BY updated_at DESC
LIMIT $2;
`
	rows, err := s.pool.Query(ctx, query, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.StatusRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.StatusRecord, error) {
	var record domain.StatusRecord
	var completedAt *time.Time
	if err := row.Scan(
		&record.RequestID,
		&record.Owner,
		&record.Feature,
		&record.State,
		&record.ProviderJobID,
		&record.ResultURL,
		&record.ErrorText,
		&record.StartedAt,
		&completedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if completedAt != nil {
		record.CompletedAt = *completedAt
	}
	return &record, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ domain.StatusStore = (*PostgresStore)(nil)
