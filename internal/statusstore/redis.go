package statusstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roomcraft/internal/domain"
)

const (
	recordKeyPrefix = "gen:status:"
	ownerKeyPrefix  = "gen:owner:"
)

// RedisStore implements domain.StatusStore on Redis hashes with a per-owner
// sorted-set index keyed by update time.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a status store backed by Redis.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put replaces the record hash and refreshes the owner index entry.
func (s *RedisStore) Put(ctx context.Context, record *domain.StatusRecord) error {
	fields := map[string]any{
		"request_id":      record.RequestID,
		"owner":           record.Owner,
		"feature":         record.Feature,
		"state":           string(record.State),
		"provider_job_id": record.ProviderJobID,
		"result_url":      record.ResultURL,
		"error_text":      record.ErrorText,
		"started_at":      encodeTime(record.StartedAt),
		"completed_at":    encodeTime(record.CompletedAt),
		"updated_at":      encodeTime(record.UpdatedAt),
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, recordKeyPrefix+record.RequestID, fields)
	if record.Owner != "" {
		pipe.ZAdd(ctx, ownerKeyPrefix+record.Owner, redis.Z{
			Score:  float64(record.UpdatedAt.UnixNano()),
			Member: record.RequestID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("statusstore: redis put: %w", err)
	}
	return nil
}

// Get loads a record hash by request id.
func (s *RedisStore) Get(ctx context.Context, requestID string) (*domain.StatusRecord, error) {
	fields, err := s.client.HGetAll(ctx, recordKeyPrefix+requestID).Result()
	if err != nil {
		return nil, fmt.Errorf("statusstore: redis get: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeFields(fields), nil
}

// ListByOwner walks the owner index from newest to oldest.
func (s *RedisStore) ListByOwner(ctx context.Context, owner string, limit int) ([]domain.StatusRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := s.client.ZRevRange(ctx, ownerKeyPrefix+owner, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("statusstore: redis owner index: %w", err)
	}
	records := make([]domain.StatusRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if err != nil {
			if err == domain.ErrNotFound {
				continue
			}
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func decodeFields(fields map[string]string) *domain.StatusRecord {
	return &domain.StatusRecord{
		RequestID:     fields["request_id"],
		Owner:         fields["owner"],
		Feature:       fields["feature"],
		State:         domain.StatusState(fields["state"]),
		ProviderJobID: fields["provider_job_id"],
		ResultURL:     fields["result_url"],
		ErrorText:     fields["error_text"],
		StartedAt:     decodeTime(fields["started_at"]),
		CompletedAt:   decodeTime(fields["completed_at"]),
		UpdatedAt:     decodeTime(fields["updated_at"]),
	}
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ domain.StatusStore = (*RedisStore)(nil)
