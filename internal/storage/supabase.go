package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore talks to Supabase's storage API over plain HTTP with a
// service key. Objects land in a single bucket; public URLs follow the
// storage API's public object path.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// SupabaseOptions configures a SupabaseStore.
type SupabaseOptions struct {
	URL        string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

// NewSupabaseStore validates the options and returns a store.
func NewSupabaseStore(opts SupabaseOptions) (*SupabaseStore, error) {
	url := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if url == "" {
		return nil, errors.New("storage: supabase url is required")
	}
	if strings.TrimSpace(opts.ServiceKey) == "" {
		return nil, errors.New("storage: supabase service key is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("storage: supabase bucket is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &SupabaseStore{
		baseURL:    url,
		serviceKey: opts.ServiceKey,
		bucket:     bucket,
		httpClient: httpClient,
	}, nil
}

// Upload posts the object bytes to the storage API. The x-upsert header
// selects between create-only and overwrite-safe semantics.
func (s *SupabaseStore) Upload(ctx context.Context, key string, data []byte, contentType string, upsert bool) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, cleanKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("storage: build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", fmt.Sprintf("%t", upsert))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("storage: upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// PublicURL composes the public object URL for a key.
func (s *SupabaseStore) PublicURL(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, cleanKey), nil
}

var _ ObjectStore = (*SupabaseStore)(nil)
