// Package storage provides the durable object stores that back asset
// relocation: a Supabase-compatible HTTP object store for production and a
// filesystem store for development and tests.
package storage

import "context"

// ObjectStore is the remote media store contract: upload by path and resolve
// a public URL by path. Implementations must tolerate concurrent writers on
// distinct keys.
type ObjectStore interface {
	// Upload persists data under key with the given content type. With
	// upsert false the upload is create-only and fails on an existing key.
	Upload(ctx context.Context, key string, data []byte, contentType string, upsert bool) error
	// PublicURL resolves the durable, publicly reachable URL for a key.
	PublicURL(key string) (string, error)
}
