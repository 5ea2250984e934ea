package domain

import (
	"errors"
	"fmt"
)

// Kind classifies generation failures so callers can pick remediation
// behavior without parsing message text.
type Kind string

const (
	// KindConfiguration means a required credential or setting is absent.
	// Fatal, never retried.
	KindConfiguration Kind = "configuration_error"
	// KindProviderRejected means the provider refused the request (4xx).
	KindProviderRejected Kind = "provider_rejected"
	// KindProviderUnavailable means a network failure or provider 5xx.
	KindProviderUnavailable Kind = "provider_unavailable"
	// KindProviderContract means the provider returned a response shape
	// this client does not recognize.
	KindProviderContract Kind = "provider_contract_error"
	// KindGenerationFailed means the provider completed the job as failed.
	KindGenerationFailed Kind = "generation_failed"
	// KindGenerationTimeout means the poll budget was exhausted before the
	// job reached a terminal state.
	KindGenerationTimeout Kind = "generation_timeout"
	// KindDownloadFailed means the provider-hosted result asset could not
	// be fetched.
	KindDownloadFailed Kind = "download_failed"
	// KindUploadFailed means the durable store rejected the asset upload.
	KindUploadFailed Kind = "upload_failed"
	// KindPublicURLUnavailable means the durable store could not produce a
	// public URL for an uploaded asset.
	KindPublicURLUnavailable Kind = "public_url_unavailable"
)

// Error carries a failure kind plus a human-readable message. The message is
// intended to be returned to callers verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError constructs a classified error around an underlying cause.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the failure kind from an error chain. It returns the empty
// Kind for errors that carry no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ErrNotFound is returned by stores when no record exists for a key.
var ErrNotFound = errors.New("not found")
