package domain

import "time"

// StatusState enumerates the externally visible lifecycle of a request. It
// mirrors the provider job states plus "pending" before submission and
// "completed" only once the relocated asset exists.
type StatusState string

const (
	StatusPending    StatusState = "pending"
	StatusProcessing StatusState = "processing"
	StatusCompleted  StatusState = "completed"
	StatusFailed     StatusState = "failed"
)

// Terminal reports whether the record will receive no further transitions.
func (s StatusState) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusRecord is the durable progress record for one GenerationRequest,
// queryable independently of the call that created it. The orchestrator
// writes one transition per lifecycle step and never deletes records.
type StatusRecord struct {
	RequestID     string
	Owner         string
	Feature       string
	State         StatusState
	ProviderJobID string
	ResultURL     string
	ErrorText     string
	StartedAt     time.Time
	CompletedAt   time.Time
	UpdatedAt     time.Time
}
