package domain

// JobState enumerates provider-side job lifecycle states.
type JobState string

const (
	JobSubmitted  JobState = "submitted"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
)

// Terminal reports whether no further provider-side transition can occur.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// MediaKind enumerates the kinds of media a feature produces.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Directive is the opaque instruction set sent to the generation provider.
// Its content is feature-specific; the engine never inspects it.
type Directive struct {
	Prompt string
	Params map[string]any
}

// GenerationRequest is the immutable input to an orchestration run.
type GenerationRequest struct {
	ID         string
	Owner      string
	Feature    string
	Kind       MediaKind
	SourceURL  string
	SourceData []byte
	SourceMIME string
	Style      map[string]string
}

// GenerationJob mirrors the provider-side task. It is created on submit and
// mutated only by status reads from the provider.
type GenerationJob struct {
	ProviderID    string
	State         JobState
	FailureReason string
	ResultURL     string
}

// RelocatedAsset is the durable artifact produced from a completed job.
// Write-once: never mutated after creation.
type RelocatedAsset struct {
	SourceURL   string
	ContentType string
	Bytes       int64
	StorageKey  string
	PublicURL   string
}
