// Package engine contains the generation job orchestrator: the single
// parameterized pipeline behind every media transformation surface. It
// submits a job to the provider, polls it to a terminal state under a
// bounded budget, applies the one-shot alternate-directive retry for
// recoverable failures, relocates the resulting asset into durable storage
// and keeps the status record current at every transition.
package engine

import (
	"context"
	"strings"
	"time"

	"roomcraft/internal/domain"
	"roomcraft/internal/feature"
	"roomcraft/internal/infra"
	"roomcraft/internal/provider"
)

// Client is the provider surface the orchestrator drives. Each method
// performs exactly one remote attempt.
type Client interface {
	Submit(ctx context.Context, in provider.SubmitInput) (string, error)
	StatusReader
}

// Relocator republishes a provider-hosted asset into durable storage.
type Relocator interface {
	Relocate(ctx context.Context, req *domain.GenerationRequest, f *feature.Feature, remoteURL string) (*domain.RelocatedAsset, error)
}

// Orchestrator composes the provider client, poller and relocator into one
// idempotent-per-request pipeline.
type Orchestrator struct {
	client   Client
	reloc    Relocator
	status   domain.StatusStore
	features map[string]*feature.Feature
	logger   infra.Logger
}

// New constructs an orchestrator. All collaborators are injected; the
// orchestrator holds no global state.
func New(client Client, reloc Relocator, status domain.StatusStore, features map[string]*feature.Feature, logger infra.Logger) *Orchestrator {
	return &Orchestrator{
		client:   client,
		reloc:    reloc,
		status:   status,
		features: features,
		logger:   logger,
	}
}

// recoverableMarkers identify provider failure reasons that may succeed with
// a policy-softened alternate directive.
var recoverableMarkers = []string{
	"content policy",
	"safety",
	"flagged",
	"blocked",
	"sensitive",
}

// Run drives one GenerationRequest to a terminal outcome. On success the
// returned asset is durably hosted and the status record reads completed; on
// any failure the record reads failed with a non-empty error text. A status
// write failure is logged and never masks the primary outcome.
func (o *Orchestrator) Run(ctx context.Context, req *domain.GenerationRequest) (*domain.RelocatedAsset, error) {
	f, err := feature.Lookup(o.features, req.Feature)
	if err != nil {
		return nil, err
	}

	record := &domain.StatusRecord{
		RequestID: req.ID,
		Owner:     req.Owner,
		Feature:   f.Name,
		State:     domain.StatusPending,
		StartedAt: time.Now().UTC(),
	}
	o.writeStatus(ctx, record)

	variants := f.Directives(req)
	if len(variants) == 0 {
		return nil, o.fail(ctx, record, domain.NewError(domain.KindConfiguration, "feature "+f.Name+" has no directive variants"))
	}
	// A misconfigured negative retry budget must still yield one submission.
	maxSubmits := 1 + f.RetryBudget
	if maxSubmits > len(variants) {
		maxSubmits = len(variants)
	}
	if maxSubmits < 1 {
		maxSubmits = 1
	}

	var job *domain.GenerationJob
	for idx := 0; idx < maxSubmits; idx++ {
		jobID, err := o.client.Submit(ctx, provider.SubmitInput{
			Kind:       f.Kind,
			Directive:  variants[idx],
			SourceURL:  req.SourceURL,
			SourceData: req.SourceData,
			SourceMIME: req.SourceMIME,
		})
		if err != nil {
			return nil, o.fail(ctx, record, err)
		}

		record.State = domain.StatusProcessing
		record.ProviderJobID = jobID
		o.writeStatus(ctx, record)

		job, err = AwaitTerminal(ctx, o.client, jobID, f.PollAttempts, f.PollInterval)
		if err != nil {
			return nil, o.fail(ctx, record, err)
		}

		if job.State == domain.JobFailed {
			if idx+1 < maxSubmits && recoverable(job.FailureReason) {
				o.logger.Warn().
					Str("request_id", req.ID).
					Str("job_id", jobID).
					Str("reason", job.FailureReason).
					Msg("engine: recoverable failure, retrying with alternate directive")
				continue
			}
			reason := job.FailureReason
			if reason == "" {
				reason = "provider reported failure without a reason"
			}
			return nil, o.fail(ctx, record, domain.NewError(domain.KindGenerationFailed, reason))
		}

		if job.ResultURL == "" {
			return nil, o.fail(ctx, record, domain.NewError(domain.KindGenerationFailed, "job completed but carries no result asset"))
		}
		break
	}

	asset, err := o.reloc.Relocate(ctx, req, f, job.ResultURL)
	if err != nil {
		return nil, o.fail(ctx, record, err)
	}

	record.State = domain.StatusCompleted
	record.ResultURL = asset.PublicURL
	record.ErrorText = ""
	record.CompletedAt = time.Now().UTC()
	o.writeStatus(ctx, record)

	o.logger.Info().
		Str("request_id", req.ID).
		Str("feature", f.Name).
		Str("url", asset.PublicURL).
		Msg("engine: generation completed")
	return asset, nil
}

// fail transitions the record to failed and hands the error back unchanged.
func (o *Orchestrator) fail(ctx context.Context, record *domain.StatusRecord, cause error) error {
	record.State = domain.StatusFailed
	record.ErrorText = cause.Error()
	record.CompletedAt = time.Now().UTC()
	o.writeStatus(ctx, record)
	return cause
}

func (o *Orchestrator) writeStatus(ctx context.Context, record *domain.StatusRecord) {
	record.UpdatedAt = time.Now().UTC()
	snapshot := *record
	if err := o.status.Put(ctx, &snapshot); err != nil {
		o.logger.Error().Err(err).
			Str("request_id", record.RequestID).
			Str("state", string(record.State)).
			Msg("engine: status write failed")
	}
}

func recoverable(reason string) bool {
	lowered := strings.ToLower(reason)
	for _, marker := range recoverableMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
