package engine

import (
	"context"
	"fmt"
	"time"

	"roomcraft/internal/domain"
)

// StatusReader is the subset of the provider client the poller needs.
type StatusReader interface {
	Status(ctx context.Context, jobID string) (*domain.GenerationJob, error)
}

// AwaitTerminal drives a submitted job to a terminal state. It waits one
// interval, reads the job status, and repeats until the job is terminal or
// the attempt budget is exhausted. Exactly `attempts` status reads are
// performed before giving up with a GenerationTimeout. A provider-reported
// failed job is a valid terminal value and is returned verbatim, not as an
// error. The wait is a plain timer select, cancellable through ctx.
func AwaitTerminal(ctx context.Context, client StatusReader, jobID string, attempts int, interval time.Duration) (*domain.GenerationJob, error) {
	if attempts <= 0 {
		return nil, domain.NewError(domain.KindGenerationTimeout, "poll attempt budget is zero")
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("poll cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		job, err := client.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.State.Terminal() {
			return job, nil
		}
	}

	return nil, domain.NewError(domain.KindGenerationTimeout,
		fmt.Sprintf("job %s not terminal after %d polls at %s intervals", jobID, attempts, interval))
}
