package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"covidexport/internal/pipeline"
	"covidexport/pkg/domain"
	"covidexport/pkg/logger"
	"covidexport/pkg/serrors"
)

// rateLimitedSnooze is how long a job waits when the source reported rate limiting.
const rateLimitedSnooze = 15 * time.Minute

// ExportWorker is a River worker that performs one export run per job. Runs
// write to the same output directory, so the worker executes them one at a
// time even if the queue hands it jobs concurrently.
//
// Error handling: a malformed source document cancels the job since retrying
// the same document cannot succeed. A rate limited source snoozes the job.
// Other failures are returned so River retries the job with its own backoff.
// PARTIAL runs are successful jobs.
type ExportWorker struct {
	river.WorkerDefaults[ExportJobArgs]

	runner  pipeline.Runner
	timeout time.Duration
	// mu serializes runs.
	mu sync.Mutex
}

// NewExportWorker constructs an ExportWorker. A timeout of zero keeps River's
// default job timeout, a negative one disables it.
func NewExportWorker(runner pipeline.Runner, timeout time.Duration) *ExportWorker {
	return &ExportWorker{
		runner:  runner,
		timeout: timeout,
	}
}

// Timeout overrides the River job timeout; downloading the source document
// usually takes longer than River's default.
func (w *ExportWorker) Timeout(*river.Job[ExportJobArgs]) time.Duration {
	return w.timeout
}

// Work executes a single export job.
func (w *ExportWorker) Work(ctx context.Context, job *river.Job[ExportJobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.String("reason", job.Args.Reason),
		zap.Int("attempt", job.Attempt))

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export job canceled before running: %w", err)
	}

	run, err := w.run(ctx, job.Args)
	if err != nil {
		if errors.Is(err, serrors.ErrMalformedInput) {
			logger.Error(ctx, "source document is malformed, canceling job", zap.Error(err))

			return river.JobCancel(err) //nolint: wrapcheck
		}
		if errors.Is(err, serrors.ErrRateLimited) {
			logger.Warn(ctx, "source is rate limited, snoozing job", zap.Duration("snooze", rateLimitedSnooze))

			return river.JobSnooze(rateLimitedSnooze) //nolint: wrapcheck
		}

		return fmt.Errorf("could not export: %w", err)
	}

	logger.Info(ctx, "export job finished", zap.String("status", string(run.Status)))

	return nil
}

func (w *ExportWorker) run(ctx context.Context, args ExportJobArgs) (*domain.Run, error) {
	if args.RunID == "" {
		return w.runner.Run(ctx)
	}

	id, err := uuid.Parse(args.RunID)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrMalformedInput, err, "invalid run id %q", args.RunID)
	}

	return w.runner.RunQueued(logger.WithFields(ctx, zap.String("queuedRunID", args.RunID)), domain.RunID(id))
}
