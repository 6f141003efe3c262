// Package worker runs exports as River jobs, both on a daily schedule and on
// demand.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"covidexport/internal/config"
	"covidexport/internal/pipeline"
	"covidexport/pkg/logger"
)

// Options configure the River client running the exports.
type Options struct {
	// Schedule is the time of day the periodic export fires.
	Schedule DailySchedule
	// RunOnStart enqueues an export as soon as the client starts.
	RunOnStart bool
	// JobTimeout bounds a single export job.
	JobTimeout time.Duration
}

// NewOptions constructs an Options value from the provided application config.
// The job timeout leaves room for every download attempt of the source.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Schedule: DailySchedule{
			Hour:   cfg.Schedule.Hour,
			Minute: cfg.Schedule.Minute,
		},
		RunOnStart: cfg.Schedule.RunOnStart,
		JobTimeout: time.Duration(cfg.Source.MaxRetries+2) * cfg.Source.Timeout,
	}
}

// PeriodicExport returns the periodic job inserting an ExportJobArgs on schedule.
func PeriodicExport(options Options) *river.PeriodicJob {
	return river.NewPeriodicJob(
		options.Schedule,
		func() (river.JobArgs, *river.InsertOpts) {
			return ExportJobArgs{Reason: ReasonScheduled}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: options.RunOnStart},
	)
}

// Start creates and starts a River client that works export jobs on the default
// queue and inserts the periodic export.
func Start(
	ctx context.Context,
	dbPool *pgxpool.Pool,
	runner pipeline.Runner,
	options Options,
) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewExportWorker(runner, options.JobTimeout))

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			// exports share one output directory
			river.QueueDefault: {MaxWorkers: 1},
		},
		PeriodicJobs: []*river.PeriodicJob{PeriodicExport(options)},
		Workers:      workers,
		Logger:       logger.Slog(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}
