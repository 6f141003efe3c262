package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"covidexport/pkg/domain"
	"covidexport/pkg/storage"
)

// ErrAlreadyQueued is returned by Enqueue when an export job already exists
// for the current period.
var ErrAlreadyQueued = errors.New("an export job is already queued")

// Enqueue stores a RUNNING run and inserts the export job that will work it in
// one transaction, so the history lists the run as soon as it is queued and
// never lists a run that has no job. When a unique export job already exists
// the transaction is rolled back and ErrAlreadyQueued is returned.
func Enqueue(ctx context.Context, strg storage.Storage, reason string, now time.Time) (*domain.Run, error) {
	var run *domain.Run
	err := strg.WithTx(ctx, func(tx storage.AllStorage) error {
		stored, err := tx.StoreRun(ctx, domain.Run{
			ID:        domain.NewRunID(),
			Status:    domain.RunStatusRunning,
			StartedAt: now,
		})
		if err != nil {
			return fmt.Errorf("could not store queued run: %w", err)
		}

		added, err := tx.AddJob(ctx, ExportJobArgs{Reason: reason, RunID: stored.ID.String()}, nil)
		if err != nil {
			return fmt.Errorf("could not add export job: %w", err)
		}
		if !added {
			return ErrAlreadyQueued
		}
		run = stored

		return nil
	})
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	return run, nil
}
