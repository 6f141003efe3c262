package storage

import (
	"context"
	"time"

	"covidexport/pkg/domain"
)

// RunUpdates describes the outcome of a run written when it finishes.
type RunUpdates struct {
	// StartedAt, when not zero, replaces the start time. Runs stored when their
	// job was enqueued start when the job is worked.
	StartedAt time.Time
	// Status is the final status of the run.
	Status domain.RunStatus
	// Entities is the number of normalized entities.
	Entities int
	// Artifacts is the number of artifacts written.
	Artifacts int
	// FailedArtifacts is the number of entity artifacts that could not be written.
	FailedArtifacts int
	// LastError, when not empty, is stored as the run error.
	LastError string
	// FinishedAt is the time the run ended.
	FinishedAt time.Time
}

// RunStorage keeps the history of export runs.
//
//go:generate mockgen -package mockstorage -source=run.go -destination=mock/mockrunstorage.go *
type RunStorage interface {
	// StoreRun inserts a new run and returns it as stored.
	StoreRun(ctx context.Context, run domain.Run) (*domain.Run, error)
	// FinishRun applies updates to a running run and returns the updated row.
	// It returns nil when no running run with the given ID exists.
	FinishRun(ctx context.Context, ID domain.RunID, updates RunUpdates) (*domain.Run, error)
	// RunByID fetches a run by its ID. Returns nil when not found.
	RunByID(ctx context.Context, ID domain.RunID) (*domain.Run, error)
	// LastRuns returns at most limit runs, most recent first.
	LastRuns(ctx context.Context, limit uint) ([]domain.Run, error)
}
