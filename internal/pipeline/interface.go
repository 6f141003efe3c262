package pipeline

import (
	"context"

	"covidexport/pkg/domain"
)

// Runner executes export runs.
//
//go:generate mockgen -package mockpipeline -source=interface.go -destination=mock/mockpipeline.go *
type Runner interface {
	// Run performs one fetch, normalize, emit and publish cycle.
	Run(ctx context.Context) (*domain.Run, error)
	// RunQueued performs the cycle for a run stored when its job was enqueued.
	RunQueued(ctx context.Context, id domain.RunID) (*domain.Run, error)
}
