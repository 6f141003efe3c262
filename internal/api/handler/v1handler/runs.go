package v1handler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"covidexport/internal/api/specs/v1specs"
	"covidexport/pkg/domain"
)

// DefaultLimit is the number of runs listed when the request has no limit.
const DefaultLimit = 20

// DomainRunToV1Specs maps a stored run to its API representation.
func DomainRunToV1Specs(in *domain.Run) v1specs.Run {
	out := v1specs.Run{
		ID:              uuid.UUID(in.ID),
		Status:          v1specs.RunStatus(in.Status),
		Entities:        in.Entities,
		Artifacts:       in.Artifacts,
		FailedArtifacts: in.FailedArtifacts,
		StartedAt:       in.StartedAt,
	}
	if in.LastError != "" {
		out.LastError = v1specs.NewOptString(in.LastError)
	}
	if !in.FinishedAt.IsZero() {
		out.FinishedAt = v1specs.NewOptDateTime(in.FinishedAt)
	}

	return out
}

// ListRuns implements listRuns operation.
// The generated server rejects a limit outside of 1..100 before this is called.
func (h Handler) ListRuns(ctx context.Context, params v1specs.ListRunsParams) (v1specs.ListRunsRes, error) {
	limit := params.Limit.Or(DefaultLimit)

	runs, err := h.runs.LastRuns(ctx, uint(limit)) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	items := make([]v1specs.Run, 0, len(runs))
	for i := range runs {
		items = append(items, DomainRunToV1Specs(&runs[i]))
	}

	return &v1specs.RunList{
		Runs: items,
	}, nil
}
