package postgres

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"covidexport/pkg/domain"
)

// PgRun is the export_runs row.
type PgRun struct {
	ID     uuid.UUID `db:"id"`
	Status string    `db:"status"`

	Entities        int            `db:"entities"`
	Artifacts       int            `db:"artifacts"`
	FailedArtifacts int            `db:"failed_artifacts"`
	LastError       sql.NullString `db:"last_error"`

	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

func (p *PgRun) ToDomain() *domain.Run {
	return &domain.Run{
		ID:              domain.RunID(p.ID),
		Status:          domain.RunStatus(p.Status),
		Entities:        p.Entities,
		Artifacts:       p.Artifacts,
		FailedArtifacts: p.FailedArtifacts,
		LastError:       p.LastError.String,
		StartedAt:       p.StartedAt,
		FinishedAt:      p.FinishedAt.Time,
	}
}

func (p *PgRun) FromDomain(run domain.Run) {
	id := uuid.UUID(run.ID)
	if id == uuid.Nil {
		id = uuid.New()
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	*p = PgRun{
		ID:              id,
		Status:          string(run.Status),
		Entities:        run.Entities,
		Artifacts:       run.Artifacts,
		FailedArtifacts: run.FailedArtifacts,
		LastError: sql.NullString{
			String: run.LastError,
			Valid:  run.LastError != "",
		},
		StartedAt: startedAt.UTC(),
		FinishedAt: sql.NullTime{
			Time:  run.FinishedAt.UTC(),
			Valid: !run.FinishedAt.IsZero(),
		},
	}
}

func pgRunsToDomain(runs []PgRun) []domain.Run {
	out := make([]domain.Run, 0, len(runs))
	for _, run := range runs {
		out = append(out, *run.ToDomain())
	}

	return out
}
