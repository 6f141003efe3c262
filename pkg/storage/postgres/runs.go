package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"covidexport/pkg/domain"
	"covidexport/pkg/storage"
)

const (
	runsTable = "export_runs"
)

// StoreRun inserts a run. A zero ID or StartedAt is filled in before the insert.
func (p *PgSQL) StoreRun(ctx context.Context, run domain.Run) (*domain.Run, error) {
	var row PgRun
	row.FromDomain(run)

	var result PgRun
	if _, err := p.Builder.Insert(runsTable).
		Rows(row).
		Returning(&PgRun{}).
		Executor().ScanStructContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store run into pg: %w", err)
	}

	return result.ToDomain(), nil
}

// FinishRun sets the final outcome of a running run. Runs that already finished
// are left untouched and nil is returned.
func (p *PgSQL) FinishRun(ctx context.Context, id domain.RunID, updates storage.RunUpdates) (*domain.Run, error) {
	rec := goqu.Record{
		"status":           string(updates.Status),
		"entities":         updates.Entities,
		"artifacts":        updates.Artifacts,
		"failed_artifacts": updates.FailedArtifacts,
		"finished_at":      goqu.L("CURRENT_TIMESTAMP"),
	}
	if !updates.FinishedAt.IsZero() {
		rec["finished_at"] = updates.FinishedAt.UTC()
	}
	if !updates.StartedAt.IsZero() {
		rec["started_at"] = updates.StartedAt.UTC()
	}
	if updates.LastError != "" {
		rec["last_error"] = updates.LastError
	}

	var row PgRun
	found, err := p.Builder.Update(runsTable).
		Set(rec).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("status").Eq(string(domain.RunStatusRunning)),
		).
		Returning(&PgRun{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not finish run in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// RunByID returns a run by its ID.
func (p *PgSQL) RunByID(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	var row PgRun
	found, err := p.Builder.From(runsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch run by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// LastRuns returns the most recent runs ordered by started_at DESC, id DESC.
func (p *PgSQL) LastRuns(ctx context.Context, limit uint) ([]domain.Run, error) {
	var rows []PgRun
	if err := p.Builder.From(runsTable).
		Order(goqu.I("started_at").Desc(), goqu.I("id").Desc()).
		Limit(limit).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch last runs from pg: %w", err)
	}

	return pgRunsToDomain(rows), nil
}
