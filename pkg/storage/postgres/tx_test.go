//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"covidexport/internal/worker"
	"covidexport/pkg/domain"
	"covidexport/pkg/storage"
	"covidexport/pkg/storage/postgres"
)

func runningRun() domain.Run {
	return domain.Run{
		ID:        domain.NewRunID(),
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPgSQL_Begin_NestingIsRejected(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	txStorage, err := pg.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = txStorage.Rollback() }()

	inner, ok := txStorage.(*postgres.PgSQL)
	require.True(t, ok)
	_, isTx := inner.DB.(*sql.Tx)
	require.True(t, isTx)

	_, err = inner.Begin(ctx)
	require.ErrorIs(t, err, storage.ErrAlreadyInTx)
}

func TestPgSQL_CommitMakesRunVisible(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.ErrorIs(t, pg.Commit(), storage.ErrNotInTx)

	txStorage, err := pg.Begin(ctx)
	require.NoError(t, err)
	stored, err := txStorage.StoreRun(ctx, runningRun())
	require.NoError(t, err)

	// not visible outside the transaction yet
	got, err := pg.RunByID(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, txStorage.Commit())

	got, err = pg.RunByID(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestPgSQL_RollbackDiscardsRun(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.ErrorIs(t, pg.Rollback(), storage.ErrNotInTx)

	txStorage, err := pg.Begin(ctx)
	require.NoError(t, err)
	stored, err := txStorage.StoreRun(ctx, runningRun())
	require.NoError(t, err)
	require.NoError(t, txStorage.Rollback())

	got, err := pg.RunByID(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPgSQL_WithTx_StoresRunAndJobAtomically(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()
	migrateRiver(t, pg)

	ctx := context.Background()

	var stored *domain.Run
	err := pg.WithTx(ctx, func(s storage.AllStorage) error {
		var err error
		stored, err = s.StoreRun(ctx, runningRun())
		if err != nil {
			return err //nolint: wrapcheck
		}
		_, err = s.AddJob(ctx, dummyJobArgs{}, nil)

		return err //nolint: wrapcheck
	})
	require.NoError(t, err)

	got, err := pg.RunByID(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	err = pg.WithTx(ctx, func(s storage.AllStorage) error {
		var err error
		stored, err = s.StoreRun(ctx, runningRun())
		if err != nil {
			return err //nolint: wrapcheck
		}

		return errors.New("boom")
	})
	require.Error(t, err)

	got, err = pg.RunByID(ctx, stored.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestEnqueue_QueuedRunIsListedOnce(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()
	migrateRiver(t, pg)

	ctx := context.Background()

	run, err := worker.Enqueue(ctx, pg, worker.ReasonManual, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusRunning, run.Status)

	// a second export in the same period is rolled back with its run
	_, err = worker.Enqueue(ctx, pg, worker.ReasonManual, time.Now())
	require.ErrorIs(t, err, worker.ErrAlreadyQueued)

	runs, err := pg.LastRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, run.ID, runs[0].ID)

	var args string
	require.NoError(t, pg.DB.QueryRowContext(ctx,
		`SELECT args->>'runID' FROM river_job WHERE kind = $1`, worker.ExportJobArgs{}.Kind()).Scan(&args))
	require.Equal(t, run.ID.String(), args)
}

func TestPgSQL_WithTx_PanicRollsBack(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	run := runningRun()

	require.Panics(t, func() {
		_ = pg.WithTx(ctx, func(s storage.AllStorage) error {
			if _, err := s.StoreRun(ctx, run); err != nil {
				return err //nolint: wrapcheck
			}

			panic("boom")
		})
	})

	got, err := pg.RunByID(ctx, run.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}
