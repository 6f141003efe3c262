//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"covidexport/pkg/domain"
	"covidexport/pkg/storage"
)

func TestPgSQL_StoreRun_FillsDefaults(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	run, err := pg.StoreRun(ctx, domain.Run{Status: domain.RunStatusRunning})
	require.NoError(t, err)
	require.NotEqual(t, domain.RunID{}, run.ID)
	require.False(t, run.StartedAt.IsZero())
	require.True(t, run.FinishedAt.IsZero())
	require.Empty(t, run.LastError)
}

func TestPgSQL_FinishRun(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	started := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	run, err := pg.StoreRun(ctx, domain.Run{
		ID:        domain.NewRunID(),
		Status:    domain.RunStatusRunning,
		StartedAt: started,
	})
	require.NoError(t, err)

	finished := started.Add(42 * time.Second)
	got, err := pg.FinishRun(ctx, run.ID, storage.RunUpdates{
		Status:          domain.RunStatusPartial,
		Entities:        230,
		Artifacts:       230,
		FailedArtifacts: 1,
		LastError:       "could not write FRA.json: disk full",
		FinishedAt:      finished,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, domain.RunStatusPartial, got.Status)
	require.Equal(t, 1, got.FailedArtifacts)
	require.Equal(t, 42*time.Second, got.Duration())

	// finished runs are not updated again
	got, err = pg.FinishRun(ctx, run.ID, storage.RunUpdates{Status: domain.RunStatusFailed})
	require.NoError(t, err)
	require.Nil(t, got)

	stored, err := pg.RunByID(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusPartial, stored.Status)
	require.Equal(t, "could not write FRA.json: disk full", stored.LastError)
}

func TestPgSQL_RunByID_NotFound(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	run, err := pg.RunByID(context.Background(), domain.NewRunID())
	require.NoError(t, err)
	require.Nil(t, run)
}

func TestPgSQL_LastRuns(t *testing.T) {
	pg, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	var ids []domain.RunID
	for i := range 5 {
		run, err := pg.StoreRun(ctx, domain.Run{
			Status:    domain.RunStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := pg.LastRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, ids[4], runs[0].ID)
	require.Equal(t, ids[3], runs[1].ID)
	require.Equal(t, ids[2], runs[2].ID)

	runs, err = pg.LastRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 5)
}
