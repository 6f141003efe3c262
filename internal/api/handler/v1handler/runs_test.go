package v1handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"covidexport/internal/api/handler/v1handler"
	"covidexport/internal/api/specs/v1specs"
	"covidexport/pkg/domain"
	mockstorage "covidexport/pkg/storage/mock"
)

func sampleRun(status domain.RunStatus, finished bool) domain.Run {
	started := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	run := domain.Run{
		ID:        domain.NewRunID(),
		Status:    status,
		Entities:  230,
		Artifacts: 231,
		StartedAt: started,
	}
	if finished {
		run.FinishedAt = started.Add(time.Minute)
	}

	return run
}

func Test_DomainRunToV1Specs_Mapping(t *testing.T) {
	in := sampleRun(domain.RunStatusPartial, true)
	in.FailedArtifacts = 2
	in.LastError = "2 artifacts failed"

	out := v1handler.DomainRunToV1Specs(&in)

	if got := domain.RunID(out.ID); got != in.ID {
		t.Fatalf("id = %s, want %s", got, in.ID)
	}
	if out.Status != v1specs.RunStatus(domain.RunStatusPartial) {
		t.Fatalf("status = %q", out.Status)
	}
	if out.Entities != 230 || out.Artifacts != 231 || out.FailedArtifacts != 2 {
		t.Fatalf("counters = %d/%d/%d", out.Entities, out.Artifacts, out.FailedArtifacts)
	}
	if !out.LastError.IsSet() || out.LastError.Value != "2 artifacts failed" {
		t.Fatalf("lastError = %#v", out.LastError)
	}
	if !out.StartedAt.Equal(in.StartedAt) {
		t.Fatalf("startedAt = %s", out.StartedAt)
	}
	if !out.FinishedAt.IsSet() || !out.FinishedAt.Value.Equal(in.FinishedAt) {
		t.Fatalf("finishedAt = %#v", out.FinishedAt)
	}
}

func Test_DomainRunToV1Specs_RunningRunHasNoFinishTime(t *testing.T) {
	in := sampleRun(domain.RunStatusRunning, false)

	out := v1handler.DomainRunToV1Specs(&in)

	if out.FinishedAt.IsSet() {
		t.Fatalf("finishedAt should be unset while running")
	}
	if out.LastError.IsSet() {
		t.Fatalf("lastError should be unset without an error")
	}
}

func TestHandler_ListRuns_DefaultLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mockstorage.NewMockRunStorage(ctrl)
	h := v1handler.New(v1handler.Deps{Runs: m})

	ctx := context.Background()
	runs := []domain.Run{
		sampleRun(domain.RunStatusRunning, false),
		sampleRun(domain.RunStatusCompleted, true),
	}
	m.EXPECT().LastRuns(ctx, uint(v1handler.DefaultLimit)).Return(runs, nil)

	res, err := h.ListRuns(ctx, v1specs.ListRunsParams{})
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	lst := res.(*v1specs.RunList)
	if len(lst.Runs) != 2 {
		t.Fatalf("runs len = %d", len(lst.Runs))
	}
	if lst.Runs[0].Status != v1specs.RunStatus(domain.RunStatusRunning) {
		t.Fatalf("expected newest run first, got %q", lst.Runs[0].Status)
	}
}

func TestHandler_ListRuns_CustomLimit_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mockstorage.NewMockRunStorage(ctrl)
	h := v1handler.New(v1handler.Deps{Runs: m})

	ctx := context.Background()
	m.EXPECT().LastRuns(ctx, uint(5)).Return(nil, nil)

	res, err := h.ListRuns(ctx, v1specs.ListRunsParams{Limit: v1specs.NewOptInt(5)})
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	lst := res.(*v1specs.RunList)
	if lst.Runs == nil || len(lst.Runs) != 0 {
		t.Fatalf("expected an empty, non-nil list, got %#v", lst.Runs)
	}
}

func TestHandler_ListRuns_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mockstorage.NewMockRunStorage(ctrl)
	h := v1handler.New(v1handler.Deps{Runs: m})

	ctx := context.Background()
	m.EXPECT().LastRuns(ctx, gomock.Any()).Return(nil, errors.New("db down"))

	if _, err := h.ListRuns(ctx, v1specs.ListRunsParams{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestHandler_NewError(t *testing.T) {
	h := v1handler.New(v1handler.Deps{})

	res := h.NewError(context.Background(), errors.New("boom"))
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", res.StatusCode)
	}
}
