package pipeline_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/mock/gomock"

	"covidexport/internal/emitter"
	"covidexport/internal/pipeline"
	"covidexport/pkg/artifacts/local"
	"covidexport/pkg/domain"
	"covidexport/pkg/publisher"
	mockpublisher "covidexport/pkg/publisher/mock"
	"covidexport/pkg/serrors"
	mocksource "covidexport/pkg/source/mock"
	"covidexport/pkg/storage"
	mockstorage "covidexport/pkg/storage/mock"
)

const rawDocument = `{
	"OWID_WRL": {"location": "World", "population": 7800000000,
		"data": [{"date": "2021-01-01", "new_cases": 500000}]},
	"OWID_EUR": {"location": "Europe", "population": 748000000, "data": []},
	"FRA": {"continent": "Europe", "location": "France", "population": 67000000,
		"data": [{"date": "2021-01-01", "new_cases": 10, "new_deaths": 1}]}
}`

type testEnv struct {
	ctrl      *gomock.Controller
	source    *mocksource.MockSource
	publisher *mockpublisher.MockPublisher
	runs      *mockstorage.MockRunStorage
	clock     *clock.Mock
	reader    *sdkmetric.ManualReader
	dir       *local.Dir
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	dir, err := local.New(t.TempDir())
	require.NoError(t, err)

	return &testEnv{
		ctrl:      ctrl,
		source:    mocksource.NewMockSource(ctrl),
		publisher: mockpublisher.NewMockPublisher(ctrl),
		runs:      mockstorage.NewMockRunStorage(ctrl),
		clock:     clock.NewMock(),
		reader:    sdkmetric.NewManualReader(),
		dir:       dir,
	}
}

func (e *testEnv) pipeline(t *testing.T, sink emitter.Sink, withHistory bool) *pipeline.Pipeline {
	t.Helper()

	deps := pipeline.Deps{
		Source:     e.source,
		Emitter:    emitter.New(sink, emitter.Options{Concurrency: 2}),
		Artifacts:  e.dir.FS(),
		Publishers: []publisher.Publisher{e.publisher},
		Clock:      e.clock,
		Meter:      sdkmetric.NewMeterProvider(sdkmetric.WithReader(e.reader)).Meter("test"),
	}
	if withHistory {
		deps.Runs = e.runs
	}

	p, err := pipeline.New(deps)
	require.NoError(t, err)

	return p
}

// document returns body as an open source document.
func document(body string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(body))
}

// fetchTaking returns the document after advancing the clock by d.
func (e *testEnv) fetchTaking(d time.Duration, body string) func(context.Context) (io.ReadCloser, error) {
	return func(context.Context) (io.ReadCloser, error) {
		e.clock.Add(d)

		return document(body), nil
	}
}

func (e *testEnv) sum(t *testing.T, name string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, e.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			var total int64
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}

			return total
		}
	}

	return 0
}

// failingSink fails the writes of the listed artifacts and delegates the rest.
type failingSink struct {
	emitter.Sink
	fail map[string]bool
}

func (s failingSink) WriteArtifact(ctx context.Context, name string, body []byte) error {
	if s.fail[name] {
		return errors.New("disk full")
	}

	return s.Sink.WriteArtifact(ctx, name, body)
}

func TestPipeline_Run_Completed(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, false)

	env.source.EXPECT().Open(gomock.Any()).DoAndReturn(env.fetchTaking(3*time.Second, rawDocument))
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), []string{"countries.json", "WRL.json", "FRA.json"}).
		DoAndReturn(func(_ context.Context, fsys fs.FS, names []string) error {
			for _, name := range names {
				_, err := fs.Stat(fsys, name)
				require.NoError(t, err)
			}

			return nil
		})

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusCompleted, run.Status)
	require.Equal(t, 2, run.Entities)
	require.Equal(t, 3, run.Artifacts)
	require.Zero(t, run.FailedArtifacts)
	require.Empty(t, run.LastError)
	require.Equal(t, 3*time.Second, run.Duration())

	_, err = os.Stat(filepath.Join(env.dir.Path(), "OWID_EUR.json"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.EqualValues(t, 2, env.sum(t, "covidexport.entities"))
	require.EqualValues(t, 3, env.sum(t, "covidexport.artifacts.written"))
}

func TestPipeline_Run_RecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, true)

	var id domain.RunID
	env.source.EXPECT().Open(gomock.Any()).DoAndReturn(env.fetchTaking(time.Second, rawDocument))
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		env.runs.EXPECT().StoreRun(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, run domain.Run) (*domain.Run, error) {
				require.Equal(t, domain.RunStatusRunning, run.Status)
				require.True(t, run.StartedAt.Equal(time.Unix(0, 0)))
				id = run.ID

				return &run, nil
			}),
		env.runs.EXPECT().FinishRun(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, got domain.RunID, updates storage.RunUpdates) (*domain.Run, error) {
				require.Equal(t, id, got)
				require.Equal(t, domain.RunStatusCompleted, updates.Status)
				require.Equal(t, 2, updates.Entities)
				require.Equal(t, 3, updates.Artifacts)
				require.True(t, updates.FinishedAt.Equal(time.Unix(1, 0)))

				return &domain.Run{ID: got}, nil
			}),
	)

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, id, run.ID)
}

func TestPipeline_Run_HistoryFailureDoesNotFailRun(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, true)

	env.source.EXPECT().Open(gomock.Any()).Return(document(rawDocument), nil)
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	env.runs.EXPECT().StoreRun(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	// FinishRun must not be called for a run that was never stored

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusCompleted, run.Status)
}

func TestPipeline_Run_FetchFailure(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, true)

	env.runs.EXPECT().StoreRun(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, run domain.Run) (*domain.Run, error) { return &run, nil })
	env.source.EXPECT().Open(gomock.Any()).Return(nil, serrors.With(serrors.ErrUnavailable, "down"))
	env.runs.EXPECT().FinishRun(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.RunID, updates storage.RunUpdates) (*domain.Run, error) {
			require.Equal(t, domain.RunStatusFailed, updates.Status)
			require.Contains(t, updates.LastError, "down")

			return nil, nil
		})

	run, err := p.Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestPipeline_Run_MalformedInputWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, false)

	env.source.EXPECT().Open(gomock.Any()).Return(document(`{"FRA": {"location": "France"}}`), nil)

	run, err := p.Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrMalformedInput)
	require.Equal(t, domain.RunStatusFailed, run.Status)

	entries, err := os.ReadDir(env.dir.Path())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPipeline_Run_MetadataFailure(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, failingSink{Sink: env.dir, fail: map[string]bool{"countries.json": true}}, false)

	env.source.EXPECT().Open(gomock.Any()).Return(document(rawDocument), nil)

	run, err := p.Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrWriteFailure)
	require.Equal(t, domain.RunStatusFailed, run.Status)
	require.Equal(t, 2, run.Entities)
}

func TestPipeline_Run_EntityFailureIsPartial(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, failingSink{Sink: env.dir, fail: map[string]bool{"FRA.json": true}}, false)

	env.source.EXPECT().Open(gomock.Any()).Return(document(rawDocument), nil)
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), []string{"countries.json", "WRL.json"}).Return(nil)

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusPartial, run.Status)
	require.Equal(t, 2, run.Artifacts)
	require.Equal(t, 1, run.FailedArtifacts)
	require.Contains(t, run.LastError, "FRA.json")
	require.EqualValues(t, 1, env.sum(t, "covidexport.artifacts.failed"))
}

func TestPipeline_Run_PublishFailureIsPartial(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, false)

	env.source.EXPECT().Open(gomock.Any()).Return(document(rawDocument), nil)
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("bucket gone"))

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusPartial, run.Status)
	require.Zero(t, run.FailedArtifacts)
	require.Contains(t, run.LastError, "fake: bucket gone")
}

// brokenBody fails after the first bytes of the document.
type brokenBody struct {
	sent bool
}

func (b *brokenBody) Read(p []byte) (int, error) {
	if b.sent {
		return 0, serrors.With(serrors.ErrUnavailable, "connection reset")
	}
	b.sent = true

	return copy(p, `{"FRA": {"location": "Fr`), nil
}

func (b *brokenBody) Close() error { return nil }

func TestPipeline_Run_ReadFailureIsNotMalformed(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, false)

	env.source.EXPECT().Open(gomock.Any()).Return(&brokenBody{}, nil)

	run, err := p.Run(context.Background())
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.NotErrorIs(t, err, serrors.ErrMalformedInput)
	require.Equal(t, domain.RunStatusFailed, run.Status)
}

func TestPipeline_RunQueued_FinishesQueuedRun(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, true)

	queued := domain.NewRunID()
	env.clock.Add(time.Minute)
	env.source.EXPECT().Open(gomock.Any()).DoAndReturn(env.fetchTaking(time.Second, rawDocument))
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		env.runs.EXPECT().RunByID(gomock.Any(), queued).
			Return(&domain.Run{ID: queued, Status: domain.RunStatusRunning, StartedAt: time.Unix(0, 0)}, nil),
		env.runs.EXPECT().FinishRun(gomock.Any(), queued, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.RunID, updates storage.RunUpdates) (*domain.Run, error) {
				require.Equal(t, domain.RunStatusCompleted, updates.Status)
				// the run starts when the job is worked, not when it was queued
				require.True(t, updates.StartedAt.Equal(time.Unix(60, 0)))
				require.True(t, updates.FinishedAt.Equal(time.Unix(61, 0)))

				return &domain.Run{ID: queued}, nil
			}),
	)
	// StoreRun must not be called for a queued run

	run, err := p.RunQueued(context.Background(), queued)
	require.NoError(t, err)
	require.Equal(t, queued, run.ID)
	require.Equal(t, time.Second, run.Duration())
}

func TestPipeline_RunQueued_RetryRecordsNewRun(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, true)

	queued := domain.NewRunID()
	var stored domain.RunID
	env.source.EXPECT().Open(gomock.Any()).Return(nil, serrors.With(serrors.ErrUnavailable, "down"))
	gomock.InOrder(
		env.runs.EXPECT().RunByID(gomock.Any(), queued).
			Return(&domain.Run{ID: queued, Status: domain.RunStatusFailed}, nil),
		env.runs.EXPECT().StoreRun(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, run domain.Run) (*domain.Run, error) {
				require.NotEqual(t, queued, run.ID)
				stored = run.ID

				return &run, nil
			}),
		env.runs.EXPECT().FinishRun(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, got domain.RunID, updates storage.RunUpdates) (*domain.Run, error) {
				require.Equal(t, stored, got)
				require.Equal(t, domain.RunStatusFailed, updates.Status)

				return nil, nil
			}),
	)

	run, err := p.RunQueued(context.Background(), queued)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Equal(t, stored, run.ID)
}

func TestPipeline_RunQueued_WithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, env.dir, false)

	env.source.EXPECT().Open(gomock.Any()).Return(document(rawDocument), nil)
	env.publisher.EXPECT().Name().Return("fake").AnyTimes()
	env.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	id := domain.NewRunID()
	run, err := p.RunQueued(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, run.ID)
	require.Equal(t, domain.RunStatusCompleted, run.Status)
}

func TestNew_Validation(t *testing.T) {
	_, err := pipeline.New(pipeline.Deps{})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = pipeline.New(pipeline.Deps{
		Source:     mocksource.NewMockSource(ctrl),
		Emitter:    emitter.New(nil, emitter.Options{}),
		Publishers: []publisher.Publisher{mockpublisher.NewMockPublisher(ctrl)},
	})
	require.Error(t, err)
}
