package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"covidexport/internal/config"
	mockpipeline "covidexport/internal/pipeline/mock"
	"covidexport/internal/worker"
	"covidexport/pkg/domain"
	"covidexport/pkg/logger"
	"covidexport/pkg/serrors"
)

func TestMain(m *testing.M) {
	if err := logger.Setup(logger.DevelopmentEnvironment, ""); err != nil {
		panic(err)
	}
	m.Run()
}

func makeJob(id int64, reason string) *river.Job[worker.ExportJobArgs] {
	return &river.Job[worker.ExportJobArgs]{
		JobRow: &rivertype.JobRow{ID: id, Attempt: 1},
		Args:   worker.ExportJobArgs{Reason: reason},
	}
}

func TestExportWorker_Work_Success(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	runner.EXPECT().Run(gomock.Any()).Return(&domain.Run{Status: domain.RunStatusCompleted}, nil)

	require.NoError(t, w.Work(context.Background(), makeJob(1, worker.ReasonScheduled)))
}

func TestExportWorker_Work_PartialSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	runner.EXPECT().Run(gomock.Any()).Return(&domain.Run{Status: domain.RunStatusPartial, LastError: "s3: boom"}, nil)

	require.NoError(t, w.Work(context.Background(), makeJob(2, worker.ReasonManual)))
}

func TestExportWorker_Work_MalformedCancels(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	runner.EXPECT().Run(gomock.Any()).
		Return(&domain.Run{Status: domain.RunStatusFailed}, serrors.With(serrors.ErrMalformedInput, "missing location"))

	err := w.Work(context.Background(), makeJob(3, worker.ReasonScheduled))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestExportWorker_Work_RateLimitedSnoozes(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	runner.EXPECT().Run(gomock.Any()).
		Return(&domain.Run{Status: domain.RunStatusFailed}, serrors.With(serrors.ErrRateLimited, "429"))

	err := w.Work(context.Background(), makeJob(4, worker.ReasonScheduled))
	var snoozeErr *river.JobSnoozeError
	require.ErrorAs(t, err, &snoozeErr)
	require.Positive(t, snoozeErr.Duration)
}

func TestExportWorker_Work_GenericErrorRetried(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	runErr := serrors.With(serrors.ErrUnavailable, "source down")
	runner.EXPECT().Run(gomock.Any()).Return(&domain.Run{Status: domain.RunStatusFailed}, runErr)

	err := w.Work(context.Background(), makeJob(5, worker.ReasonScheduled))
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	var cancelErr *river.JobCancelError
	require.NotErrorAs(t, err, &cancelErr, "did not expect JobCancelError")
	var snoozeErr *river.JobSnoozeError
	require.NotErrorAs(t, err, &snoozeErr, "did not expect JobSnoozeError")
}

func TestExportWorker_Work_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Work(ctx, makeJob(6, worker.ReasonScheduled))
	require.ErrorIs(t, err, context.Canceled)
}

func TestExportWorker_Work_SerializesRuns(t *testing.T) {
	ctrl := gomock.NewController(t)

	runner := mockpipeline.NewMockRunner(ctrl)
	w := worker.NewExportWorker(runner, time.Minute)

	var inFlight, maxInFlight atomic.Int32
	runner.EXPECT().Run(gomock.Any()).Times(4).DoAndReturn(func(context.Context) (*domain.Run, error) {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)

		return &domain.Run{Status: domain.RunStatusCompleted}, nil
	})

	errs := make(chan error, 4)
	for i := range 4 {
		go func() { errs <- w.Work(context.Background(), makeJob(int64(10+i), worker.ReasonManual)) }()
	}
	for range 4 {
		require.NoError(t, <-errs)
	}
	require.EqualValues(t, 1, maxInFlight.Load())
}

func TestExportWorker_Timeout(t *testing.T) {
	w := worker.NewExportWorker(nil, 7*time.Minute)
	require.Equal(t, 7*time.Minute, w.Timeout(makeJob(1, "")))
}

func TestExportJobArgs(t *testing.T) {
	args := worker.ExportJobArgs{Reason: worker.ReasonManual}
	require.Equal(t, "ExportJob", args.Kind())

	opts := args.InsertOpts()
	require.Positive(t, opts.MaxAttempts)
	require.False(t, opts.UniqueOpts.ByArgs)
	require.Equal(t, time.Hour, opts.UniqueOpts.ByPeriod)
	require.Contains(t, opts.UniqueOpts.ByState, rivertype.JobStateRunning)
}

func TestDailySchedule_Next(t *testing.T) {
	s := worker.DailySchedule{Hour: 6, Minute: 30}

	tests := []struct {
		name    string
		current time.Time
		want    time.Time
	}{
		{
			name:    "later the same day",
			current: time.Date(2021, 3, 1, 5, 0, 0, 0, time.UTC),
			want:    time.Date(2021, 3, 1, 6, 30, 0, 0, time.UTC),
		},
		{
			name:    "exactly at the firing time moves to the next day",
			current: time.Date(2021, 3, 1, 6, 30, 0, 0, time.UTC),
			want:    time.Date(2021, 3, 2, 6, 30, 0, 0, time.UTC),
		},
		{
			name:    "after the firing time",
			current: time.Date(2021, 3, 1, 23, 59, 0, 0, time.UTC),
			want:    time.Date(2021, 3, 2, 6, 30, 0, 0, time.UTC),
		},
		{
			name:    "end of month",
			current: time.Date(2021, 2, 28, 7, 0, 0, 0, time.UTC),
			want:    time.Date(2021, 3, 1, 6, 30, 0, 0, time.UTC),
		},
		{
			name:    "non UTC input",
			current: time.Date(2021, 3, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600)),
			want:    time.Date(2021, 3, 2, 6, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, s.Next(tt.current))
		})
	}
}

func TestDailySchedule_Midnight(t *testing.T) {
	s := worker.DailySchedule{}
	got := s.Next(time.Date(2021, 12, 31, 12, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestNewOptions(t *testing.T) {
	var cfg config.Config
	cfg.Schedule.Hour = 2
	cfg.Schedule.Minute = 15
	cfg.Schedule.RunOnStart = true
	cfg.Source.Timeout = time.Minute
	cfg.Source.MaxRetries = 3

	options := worker.NewOptions(&cfg)
	require.Equal(t, worker.DailySchedule{Hour: 2, Minute: 15}, options.Schedule)
	require.True(t, options.RunOnStart)
	require.Equal(t, 5*time.Minute, options.JobTimeout)
	require.NotNil(t, worker.PeriodicExport(options))
}

