// Package pipeline composes the source, the normalizer, the emitter and the
// publishers into export runs and records their outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"covidexport/internal/emitter"
	"covidexport/internal/normalizer"
	"covidexport/pkg/domain"
	"covidexport/pkg/logger"
	"covidexport/pkg/metrics"
	"covidexport/pkg/publisher"
	"covidexport/pkg/serrors"
	"covidexport/pkg/source"
	"covidexport/pkg/storage"
)

// Deps holds the collaborators of a Pipeline. Publishers and Runs are optional.
type Deps struct {
	// Source provides the raw document.
	Source source.Source
	// Emitter writes the artifacts.
	Emitter *emitter.Emitter
	// Artifacts exposes what Emitter wrote, for the publishers.
	Artifacts fs.FS
	// Publishers copy the written artifacts, in order.
	Publishers []publisher.Publisher
	// Runs records the run history when not nil.
	Runs storage.RunStorage
	// Clock is the time source, the wall clock when nil.
	Clock clock.Clock
	// Meter creates the run instruments, the global meter when nil.
	Meter metric.Meter
}

type instruments struct {
	entities         metric.Int64Counter
	artifactsWritten metric.Int64Counter
	artifactsFailed  metric.Int64Counter
	runDuration      metric.Float64Histogram
}

// Pipeline runs exports. It holds no state between runs and may be shared by
// the CLI and the scheduled worker.
type Pipeline struct {
	deps        Deps
	instruments instruments
}

// Ensure Pipeline conforms to the Runner interface at compile time.
var _ Runner = (*Pipeline)(nil)

// New validates deps and creates the run instruments.
func New(deps Deps) (*Pipeline, error) {
	if deps.Source == nil || deps.Emitter == nil {
		return nil, errors.New("source and emitter are required")
	}
	if len(deps.Publishers) > 0 && deps.Artifacts == nil {
		return nil, errors.New("artifacts file system is required to publish")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Meter == nil {
		deps.Meter = otel.Meter(metrics.MeterName)
	}

	ins, err := newInstruments(deps.Meter)
	if err != nil {
		return nil, err
	}

	return &Pipeline{deps: deps, instruments: ins}, nil
}

func newInstruments(m metric.Meter) (instruments, error) {
	var (
		ins  instruments
		err  error
		errs []error
	)
	ins.entities, err = m.Int64Counter("covidexport.entities",
		metric.WithDescription("Entities normalized from the source document"))
	errs = append(errs, err)
	ins.artifactsWritten, err = m.Int64Counter("covidexport.artifacts.written",
		metric.WithDescription("Artifacts written, metadata included"))
	errs = append(errs, err)
	ins.artifactsFailed, err = m.Int64Counter("covidexport.artifacts.failed",
		metric.WithDescription("Entity artifacts that could not be written"))
	errs = append(errs, err)
	ins.runDuration, err = m.Float64Histogram("covidexport.run.duration",
		metric.WithDescription("Duration of export runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.RunBuckets...))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return ins, fmt.Errorf("could not create instruments: %w", err)
	}

	return ins, nil
}

// Run performs one export recorded as a new run.
//
// A fetch, normalization or metadata write failure fails the run: the returned
// run has status FAILED and the error is returned. Entity write failures and
// publisher failures make the run PARTIAL, with a nil error. The run is
// recorded in Runs when configured; history failures are logged only.
func (p *Pipeline) Run(ctx context.Context) (*domain.Run, error) {
	run := p.newRun(domain.NewRunID())

	return p.execute(ctx, run, p.store(ctx, run))
}

// RunQueued performs the export of the run stored with id when its job was
// enqueued, and finishes that run instead of recording a new one. A new run is
// recorded when the queued one is unknown or has already finished, which is
// the case when a failed job is retried. Results are reported as by Run.
func (p *Pipeline) RunQueued(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	run := p.newRun(id)

	return p.execute(ctx, run, p.claim(ctx, run))
}

func (p *Pipeline) newRun(id domain.RunID) *domain.Run {
	return &domain.Run{
		ID:        id,
		Status:    domain.RunStatusRunning,
		StartedAt: p.deps.Clock.Now(),
	}
}

func (p *Pipeline) execute(ctx context.Context, run *domain.Run, recorded bool) (*domain.Run, error) {
	ctx = logger.WithFields(ctx, zap.Stringer("runID", run.ID))
	logger.Info(ctx, "export run started")

	err := p.run(ctx, run)
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.LastError = err.Error()
	}
	run.FinishedAt = p.deps.Clock.Now()

	p.record(ctx, run)
	if recorded {
		p.finish(ctx, run)
	}

	fields := []zap.Field{
		zap.String("status", string(run.Status)),
		zap.Int("entities", run.Entities),
		zap.Int("artifacts", run.Artifacts),
		zap.Int("failedArtifacts", run.FailedArtifacts),
		zap.Duration("duration", run.Duration()),
	}
	switch run.Status {
	case domain.RunStatusFailed:
		logger.Error(ctx, "export run failed", append(fields, zap.Error(err))...)

		return run, err
	case domain.RunStatusPartial:
		logger.Warn(ctx, "export run finished with failures", append(fields, zap.String("error", run.LastError))...)
	default:
		logger.Info(ctx, "export run completed", fields...)
	}

	return run, nil
}

func (p *Pipeline) run(ctx context.Context, run *domain.Run) error {
	ds, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	run.Entities = ds.Len()

	report, err := p.deps.Emitter.Emit(ctx, ds)
	if err != nil {
		return err
	}
	run.Artifacts = len(report.Artifacts)
	run.FailedArtifacts = len(report.Failures)

	var partial []error
	for _, f := range report.Failures {
		logger.Warn(ctx, "could not write entity artifact",
			zap.String("code", f.Code),
			zap.String("artifact", f.Artifact),
			zap.Error(f.Err))
	}
	if report.Failed() {
		partial = append(partial, report.Err())
	}

	// only the artifacts of this run are published
	for _, pub := range p.deps.Publishers {
		pctx := logger.WithFields(ctx, zap.String("publisher", pub.Name()))
		if err := pub.Publish(pctx, p.deps.Artifacts, report.Artifacts); err != nil {
			logger.Warn(pctx, "could not publish artifacts", zap.Error(err))
			partial = append(partial, fmt.Errorf("%s: %w", pub.Name(), err))

			continue
		}
		logger.Info(pctx, "artifacts published", zap.Int("artifacts", len(report.Artifacts)))
	}

	run.Status = domain.RunStatusCompleted
	if err := errors.Join(partial...); err != nil {
		run.Status = domain.RunStatusPartial
		run.LastError = err.Error()
	}

	return nil
}

// fetch streams the source document through the normalizer.
func (p *Pipeline) fetch(ctx context.Context) (*domain.Dataset, error) {
	body, err := p.deps.Source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch source: %w", err)
	}
	defer func() {
		_ = body.Close()
	}()

	ds, err := normalizer.Decode(body)
	if err != nil {
		if errors.Is(err, serrors.ErrMalformedInput) {
			return nil, err
		}

		return nil, fmt.Errorf("could not fetch source: %w", err)
	}
	logger.Debug(ctx, "source document normalized", zap.Int("entities", ds.Len()))

	return ds, nil
}

func (p *Pipeline) store(ctx context.Context, run *domain.Run) bool {
	if p.deps.Runs == nil {
		return false
	}

	stored, err := p.deps.Runs.StoreRun(ctx, *run)
	if err != nil {
		logger.Warn(ctx, "could not store run", zap.Error(err))

		return false
	}
	run.ID = stored.ID

	return true
}

// claim takes over a queued run. It falls back to storing run under a new ID
// when the queued one cannot be used.
func (p *Pipeline) claim(ctx context.Context, run *domain.Run) bool {
	if p.deps.Runs == nil {
		return false
	}

	queued, err := p.deps.Runs.RunByID(ctx, run.ID)
	switch {
	case err != nil:
		logger.Warn(ctx, "could not load queued run", zap.Stringer("queuedRunID", run.ID), zap.Error(err))
	case queued == nil:
		logger.Warn(ctx, "queued run not found", zap.Stringer("queuedRunID", run.ID))
	case queued.Status != domain.RunStatusRunning:
		logger.Info(ctx, "queued run already finished, recording a new run",
			zap.Stringer("queuedRunID", run.ID),
			zap.String("queuedStatus", string(queued.Status)))
	default:
		return true
	}

	run.ID = domain.NewRunID()

	return p.store(ctx, run)
}

func (p *Pipeline) finish(ctx context.Context, run *domain.Run) {
	_, err := p.deps.Runs.FinishRun(ctx, run.ID, storage.RunUpdates{
		StartedAt:       run.StartedAt,
		Status:          run.Status,
		Entities:        run.Entities,
		Artifacts:       run.Artifacts,
		FailedArtifacts: run.FailedArtifacts,
		LastError:       run.LastError,
		FinishedAt:      run.FinishedAt,
	})
	if err != nil {
		logger.Warn(ctx, "could not finish run", zap.Error(err))
	}
}

func (p *Pipeline) record(ctx context.Context, run *domain.Run) {
	attrs := metric.WithAttributes(attribute.String("status", string(run.Status)))

	p.instruments.entities.Add(ctx, int64(run.Entities), attrs)
	p.instruments.artifactsWritten.Add(ctx, int64(run.Artifacts), attrs)
	p.instruments.artifactsFailed.Add(ctx, int64(run.FailedArtifacts), attrs)
	p.instruments.runDuration.Record(ctx, run.Duration().Seconds(), attrs)
}
