// Package emitter writes a normalized Dataset as artifacts: one metadata
// artifact describing every entity and one time-series artifact per entity.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"covidexport/internal/config"
	"covidexport/pkg/domain"
	"covidexport/pkg/serrors"
)

const (
	// ArtifactExt is appended to an entity code to name its series artifact.
	ArtifactExt = ".json"
	// MetadataArtifact is the fixed name of the artifact holding all entity metadata.
	MetadataArtifact = domain.MetadataCode + ArtifactExt
)

// ArtifactName returns the name of the series artifact for code. Consumers can
// compute it from the code alone, no index is needed.
func ArtifactName(code string) string {
	return code + ArtifactExt
}

// Options configure how artifacts are written.
type Options struct {
	// Concurrency bounds the number of entity artifacts written at the same
	// time. Values below 1 mean sequential writes.
	Concurrency int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Concurrency: cfg.Output.Concurrency,
	}
}

// EntityFailure describes an entity artifact that could not be written.
type EntityFailure struct {
	// Code is the entity whose artifact failed.
	Code string
	// Artifact is the artifact name that was being written.
	Artifact string
	// Err is the write error, always of kind serrors.ErrWriteFailure.
	Err error
}

// Report lists the outcome of an Emit call. Artifacts and Failures follow the
// dataset order regardless of the order in which writes completed.
type Report struct {
	// Artifacts holds the names of every artifact written, metadata first.
	Artifacts []string
	// Failures holds one entry per entity artifact that could not be written.
	Failures []EntityFailure
}

// Failed reports whether any entity artifact failed.
func (r *Report) Failed() bool { return len(r.Failures) > 0 }

// Err joins all entity failures into one error, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}

	return errors.Join(errs...)
}

// Emitter writes datasets to a Sink.
type Emitter struct {
	sink    Sink
	options Options
}

// New creates an Emitter writing to sink.
func New(sink Sink, options Options) *Emitter {
	return &Emitter{
		sink:    sink,
		options: options,
	}
}

// Emit writes the metadata artifact and then one artifact per entity of ds.
//
// A failure to write the metadata artifact aborts the emit and is returned as
// serrors.ErrWriteFailure; no entity artifact is written in that case. Entity
// artifacts are written independently: a failure is recorded in the report
// against its code and the remaining writes still run. Artifacts written before
// a failure are left in place.
func (e *Emitter) Emit(ctx context.Context, ds *domain.Dataset) (*Report, error) {
	if err := e.sink.WriteArtifact(ctx, MetadataArtifact, EncodeMetadata(ds)); err != nil {
		return nil, serrors.Wrap(serrors.ErrWriteFailure, err, "could not write %s", MetadataArtifact)
	}

	results := make([]error, len(ds.Codes))

	var g errgroup.Group
	g.SetLimit(max(1, e.options.Concurrency))
	for i, code := range ds.Codes {
		g.Go(func() error {
			results[i] = e.writeSeries(ctx, code, ds.Series[code])

			// failures are collected per code, siblings keep running
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Artifacts: make([]string, 0, len(ds.Codes)+1)}
	report.Artifacts = append(report.Artifacts, MetadataArtifact)
	for i, code := range ds.Codes {
		if results[i] != nil {
			report.Failures = append(report.Failures, EntityFailure{
				Code:     code,
				Artifact: ArtifactName(code),
				Err:      results[i],
			})

			continue
		}
		report.Artifacts = append(report.Artifacts, ArtifactName(code))
	}

	return report, nil
}

func (e *Emitter) writeSeries(ctx context.Context, code string, records []domain.DailyRecord) error {
	name := ArtifactName(code)
	if strings.EqualFold(name, MetadataArtifact) {
		return serrors.With(serrors.ErrWriteFailure, "could not write %s: reserved for the metadata", name)
	}
	if err := ctx.Err(); err != nil {
		return serrors.Wrap(serrors.ErrWriteFailure, err, "could not write %s", name)
	}

	if err := e.sink.WriteArtifact(ctx, name, EncodeSeries(records)); err != nil {
		return serrors.Wrap(serrors.ErrWriteFailure, err, "could not write %s", name)
	}

	return nil
}

// String returns a short human readable summary of the report.
func (r *Report) String() string {
	return fmt.Sprintf("%d artifacts written, %d failed", len(r.Artifacts), len(r.Failures))
}
