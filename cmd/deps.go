package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/facebookgo/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"covidexport/internal/config"
	"covidexport/internal/emitter"
	"covidexport/internal/pipeline"
	"covidexport/pkg/artifacts/local"
	"covidexport/pkg/logger"
	"covidexport/pkg/metrics"
	"covidexport/pkg/publisher"
	"covidexport/pkg/publisher/github"
	"covidexport/pkg/publisher/s3"
	"covidexport/pkg/source/owid"
	"covidexport/pkg/storage"
	"covidexport/pkg/storage/postgres"
)

// getPostgres creates a PostgreSQL client using configuration values and returns it
// along with a cleanup function to close the connection pool.
func getPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func()) {
	pgsql, err := postgres.New(ctx, postgres.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err = pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

// setupMetrics exports the otel instruments to the default prometheus registry.
func setupMetrics(ctx context.Context) {
	if _, err := metrics.Setup(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal(ctx, "could not setup metrics", zap.Error(err))
	}
}

// getOutputDir opens the artifact directory, creating it when missing.
func getOutputDir(ctx context.Context, cfg *config.Config) *local.Dir {
	dir, err := local.New(cfg.Output.Dir)
	if err != nil {
		logger.Fatal(ctx, "could not open output directory", zap.Error(err))
	}

	return dir
}

// getPublishers creates the publishers enabled in cfg.
func getPublishers(ctx context.Context, cfg *config.Config, clk clock.Clock) ([]publisher.Publisher, error) {
	var publishers []publisher.Publisher

	if cfg.S3.Enabled {
		p, err := s3.New(s3.NewOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("could not create s3 publisher: %w", err)
		}
		publishers = append(publishers, p)
	}

	if cfg.GitHub.Enabled {
		publishers = append(publishers, github.New(ctx, clk, github.NewOptions(cfg)))
	}

	return publishers, nil
}

// getPipeline wires the export pipeline writing to dir. runs may be nil to
// skip the run history.
func getPipeline(ctx context.Context, cfg *config.Config, dir *local.Dir, runs storage.RunStorage) *pipeline.Pipeline {
	clk := clock.New()

	publishers, err := getPublishers(ctx, cfg, clk)
	if err != nil {
		logger.Fatal(ctx, "could not create publishers", zap.Error(err))
	}

	p, err := pipeline.New(pipeline.Deps{
		Source:     owid.New(http.DefaultClient, owid.NewOptions(cfg)),
		Emitter:    emitter.New(dir, emitter.NewOptions(cfg)),
		Artifacts:  dir.FS(),
		Publishers: publishers,
		Runs:       runs,
		Clock:      clk,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create pipeline", zap.Error(err))
	}

	return p
}
