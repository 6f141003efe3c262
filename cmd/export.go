package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"covidexport/internal/config"
	"covidexport/internal/worker"
	"covidexport/pkg/logger"
	"covidexport/pkg/storage"
)

// exportCommand constructs the 'export' subcommand running a single export in
// the foreground, or enqueueing one for the scheduler with --enqueue.
func exportCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetches the source document and writes the artifacts once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			history, _ := cmd.Flags().GetBool("history")
			enqueue, _ := cmd.Flags().GetBool("enqueue")

			if enqueue {
				strg, closeStrg := getPostgres(ctx, cfg)
				defer closeStrg()

				run, err := worker.Enqueue(ctx, strg, worker.ReasonManual, time.Now())
				if errors.Is(err, worker.ErrAlreadyQueued) {
					logger.Info(ctx, "an export job is already queued")

					return nil
				}
				if err != nil {
					logger.Error(ctx, "could not enqueue export job", zap.Error(err))

					return err
				}
				ctx = logger.WithFields(ctx, zap.Stringer("runID", run.ID))
				logger.Info(ctx, "export job enqueued")

				return nil
			}

			var runs storage.RunStorage
			if history {
				strg, closeStrg := getPostgres(ctx, cfg)
				defer closeStrg()
				runs = strg
			}

			setupMetrics(ctx)
			p := getPipeline(ctx, cfg, getOutputDir(ctx, cfg), runs)

			// partial runs exit zero, the written artifacts are consistent
			_, err := p.Run(ctx)

			return err
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("history", false, "Record the run in the database")
	cmd.Flags().Bool("enqueue", false, "Queue the run for the scheduler instead of running it, it is listed in the history at once")
	cmd.MarkFlagsMutuallyExclusive("history", "enqueue")

	return cmd
}
