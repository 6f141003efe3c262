package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"covidexport/internal/api"
	"covidexport/internal/config"
	"covidexport/internal/worker"
	"covidexport/pkg/logger"
)

// scheduleCommand constructs the 'schedule' subcommand running the daily export
// as a River periodic job next to the API server.
func scheduleCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Starts API server and the daily export worker",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			setupMetrics(ctx)
			dir := getOutputDir(ctx, cfg)

			stopWebserver := setupServer(ctx, cfg, api.Deps{
				Artifacts: dir.FS(),
				Runs:      strg,
			})

			options := worker.NewOptions(cfg)
			riverClient, err := worker.Start(ctx, strg.Pool, getPipeline(ctx, cfg, dir, strg), options)
			if err != nil {
				logger.Fatal(ctx, "could not start export worker", zap.Error(err))
			}
			logger.Info(ctx, "export worker started",
				zap.Int("hour", options.Schedule.Hour),
				zap.Int("minute", options.Schedule.Minute),
				zap.Bool("runOnStart", options.RunOnStart))

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)

			logger.Info(ctx, "stopping export worker...")
			if err := riverClient.Stop(shutdownCtx); err != nil {
				logger.Error(ctx, "could not stop export worker", zap.Error(err))
			}
		},
	}

	return cmd
}
