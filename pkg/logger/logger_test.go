package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"covidexport/pkg/logger"
)

func TestSetup_Levels(t *testing.T) {
	require.NoError(t, logger.Setup(logger.DevelopmentEnvironment, ""))
	require.True(t, logger.IsDebug(context.Background()))

	require.NoError(t, logger.Setup(logger.ProductionEnvironment, ""))
	require.False(t, logger.IsDebug(context.Background()))

	require.NoError(t, logger.Setup(logger.ProductionEnvironment, "debug"))
	require.True(t, logger.IsDebug(context.Background()))

	require.Error(t, logger.Setup(logger.DevelopmentEnvironment, "loud"))
}

func TestWithFields_AttachesToContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	ctx = logger.WithFields(ctx, zap.String("runID", "abc"))

	logger.Info(ctx, "run finished", zap.Int("entities", 3))
	logger.Debug(ctx, "dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "run finished", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "abc", fields["runID"])
	require.EqualValues(t, 3, fields["entities"])
}

func TestSlog_UsesContextCore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	logger.Slog(ctx).Info("from slog", "queue", "default")

	require.Equal(t, 1, logs.FilterMessage("from slog").Len())
}
