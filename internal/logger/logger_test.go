package logger_test

import (
	"context"
	"testing"

	"github.com/Zachdehooge/pothole-dashboard/internal/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetWithoutSetupIsUsable(t *testing.T) {
	require.NotPanics(t, func() {
		logger.Info(context.Background(), "before setup")
	})
}

func TestSetup(t *testing.T) {
	for _, env := range []string{logger.DevelopmentEnvironment, logger.ProductionEnvironment, "staging"} {
		t.Run(env, func(t *testing.T) {
			require.NotPanics(t, func() { logger.Setup(env) })
			require.NotNil(t, logger.Get(context.Background()))
		})
	}
}

func TestIsDebug(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)
	require.True(t, logger.IsDebug(context.Background()))

	logger.Setup(logger.ProductionEnvironment)
	require.False(t, logger.IsDebug(context.Background()))
}

func TestWithFieldsAttachesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	ctx = logger.WithFields(ctx, zap.String("run_id", "abc"))

	logger.Warn(ctx, "skipped address", zap.Int("count", 3))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "skipped address", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "abc", fields["run_id"])
	require.EqualValues(t, 3, fields["count"])
}
