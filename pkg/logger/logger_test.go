package logger_test

import (
	"testing"

	"inventario/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_LevelFromConfig(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "warn", Environment: "development", ServiceName: "inventario"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = logger.New(logger.Config{Level: "unknown", Environment: "production", ServiceName: "inventario"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
