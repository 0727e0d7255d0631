package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaults(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))
	require.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewDevelopmentDebug(t *testing.T) {
	log, err := New(Config{Level: "DEBUG", Encoding: "console", IsDevelopment: true})
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.ErrorContains(t, err, "invalid log level")

	_, err = New(Config{Encoding: "xml"})
	require.ErrorContains(t, err, "invalid log encoding")
}
