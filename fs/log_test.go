package fs

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelSet(t *testing.T) {
	var l LogLevel
	require.NoError(t, l.Set("DEBUG"))
	assert.Equal(t, LogLevelDebug, l)
	require.NoError(t, l.Set("notice"))
	assert.Equal(t, LogLevelNotice, l)
	assert.Error(t, l.Set("potato"))
	assert.Equal(t, "LogLevel(99)", LogLevel(99).String())
}

func TestLogLevelLogrus(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, LogLevelDebug.Logrus())
	assert.Equal(t, logrus.InfoLevel, LogLevelInfo.Logrus())
	assert.Equal(t, logrus.WarnLevel, LogLevelNotice.Logrus())
	assert.Equal(t, logrus.ErrorLevel, LogLevelError.Logrus())
}

func TestLogLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.StandardLogger()
	oldOut, oldLevel := logger.Out, logger.Level
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	defer func() {
		logger.SetOutput(oldOut)
		logger.SetLevel(oldLevel)
	}()

	ci := GetConfig(context.Background())
	oldLogLevel := ci.LogLevel
	defer func() { ci.LogLevel = oldLogLevel }()

	ci.LogLevel = LogLevelNotice
	Debugf("potato", "hidden %d", 1)
	assert.NotContains(t, buf.String(), "hidden")
	Logf("potato", "shown %d", 2)
	assert.Contains(t, buf.String(), "potato: shown 2")

	ci.LogLevel = LogLevelDebug
	Debugf(nil, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestAddConfig(t *testing.T) {
	ctx := context.Background()
	ctx2, ci := AddConfig(ctx)
	ci.MaxConnections = 42
	assert.Equal(t, 42, GetConfig(ctx2).MaxConnections)
	assert.NotEqual(t, 42, GetConfig(ctx).MaxConnections)
}
