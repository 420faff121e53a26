package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestHerdLogger_ArgsBecomeAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Info("gateway listening", "addr", ":8471")

	rec := logLine(t, &buf)
	assert.Equal(t, "gateway listening", rec["msg"])
	assert.Equal(t, ":8471", rec["addr"])
}

func TestHerdLogger_ComponentAndContextAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf}).
		WithComponent("gateway").
		WithContext("peer", "10.0.0.7")

	logger.Warn("websocket upgrade failed", "error", "bad handshake")

	rec := logLine(t, &buf)
	assert.Equal(t, "websocket upgrade failed", rec["msg"])
	assert.Equal(t, "gateway", rec["component"])
	assert.Equal(t, "10.0.0.7", rec["peer"])
	assert.Equal(t, "bad handshake", rec["error"])
}

func TestHerdLogger_WithCloningDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})
	_ = parent.WithComponent("child").WithContext("extra", "yes")

	parent.Info("plain")

	rec := logLine(t, &buf)
	assert.NotContains(t, rec, "component")
	assert.NotContains(t, rec, "extra")
}

func TestHerdLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	logger.Info("suppressed")
	assert.Zero(t, buf.Len())

	logger.Warn("emitted")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warn"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
}
