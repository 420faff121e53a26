package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "herderd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	path := writeFile(t, `
bind: "127.0.0.1:9000"
log:
  level: debug
  format: text
herd:
  base_name: robot
  buffer_size: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Bind)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "robot", cfg.Herd.BaseName)
	assert.Equal(t, 8, cfg.Herd.BufferSize)
	// Untouched values keep their defaults.
	assert.Equal(t, 16, cfg.Herd.MaxConcurrentRequests)
	assert.True(t, cfg.Field.DefaultTurtle)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad format", "log:\n  format: xml\n"},
		{"empty base name", "herd:\n  base_name: \"\"\n"},
		{"zero buffer", "herd:\n  buffer_size: 0\n"},
		{"negative field", "field:\n  width: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
