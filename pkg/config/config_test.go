package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/recorder"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chronogl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Capture.Enabled)
	assert.Equal(t, "zstd", cfg.Capture.Compression)
	assert.Equal(t, "frame.cglc", cfg.Capture.Output)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)
	assert.False(t, cfg.Metrics.Enabled)

	opts, err := cfg.Capture.FileOptions()
	require.NoError(t, err)
	assert.Equal(t, recorder.ZstdCompression, opts.CompressionType)
	assert.False(t, opts.Security.EnableEncryption)
	assert.False(t, opts.Security.EnableIntegrityCheck)
}

func TestLoadConfig_FromFile(t *testing.T) {
	key := strings.Repeat("ab", 32)
	path := writeConfig(t, `
capture:
  enabled: false
  compression: none
  integrity_key: "`+key+`"
  encryption_key: "`+key+`"
log:
  level: debug
  format: json
export:
  sqlite_dsn: "file:tables.db"
metrics:
  enabled: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.Capture.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "file:tables.db", cfg.Export.SQLiteDSN)
	assert.True(t, cfg.Metrics.Enabled)
	// unset keys keep their defaults
	assert.Equal(t, 3, cfg.Log.MaxBackups)

	opts, err := cfg.Capture.FileOptions()
	require.NoError(t, err)
	assert.Equal(t, recorder.NoCompression, opts.CompressionType)
	assert.True(t, opts.Security.EnableEncryption)
	assert.Len(t, opts.Security.EncryptionKey, 32)
	assert.True(t, opts.Security.EnableIntegrityCheck)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CHRONOGL_CAPTURE_ENABLED", "false")
	t.Setenv("CHRONOGL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Capture.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"compression", "capture:\n  compression: lz4\n"},
		{"level", "log:\n  level: loud\n"},
		{"key encoding", "capture:\n  integrity_key: nothex\n"},
		{"key length", "capture:\n  encryption_key: abcd\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLRedactsKeys(t *testing.T) {
	key := strings.Repeat("ab", 16)
	cfg, err := LoadConfig(writeConfig(t, "capture:\n  encryption_key: \""+key+"\"\nlog:\n  level: warn\n"))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, cfg.WriteYAML(&sb))
	out := sb.String()
	assert.NotContains(t, out, key)
	assert.Contains(t, out, "encryption_key: <redacted>")
	assert.Contains(t, out, "integrity_key: \"\"")
	// the original keeps its key
	assert.Equal(t, key, cfg.Capture.EncryptionKey)

	// without keys the output loads back unchanged
	plain := Default()
	sb.Reset()
	require.NoError(t, plain.WriteYAML(&sb))
	again, err := LoadConfig(writeConfig(t, sb.String()))
	require.NoError(t, err)
	assert.Equal(t, plain, again)
}
