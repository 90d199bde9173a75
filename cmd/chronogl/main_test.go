package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/tablestore"
)

func chronogl(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func quiet(t *testing.T) {
	t.Setenv("CHRONOGL_LOG_LEVEL", "error")
}

func demoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.cglc")
	code, out, errOut := chronogl(t, "", "demo", "-o", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "3 records")
	assert.Contains(t, out, "0 failures")
	return path
}

func TestUsageAndVersion(t *testing.T) {
	code, out, _ := chronogl(t, "")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage: chronogl")

	code, out, _ = chronogl(t, "", "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ChronoGL v")

	code, _, errOut := chronogl(t, "", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)
}

func TestDemoThenInspect(t *testing.T) {
	quiet(t)
	path := demoFile(t)

	code, out, errOut := chronogl(t, "", "inspect", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "compression: zstd")
	assert.Contains(t, out, "Records (3):")
	assert.Contains(t, out, "CreateTexture(")
	assert.Contains(t, out, "CompressedTexSubImage2D(")
	assert.Contains(t, out, "TexSubImage3D(")
	assert.NotContains(t, out, "TexImage2D(")
}

func TestReplayExportsTable(t *testing.T) {
	quiet(t)
	path := demoFile(t)
	dsn := filepath.Join(t.TempDir(), "tables.db")

	code, out, errOut := chronogl(t, "", "replay", path, "--export", dsn, "--metrics", "--break", "frame")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "breakpoint 1 (frame)")
	assert.Contains(t, out, "Live resources (3):")
	assert.Contains(t, out, "extent=4x4x3")
	assert.Contains(t, out, "exported session")
	assert.Contains(t, out, "chronogl_chunks_replayed_total")

	store, err := tablestore.Open(dsn)
	require.NoError(t, err)
	defer store.Close()
	sessions, err := store.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotEqual(t, uuid.Nil, sessions[0])
	rows, err := store.Load(context.Background(), sessions[0])
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestReplayInteractive(t *testing.T) {
	quiet(t)
	path := demoFile(t)

	code, out, errOut := chronogl(t, "bp TexSubImage3D\nc\nt\nc\nq\n", "replay", "-i", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "(chronogl)")
	assert.Contains(t, out, "Stopped before")
	assert.Contains(t, out, "Replay complete: 3 live resources")
}

func TestProtectedCaptureNeedsKeys(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chronogl.yaml")
	key := strings.Repeat("0f", 32)
	require.NoError(t, os.WriteFile(cfgPath, []byte("capture:\n  integrity_key: \""+key+"\"\n  encryption_key: \""+key+"\"\n"), 0644))
	path := filepath.Join(dir, "frame.cglc")

	code, _, errOut := chronogl(t, "", "demo", "--config", cfgPath, "-o", path)
	require.Equal(t, 0, code, errOut)

	code, out, errOut := chronogl(t, "", "inspect", "--config", cfgPath, path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "encrypted:   true")
	assert.Contains(t, out, "integrity:   true")

	code, _, errOut = chronogl(t, "", "inspect", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no key was configured")
}

func TestDisabledCaptureFails(t *testing.T) {
	quiet(t)
	t.Setenv("CHRONOGL_CAPTURE_ENABLED", "false")
	code, _, errOut := chronogl(t, "", "demo", "-o", filepath.Join(t.TempDir(), "frame.cglc"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "start frame")
}

func TestArgumentErrors(t *testing.T) {
	quiet(t)
	code, _, errOut := chronogl(t, "", "inspect")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "usage: chronogl inspect")

	code, _, errOut = chronogl(t, "", "replay", filepath.Join(t.TempDir(), "absent.cglc"))
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	path := demoFile(t)
	code, _, errOut = chronogl(t, "", "replay", path, "--break", "NotAnOpcode")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown opcode")
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("CHRONOGL_EXPORT_SQLITE_DSN", "tables.db")
	t.Setenv("CHRONOGL_CAPTURE_INTEGRITY_KEY", strings.Repeat("0f", 8))
	code, out, errOut := chronogl(t, "", "config")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "compression: zstd")
	assert.Contains(t, out, "sqlite_dsn: tables.db")
	assert.Contains(t, out, "integrity_key: <redacted>")
	assert.NotContains(t, out, strings.Repeat("0f", 8))
}
