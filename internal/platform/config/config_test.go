package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldmap/internal/platform/config"
)

func TestNewDerivesPathsAndDefaults(t *testing.T) {
	ws := t.TempDir()
	cfg, err := config.New(ws)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, ".fieldmap", "fieldmap.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(ws, "field_log.csv"), cfg.SnapshotPath())
	assert.Equal(t, 13, cfg.Map.Zoom)
	assert.Equal(t, 30*time.Second, cfg.Upload.Timeout)
	assert.False(t, cfg.Tickets.AllowReopen)

	_, err = config.New("")
	require.Error(t, err)
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	ws := t.TempDir()
	raw := "tickets:\n  snapshot: log.csv\n  allow_reopen: true\nupload:\n  enabled: true\n  plugin: bin/uploader\n  folder: drive\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.FileName), []byte(raw), 0o644))
	t.Setenv("FIELDMAP_MAP_ZOOM", "9")

	cfg, err := config.Load(ws)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, "log.csv"), cfg.SnapshotPath())
	assert.True(t, cfg.Tickets.AllowReopen)
	assert.Equal(t, filepath.Join(ws, "bin", "uploader"), cfg.Upload.Plugin)
	assert.Equal(t, 9, cfg.Map.Zoom)
}

func TestLoadRejectsUploadWithoutPlugin(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.FileName), []byte("upload:\n  enabled: true\n"), 0o644))
	_, err := config.Load(ws)
	require.Error(t, err)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	ws := t.TempDir()
	path, err := config.WriteDefault(ws)
	require.NoError(t, err)
	cfg, err := config.Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.FileExists(t, path)

	_, err = config.WriteDefault(ws)
	require.Error(t, err)
}

func TestLoadValidatesUploadChecksum(t *testing.T) {
	ws := t.TempDir()
	raw := "upload:\n  enabled: true\n  plugin: uploader\n  sha256: NOTHEX\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.FileName), []byte(raw), 0o644))
	_, err := config.Load(ws)
	require.Error(t, err)

	t.Setenv("FIELDMAP_UPLOAD_SHA256", strings.Repeat("0f", 32))
	cfg, err := config.Load(ws)
	require.NoError(t, err)
	assert.Len(t, cfg.Upload.SHA256, 64)
}
