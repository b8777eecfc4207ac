package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"RDXRW_ENGINE_URL", "RDXRW_RUN", "RDXRW_LEDGER_URL", "RDXRW_ENGINE_TIMEOUT", "RDXRW_SOFT_PHOTON_THRESHOLD"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:7755/hammer", cfg.EngineURL)
	assert.Equal(t, "run2", cfg.Run)
	assert.Equal(t, "MeV", cfg.Units)
	assert.Equal(t, 0.1, cfg.SoftPhotonThreshold)
	assert.Zero(t, cfg.EngineTimeout)
	assert.False(t, cfg.LedgerEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RDXRW_RUN", "run1")
	t.Setenv("RDXRW_ENGINE_TIMEOUT", "3s")
	t.Setenv("RDXRW_SOFT_PHOTON_THRESHOLD", "25")
	t.Setenv("RDXRW_LEDGER_URL", "ws://ledger:8000/rpc")
	t.Setenv("RDXRW_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "run1", cfg.Run)
	assert.Equal(t, 3*time.Second, cfg.EngineTimeout)
	assert.Equal(t, 25.0, cfg.SoftPhotonThreshold)
	assert.True(t, cfg.LedgerEnabled())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("RDXRW_UNITS", "")
	// Variables already present, even empty, are not overridden.
	os.Unsetenv("RDXRW_UNITS")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RDXRW_UNITS=GeV\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "GeV", cfg.Units)
}

func TestLoadInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("RDXRW_ENGINE_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "RDXRW_ENGINE_TIMEOUT")

	t.Setenv("RDXRW_ENGINE_TIMEOUT", "")
	t.Setenv("RDXRW_SOFT_PHOTON_THRESHOLD", "low")
	_, err = Load()
	assert.ErrorContains(t, err, "RDXRW_SOFT_PHOTON_THRESHOLD")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Warn("bad kinematics for candidate", "candidate", 3)

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "candidate=3")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, float64(3), rec["candidate"])
}

func TestMuteConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rdxrw.log")
	l := SetupLogger(path, slog.LevelInfo)
	defer l.Close()

	var console bytes.Buffer
	l.console.set(&console)

	restore := l.MuteConsole()
	l.Logger.Info("muted")
	restore()
	l.Logger.Info("visible")

	assert.NotContains(t, console.String(), "muted")
	assert.Contains(t, console.String(), "visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "muted")
}
