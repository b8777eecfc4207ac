// Package config loads runtime settings from the environment and sets up
// logging.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values.
type Config struct {
	// Weighting engine bridge
	EngineURL     string
	EngineTimeout time.Duration

	// Run setup
	Run                 string
	Units               string
	SoftPhotonThreshold float64

	// Run ledger; an empty URL disables it
	LedgerURL       string
	LedgerNamespace string
	LedgerDatabase  string
	LedgerUser      string
	LedgerPass      string
	LedgerAuthLevel string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		EngineURL: getEnv("RDXRW_ENGINE_URL", "ws://localhost:7755/hammer"),

		Run:   getEnv("RDXRW_RUN", "run2"),
		Units: getEnv("RDXRW_UNITS", "MeV"),

		LedgerURL:       getEnv("RDXRW_LEDGER_URL", ""),
		LedgerNamespace: getEnv("RDXRW_LEDGER_NAMESPACE", "rdxrw"),
		LedgerDatabase:  getEnv("RDXRW_LEDGER_DATABASE", "ledger"),
		LedgerUser:      getEnv("RDXRW_LEDGER_USER", "root"),
		LedgerPass:      getEnv("RDXRW_LEDGER_PASS", "root"),
		LedgerAuthLevel: getEnv("RDXRW_LEDGER_AUTH_LEVEL", "root"),

		LogFile:  getEnv("RDXRW_LOG_FILE", "/tmp/rdxrw.log"),
		LogLevel: parseLogLevel(getEnv("RDXRW_LOG_LEVEL", "INFO")),
	}

	var err error
	if s := getEnv("RDXRW_ENGINE_TIMEOUT", ""); s != "" {
		if cfg.EngineTimeout, err = time.ParseDuration(s); err != nil {
			return Config{}, fmt.Errorf("RDXRW_ENGINE_TIMEOUT: %w", err)
		}
	}
	threshold := getEnv("RDXRW_SOFT_PHOTON_THRESHOLD", "0.1")
	if cfg.SoftPhotonThreshold, err = strconv.ParseFloat(threshold, 64); err != nil {
		return Config{}, fmt.Errorf("RDXRW_SOFT_PHOTON_THRESHOLD: %w", err)
	}
	return cfg, nil
}

// LedgerEnabled reports whether runs are persisted.
func (c Config) LedgerEnabled() bool {
	return c.LedgerURL != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
