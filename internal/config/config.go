// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// InputPath is the JSON report to aggregate when no argument is given.
	InputPath string
	// ReportsDir is the root of the report cache (<dir>/<user>/<from>_<to>.json).
	ReportsDir string
	// HistoryDBPath enables run history when non-empty.
	HistoryDBPath string
	LogLevel      string
	WatchDebounce time.Duration
}

// Default values
const (
	defaultReportsDir    = "cache/reports"
	defaultLogLevel      = "warn"
	defaultWatchDebounce = 100 * time.Millisecond
	reportDateLayout     = "2006-01-02"
)

// ErrNoInput is returned by ResolveInput when no input path is configured.
var ErrNoInput = errors.New("no input path: pass it as an argument or set INPUT_PATH")

// Load reads configuration from .env files and environment variables.
// Variables already present in the environment take precedence over .env files.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		InputPath:     getEnvString("INPUT_PATH", ""),
		ReportsDir:    getEnvString("REPORTS_DIR", defaultReportsDir),
		HistoryDBPath: getEnvString("HISTORY_DB_PATH", ""),
		LogLevel:      getEnvString("LOG_LEVEL", defaultLogLevel),
		WatchDebounce: getEnvDuration("WATCH_DEBOUNCE", defaultWatchDebounce),
	}

	if cfg.WatchDebounce <= 0 {
		return nil, fmt.Errorf("WATCH_DEBOUNCE must be positive, got %v", cfg.WatchDebounce)
	}

	if cfg.HistoryDBPath != "" {
		if err := ensureDir(filepath.Dir(cfg.HistoryDBPath)); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	return cfg, nil
}

// ResolveInput picks the input path: an explicit argument wins over INPUT_PATH.
func (c *Config) ResolveInput(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if c.InputPath != "" {
		return c.InputPath, nil
	}
	return "", ErrNoInput
}

// ReportPath returns the cached report file for a user and an inclusive
// date range, laid out as <ReportsDir>/<userID>/<from>_<to>.json.
func (c *Config) ReportPath(userID, from, to string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", fmt.Errorf("invalid user id %q", userID)
	}

	start, err := time.Parse(reportDateLayout, from)
	if err != nil {
		return "", fmt.Errorf("invalid start date %q: want YYYY-MM-DD", from)
	}
	end, err := time.Parse(reportDateLayout, to)
	if err != nil {
		return "", fmt.Errorf("invalid end date %q: want YYYY-MM-DD", to)
	}
	if end.Before(start) {
		return "", fmt.Errorf("end date %s is before start date %s", to, from)
	}

	name := fmt.Sprintf("%s_%s.json", from, to)
	return filepath.Join(c.ReportsDir, userID, name), nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "commission-tally", ".env"))
	}

	return paths
}

// DefaultHistoryPath returns the suggested location for the history database.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".config", "commission-tally", "history.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "250ms", "1s"; a bare integer is read as milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
