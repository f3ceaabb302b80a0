// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir            string // Base directory for the history database (always absolute)
	LogLevel           string
	Port               int
	DevMode            bool
	DefaultNumSamples  int     // Default number of Monte Carlo samples for PEC endpoints
	DefaultPrecision   float64 // Default PEC estimator precision when num_samples is not given
	MaxRequestSamples  int     // Hard cap on samples accepted from HTTP clients
	HistoryDBFile      string  // File name of the run-history database inside DataDir
	HistoryListDefault int     // Default page size for the history listing endpoint
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MITIGATE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("MITIGATE_PORT", 8010),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DefaultNumSamples:  getEnvAsInt("PEC_DEFAULT_NUM_SAMPLES", 1000),
		DefaultPrecision:   getEnvAsFloat("PEC_DEFAULT_PRECISION", 0.03),
		MaxRequestSamples:  getEnvAsInt("PEC_MAX_REQUEST_SAMPLES", 100000),
		HistoryDBFile:      getEnv("HISTORY_DB_FILE", "history.db"),
		HistoryListDefault: getEnvAsInt("HISTORY_LIST_DEFAULT", 50),
	}

	if cfg.DefaultPrecision <= 0 || cfg.DefaultPrecision > 1 {
		return nil, fmt.Errorf("PEC_DEFAULT_PRECISION must be within (0, 1], got %v", cfg.DefaultPrecision)
	}

	return cfg, nil
}

// HistoryDBPath returns the absolute path of the run-history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, c.HistoryDBFile)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
