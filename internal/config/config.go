// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	DevMode  bool
	LogLevel string

	// Cloud backup (Cloudflare R2 via the S3 API). Backups are disabled
	// unless all four values are present.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	BackupRetention   int // Number of cloud backups to keep

	Schedules ScheduleConfig
}

// ScheduleConfig holds cron expressions for the producer and maintenance jobs.
// An empty expression disables the corresponding job. Feeds without a local
// producer (flight deals, weekend ideas, polymarket, daycare) are fed through
// the HTTP API instead.
type ScheduleConfig struct {
	ActionItems string // Daily action-item rollover
	BTCSignals  string // Candle-close signal detection
	Maintenance string // WAL checkpoints, cache cleanup
	CloudBackup string // Nightly R2 backup
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. HOMEBASE_DATA_DIR environment variable
	// 2. Fallback to ./data
	// Always resolved to an absolute path, created if missing.
	dataDir := getEnv("HOMEBASE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8090),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		BackupRetention:   getEnvAsInt("BACKUP_RETENTION", 14),

		Schedules: ScheduleConfig{
			ActionItems: getEnv("SCHEDULE_ACTION_ITEMS", "0 0 6 * * *"),
			BTCSignals:  getEnv("SCHEDULE_BTC_SIGNALS", "0 5 * * * *"),
			Maintenance: getEnv("SCHEDULE_MAINTENANCE", "0 0 2 * * *"),
			CloudBackup: getEnv("SCHEDULE_CLOUD_BACKUP", "0 30 2 * * *"),
		},
	}

	return cfg, nil
}

// R2Configured reports whether all credentials required for cloud backups are set
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" &&
		c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" &&
		c.R2BucketName != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
