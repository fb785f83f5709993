package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"asistencia/internal/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// Database
	DatabaseURL string
	SeedDevData bool

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// API access
	APIToken    string // Static bearer token for /api/v1, empty disables the check
	CORSOrigins string // Comma-separated allowed origins

	// Rate limiting
	RateLimitMax int
	RedisURL     string // Shared limiter storage, empty keeps it in memory

	// Alert engine
	Thresholds         models.Thresholds
	AlertsConfigFile   string // env: ALERTS_CONFIG_FILE, default: "alerts.yaml"
	LookbackDays       int    // History loaded before the report month so streaks can span months
	RecentSessionLimit int    // Sessions of detail attached to each alert

	// Background scan
	ScanSchedule    string // 5-field cron expression, empty disables the scanner
	ScanConcurrency int
	Timezone        string

	// Google Sheets export
	SheetsSpreadsheetID   string
	SheetsCredentialsFile string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present, and the
// alert thresholds file is applied before env overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := &Config{
		Env:          getEnv("ENV", "development"),
		ServerAddr:   getEnv("SERVER_ADDR", ":3000"),
		DatabaseURL:  getEnv("DATABASE_URL", "postgres://localhost:5432/asistencia?sslmode=disable"),
		SeedDevData:  getEnv("SEED_DEV_DATA", "") != "",
		TLSEnabled:   getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
		APIToken:     getEnv("API_TOKEN", ""),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		RateLimitMax: getEnvInt("RATE_LIMIT_MAX", 100),
		RedisURL:     getEnv("REDIS_URL", ""),

		Thresholds:         models.DefaultThresholds(),
		AlertsConfigFile:   getEnv("ALERTS_CONFIG_FILE", "alerts.yaml"),
		LookbackDays:       getEnvInt("ALERT_LOOKBACK_DAYS", 60),
		RecentSessionLimit: getEnvInt("RECENT_SESSION_LIMIT", 10),

		ScanSchedule:    "0 6 * * *",
		ScanConcurrency: getEnvInt("SCAN_CONCURRENCY", 4),
		Timezone:        getEnv("TIMEZONE", "America/Bogota"),

		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
	}

	fileCfg, err := LoadAlertsFile(cfg.AlertsConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.AlertsConfigFile, err)
	}
	fileCfg.apply(cfg)

	// Env vars override the YAML file
	cfg.Thresholds.ConsecutiveUnjustifiedLimit = getEnvInt("ALERT_CONSECUTIVE_LIMIT", cfg.Thresholds.ConsecutiveUnjustifiedLimit)
	cfg.Thresholds.MonthlyUnjustifiedLimit = getEnvInt("ALERT_MONTHLY_LIMIT", cfg.Thresholds.MonthlyUnjustifiedLimit)

	// Set but empty disables the scanner.
	if schedule, ok := os.LookupEnv("ALERT_SCAN_SCHEDULE"); ok {
		cfg.ScanSchedule = strings.TrimSpace(schedule)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, value, fallback)
		return fallback
	}
	return n
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsSheetsExportEnabled returns true if both spreadsheet settings are present.
func (c *Config) IsSheetsExportEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.SheetsCredentialsFile != ""
}

// IsScanEnabled returns true if the background scanner has a schedule.
func (c *Config) IsScanEnabled() bool {
	return strings.TrimSpace(c.ScanSchedule) != ""
}
