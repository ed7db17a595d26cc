package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB     DatabaseConfig
	Redis  RedisConfig
	Source SourceConfig
	Import ImportConfig
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SourceConfig contains connection parameters for the legacy catalog feed API.
type SourceConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
}

// ImportConfig contains tuning parameters for an import run.
type ImportConfig struct {
	BatchSize                int
	MaxRetries               int
	RetryDelay               time.Duration
	ConcurrentImageDownloads int
	EnableImageDownload      bool
	EnableSpecImport         bool
	ResumeFromBatch          int
	BatchPause               time.Duration
	CheckpointPath           string
}

// WorkerConfig contains scheduling for the background import worker.
type WorkerConfig struct {
	Enabled        bool
	ImportInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Catalog feed source
	cfg.Source = SourceConfig{
		BaseURL:  getEnv("IZERWAREN_API_URL", ""),
		APIKey:   getEnv("IZERWAREN_API_KEY", ""),
		PageSize: getEnvInt("IZERWAREN_PAGE_SIZE", 100),
	}

	// Import pipeline
	cfg.Import = ImportConfig{
		BatchSize:                getEnvInt("IMPORT_BATCH_SIZE", 25),
		MaxRetries:               getEnvInt("IMPORT_MAX_RETRIES", 3),
		ConcurrentImageDownloads: getEnvInt("IMPORT_CONCURRENT_IMAGE_DOWNLOADS", 3),
		EnableImageDownload:      getEnvBool("IMPORT_ENABLE_IMAGE_DOWNLOAD", true),
		EnableSpecImport:         getEnvBool("IMPORT_ENABLE_SPEC_IMPORT", true),
		ResumeFromBatch:          getEnvInt("IMPORT_RESUME_FROM_BATCH", 0),
		CheckpointPath:           getEnv("CHECKPOINT_PATH", "data/import_state.json"),
	}

	var err error
	if cfg.Import.RetryDelay, err = parseDurationEnv("IMPORT_RETRY_DELAY", "1s"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_RETRY_DELAY: %w", err)
	}
	if cfg.Import.BatchPause, err = parseDurationEnv("IMPORT_BATCH_PAUSE", "500ms"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_BATCH_PAUSE: %w", err)
	}

	// Background worker
	cfg.Worker.Enabled = getEnvBool("IMPORT_WORKER_ENABLED", false)
	if cfg.Worker.ImportInterval, err = parseDurationEnv("IMPORT_INTERVAL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_INTERVAL: %w", err)
	}

	// Validation reports every problem at once so an operator fixes the
	// environment in one pass instead of replaying startup per variable.
	var problems []error
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		problems = append(problems, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set"))
	}
	if cfg.Source.BaseURL == "" {
		problems = append(problems, errors.New("IZERWAREN_API_URL must be set to reach the catalog feed"))
	}
	if cfg.JWTSecret == "" {
		problems = append(problems, errors.New("JWT_SECRET must be set for admin authentication"))
	}
	if cfg.Import.BatchSize <= 0 {
		problems = append(problems, errors.New("IMPORT_BATCH_SIZE must be positive"))
	}
	if cfg.Import.MaxRetries <= 0 {
		problems = append(problems, errors.New("IMPORT_MAX_RETRIES must be positive"))
	}
	if cfg.Import.ConcurrentImageDownloads <= 0 {
		problems = append(problems, errors.New("IMPORT_CONCURRENT_IMAGE_DOWNLOADS must be positive"))
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvBool returns the value of an environment variable as a boolean or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
