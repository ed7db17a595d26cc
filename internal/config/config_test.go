package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "catalog")
	t.Setenv("DB_NAME", "catalog")
	t.Setenv("IZERWAREN_API_URL", "https://feed.example.com")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 25, cfg.Import.BatchSize)
	assert.Equal(t, 3, cfg.Import.MaxRetries)
	assert.Equal(t, time.Second, cfg.Import.RetryDelay)
	assert.Equal(t, 3, cfg.Import.ConcurrentImageDownloads)
	assert.Equal(t, 500*time.Millisecond, cfg.Import.BatchPause)
	assert.Equal(t, "data/import_state.json", cfg.Import.CheckpointPath)
	assert.True(t, cfg.Import.EnableImageDownload)
	assert.True(t, cfg.Import.EnableSpecImport)
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, 100, cfg.Source.PageSize)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPORT_BATCH_SIZE", "50")
	t.Setenv("IMPORT_RETRY_DELAY", "250ms")
	t.Setenv("IMPORT_ENABLE_IMAGE_DOWNLOAD", "false")
	t.Setenv("IMPORT_RESUME_FROM_BATCH", "7")
	t.Setenv("IMPORT_WORKER_ENABLED", "true")
	t.Setenv("IMPORT_INTERVAL", "6h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Import.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Import.RetryDelay)
	assert.False(t, cfg.Import.EnableImageDownload)
	assert.Equal(t, 7, cfg.Import.ResumeFromBatch)
	assert.True(t, cfg.Worker.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Worker.ImportInterval)
}

func TestLoadRequiresDatabase(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoadRequiresFeedURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IZERWAREN_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IZERWAREN_API_URL")
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPORT_RETRY_DELAY", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_RETRY_DELAY")
}

func TestLoadRejectsNonPositiveBatchSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPORT_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_BATCH_SIZE")
}

func TestLoadReportsAllProblemsTogether(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IZERWAREN_API_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("IMPORT_MAX_RETRIES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IZERWAREN_API_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "IMPORT_MAX_RETRIES")
}
