package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizforge/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                 ":8080",
		DBPath:               "test.db",
		LogLevel:             "INFO",
		ImportWorkerCount:    2,
		ImportQueueSize:      32,
		LeaderboardWorkers:   1,
		LeaderboardQueueSize: 64,
		MaxUploadBytes:       10 << 20,
		AutoSaveTTL:          24 * time.Hour,
		CacheTTL:             5 * time.Minute,
		ImportStatusTTL:      time.Hour,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_RedisURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "empty uses in-memory cache", url: "", wantErr: false},
		{name: "redis scheme", url: "redis://localhost:6379/0", wantErr: false},
		{name: "tls scheme", url: "rediss://cache.internal:6380", wantErr: false},
		{name: "http scheme", url: "http://localhost:6379", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.RedisURL = tt.url

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "REDIS_URL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_InvalidWorkerCounts(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:          "zero import workers",
			mutate:        func(c *config.Config) { c.ImportWorkerCount = 0 },
			expectedError: "IMPORT_WORKER_COUNT",
		},
		{
			name:          "negative leaderboard workers",
			mutate:        func(c *config.Config) { c.LeaderboardWorkers = -1 },
			expectedError: "LEADERBOARD_WORKER_COUNT",
		},
		{
			name:          "zero import queue",
			mutate:        func(c *config.Config) { c.ImportQueueSize = 0 },
			expectedError: "IMPORT_QUEUE_SIZE",
		},
		{
			name:          "zero leaderboard queue",
			mutate:        func(c *config.Config) { c.LeaderboardQueueSize = 0 },
			expectedError: "LEADERBOARD_QUEUE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR", "debug"} {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = level
			assert.NoError(t, cfg.Validate())
		})
	}

	cfg := validConfig()
	cfg.LogLevel = "INVALID"
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{
		LogLevel: "INVALID",
	}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "DB_PATH cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "IMPORT_WORKER_COUNT")
	assert.Contains(t, errStr, "IMPORT_QUEUE_SIZE")
	assert.Contains(t, errStr, "MAX_UPLOAD_BYTES")
	assert.Contains(t, errStr, "AUTOSAVE_TTL")
	assert.Contains(t, errStr, "CACHE_TTL")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "custom.db")
	t.Setenv("AUTOSAVE_TTL", "2h")
	t.Setenv("IMPORT_WORKER_COUNT", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, 2*time.Hour, cfg.AutoSaveTTL)
	assert.Equal(t, 2, cfg.ImportWorkerCount, "invalid ints fall back to the default")
}
