package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/quizforge/internal/logger"
)

type Config struct {
	Addr                 string
	DBPath               string
	RedisURL             string
	LogLevel             string
	ImportWorkerCount    int
	ImportQueueSize      int
	LeaderboardWorkers   int
	LeaderboardQueueSize int
	MaxUploadBytes       int64
	AutoSaveTTL          time.Duration
	CacheTTL             time.Duration
	ImportStatusTTL      time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		DBPath:               envOr("DB_PATH", "file:quizforge.db"),
		RedisURL:             envOr("REDIS_URL", ""),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		ImportWorkerCount:    envIntOr("IMPORT_WORKER_COUNT", 2),
		ImportQueueSize:      envIntOr("IMPORT_QUEUE_SIZE", 32),
		LeaderboardWorkers:   envIntOr("LEADERBOARD_WORKER_COUNT", 1),
		LeaderboardQueueSize: envIntOr("LEADERBOARD_QUEUE_SIZE", 64),
		MaxUploadBytes:       int64(envIntOr("MAX_UPLOAD_BYTES", 10<<20)),
		AutoSaveTTL:          envDurationOr("AUTOSAVE_TTL", 24*time.Hour),
		CacheTTL:             envDurationOr("CACHE_TTL", 5*time.Minute),
		ImportStatusTTL:      envDurationOr("IMPORT_STATUS_TTL", time.Hour),
	}
}

// Validate reports every invalid setting in a single error.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if !logger.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if c.RedisURL != "" && !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
		problems = append(problems, "REDIS_URL must use the redis:// or rediss:// scheme")
	}
	if c.ImportWorkerCount <= 0 {
		problems = append(problems, "IMPORT_WORKER_COUNT must be positive")
	}
	if c.ImportQueueSize <= 0 {
		problems = append(problems, "IMPORT_QUEUE_SIZE must be positive")
	}
	if c.LeaderboardWorkers <= 0 {
		problems = append(problems, "LEADERBOARD_WORKER_COUNT must be positive")
	}
	if c.LeaderboardQueueSize <= 0 {
		problems = append(problems, "LEADERBOARD_QUEUE_SIZE must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.AutoSaveTTL <= 0 {
		problems = append(problems, "AUTOSAVE_TTL must be positive")
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, "CACHE_TTL must be positive")
	}
	if c.ImportStatusTTL <= 0 {
		problems = append(problems, "IMPORT_STATUS_TTL must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid duration for %s=%q, using default %s", key, v, def)
	}
	return def
}
