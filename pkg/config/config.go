package config

import (
	"os"
	"strconv"
	"time"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Sync     SyncConfig
	Platform PlatformConfig
	Storage  StorageConfig
}

// Server settings
type ServerConfig struct {
	Port string
}

// Sync pipeline settings
type SyncConfig struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	RequestTimeout  time.Duration
	// CronSpec drives the scheduled daily sync; empty disables it.
	CronSpec string
	LockTTL  time.Duration
}

// External ad platform settings
type PlatformConfig struct {
	BaseURL            string
	ReportTp           string
	RateLimitPerSecond int
}

type StorageConfig struct {
	// DatabaseURL selects the Postgres repositories when set;
	// otherwise the in-memory repositories are used.
	DatabaseURL string
	// RedisAddr selects the Redis sync lock when set.
	RedisAddr string
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Sync: SyncConfig{
			PollInterval:    getDurationEnv("POLL_INTERVAL", "3s"),
			PollMaxAttempts: getIntEnv("POLL_MAX_ATTEMPTS", 20),
			RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", "30s"),
			CronSpec:        getEnv("SYNC_CRON", ""),
			LockTTL:         getDurationEnv("SYNC_LOCK_TTL", "5m"),
		},
		Platform: PlatformConfig{
			BaseURL:            getEnv("PLATFORM_BASE_URL", "https://api.searchad.naver.com"),
			ReportTp:           getEnv("PLATFORM_REPORT_TP", "AD"),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 100),
		},
		Storage: StorageConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisAddr:   getEnv("REDIS_ADDR", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
