package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config payroll report aggregator service configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// Argyle API credentials
	Argyle struct {
		BaseURL      string
		APIKeyID     string
		APIKeySecret string
	}

	// Pinwheel API credentials
	Pinwheel struct {
		BaseURL   string
		APISecret string
	}

	// Fetch windows (days)
	Fetch struct {
		W2Days  int // default retrieval window for W-2 accounts
		GigDays int // gig accounts need a longer lookback
	}

	Verification struct {
		// Trigger mode: "polling" (poll accounts pending review) or
		// "events" (consume sync-completed events from Redis Streams)
		TriggerMode string

		Polling struct {
			Interval int // polling interval in seconds
		}

		// Redis Streams settings (event-driven mode)
		EventStream   string
		ConsumerGroup string
		ConsumerName  string
		BatchSize     int

		// Stream telemetry events are published to
		TelemetryStream string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "payroll_reports")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Argyle.BaseURL = getEnv("ARGYLE_BASE_URL", "https://api-sandbox.argyle.com")
	cfg.Argyle.APIKeyID = getEnv("ARGYLE_API_KEY_ID", "")
	cfg.Argyle.APIKeySecret = getEnv("ARGYLE_API_KEY_SECRET", "")

	cfg.Pinwheel.BaseURL = getEnv("PINWHEEL_BASE_URL", "https://api.getpinwheel.com")
	cfg.Pinwheel.APISecret = getEnv("PINWHEEL_API_SECRET", "")

	cfg.Fetch.W2Days = getEnvInt("PAYSTUBS_DAYS_W2", 90)
	cfg.Fetch.GigDays = getEnvInt("PAYSTUBS_DAYS_GIG", 182)

	cfg.Verification.TriggerMode = getEnv("VERIFICATION_TRIGGER_MODE", "polling")
	cfg.Verification.Polling.Interval = getEnvInt("VERIFICATION_POLLING_INTERVAL", 60)
	cfg.Verification.EventStream = getEnv("SYNC_EVENT_STREAM", "payroll:sync:events")
	cfg.Verification.ConsumerGroup = getEnv("SYNC_CONSUMER_GROUP", "report-aggregator-group")
	cfg.Verification.ConsumerName = getEnv("SYNC_CONSUMER_NAME", "report-aggregator-1")
	cfg.Verification.BatchSize = getEnvInt("SYNC_BATCH_SIZE", 10)
	cfg.Verification.TelemetryStream = getEnv("TELEMETRY_STREAM", "payroll:telemetry")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}
