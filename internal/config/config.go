package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Redis (pipeline state)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Supabase Storage (photo blobs)
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	// Farm directory (read-only)
	DatabaseURL string

	// Kafka (moderation events)
	KafkaBroker string
	KafkaTopic  string

	// Auth
	JWTSecret string

	// Pipeline knobs
	PhotoQuota       int
	LeaseTTL         time.Duration
	RecoveryWindow   time.Duration
	MaxUploadSize    int64
	RateLimitWindow  time.Duration
	RateLimitCeiling int
	SweepInterval    time.Duration

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:     getEnv("SUPABASE_STORAGE_BUCKET", "farm-photos"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "photo-moderation-events"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		PhotoQuota:       getEnvInt("PHOTO_QUOTA", 5),
		LeaseTTL:         getEnvDuration("LEASE_TTL", 10*time.Minute),
		RecoveryWindow:   getEnvDuration("RECOVERY_WINDOW", 30*24*time.Hour),
		MaxUploadSize:    int64(getEnvInt("MAX_UPLOAD_SIZE", 10<<20)),
		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitCeiling: getEnvInt("RATE_LIMIT_CEILING", 5),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", time.Hour),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PhotoQuota < 1 {
		return fmt.Errorf("PHOTO_QUOTA must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
