package config

import (
	"os"
	"time"
)

type Config struct {
	Port        string
	Environment string
	JWTSecret   string
	DatabaseURL string
	Redis       RedisConfig
	Relay       RelayConfig
	PresenceTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RelayConfig controls the in-memory signal relay.
type RelayConfig struct {
	SignalTTL     time.Duration // pending signals older than this are swept
	SweepInterval time.Duration
	CallMaxAge    time.Duration // active calls without a matching end are evicted
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me-in-production"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost/voicerelay?sslmode=disable"),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Relay: RelayConfig{
			SignalTTL:     getEnvDuration("SIGNAL_TTL", 5*time.Minute),
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", time.Minute),
			CallMaxAge:    getEnvDuration("CALL_MAX_AGE", 4*time.Hour),
		},
		PresenceTTL: getEnvDuration("PRESENCE_TTL", time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
