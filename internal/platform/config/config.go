package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything main needs to wire the server.
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	JWTSigningKey string

	// Export rate limiting. WindowLimit invocations per Window, per principal.
	ExportWindow      time.Duration
	ExportWindowLimit int
}

// FromEnv builds a Config from environment variables so main stays lean.
// A local .env file is honored when present; real environments set vars
// directly and the missing-file error is ignored.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:              getEnv("TEAMPULSE_ADDR", ":8080"),
		PostgresDSN:       os.Getenv("TEAMPULSE_POSTGRES_DSN"),
		RedisURL:          os.Getenv("TEAMPULSE_REDIS_URL"),
		JWTSigningKey:     os.Getenv("TEAMPULSE_JWT_SIGNING_KEY"),
		ExportWindow:      getEnvDuration("TEAMPULSE_EXPORT_WINDOW", time.Hour),
		ExportWindowLimit: getEnvInt("TEAMPULSE_EXPORT_LIMIT", 5),
	}
	if cfg.JWTSigningKey == "" {
		// Development default - must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
