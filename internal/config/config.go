package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// DatabaseURL selects the PostgreSQL user directory. When empty the
	// server falls back to a local SQLite file at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// RedisURL enables the message history store. Empty disables history;
	// the relay itself is unaffected.
	RedisURL string

	// JWTSecret enables identity verification on the socket endpoint.
	// Empty keeps the hub in trust mode: clients may announce any identity.
	JWTSecret string

	// UploadDir is where uploaded attachments are stored and served from.
	UploadDir string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/chat.db"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		UploadDir:   getEnv("UPLOAD_DIR", "./data/uploads"),
	}

	// In production, an unauthenticated relay and an unset history store are
	// almost certainly misconfiguration.
	if cfg.Env == "production" {
		if cfg.JWTSecret == "" {
			panic("JWT_SECRET is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
