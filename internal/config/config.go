package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the service configuration, loaded from the environment.
type Config struct {
	Port      string
	RedisAddr string
	JWTSecret string

	MatchInterval    time.Duration
	GroupSize        int
	QualityThreshold float64
	QueueMaxWait     time.Duration // zero disables the stale sweep

	DatabaseURL string // postgres DSN; empty means sqlite
	SQLitePath  string

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:      getEnvOrDefault("PORT", "8084"),
		RedisAddr: getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		JWTSecret: getEnvOrDefault("JWT_SECRET", "dev-secret-change-me"),

		MatchInterval:    getDurationOrDefault("MATCH_INTERVAL", 5*time.Second),
		GroupSize:        getIntOrDefault("GROUP_SIZE", 4),
		QualityThreshold: getFloatOrDefault("QUALITY_THRESHOLD", 0.6),
		QueueMaxWait:     getDurationOrDefault("QUEUE_MAX_WAIT", 0),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "partymatch.db"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntOrDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloatOrDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationOrDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
