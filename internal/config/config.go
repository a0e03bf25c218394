package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	NarratorProvider string
	NarratorAPIKey   string
	ModelName        string
	BackendModelName string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		NarratorProvider: getEnv("NARRATOR_PROVIDER", "openai"),
		NarratorAPIKey:   getEnv("NARRATOR_API_KEY", ""),
		ModelName:        getEnv("MODEL_NAME", "gpt-4o-mini"),
		BackendModelName: getEnv("BACKEND_MODEL_NAME", "gpt-4o-mini"),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
