package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr            string
	DatabaseURL     string
	JWTSecret       string
	SlackWebhookURL string
	MigrationsDir   string
	RunMigrations   bool
	ToastDuration   time.Duration
	Environment     string
	FrontendDir     string
}

func Load() Config {
	return Config{
		Addr:            getEnv("APP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "migrations"),
		RunMigrations:   getEnvBool("RUN_MIGRATIONS", true),
		ToastDuration:   getEnvDuration("TOAST_DURATION", 10*time.Second),
		Environment:     getEnv("APP_ENV", "development"),
		FrontendDir:     getEnv("FRONTEND_DIR", "frontend/dist"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
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

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.SlackWebhookURL) == "" {
		return fmt.Errorf("SLACK_WEBHOOK_URL must be set in production")
	}
	if c.ToastDuration <= 0 {
		return fmt.Errorf("TOAST_DURATION must be positive")
	}
	return nil
}
