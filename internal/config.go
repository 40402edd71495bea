package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/vatcheck/internal/vies"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	Metrics  MetricsConfig
	Vies     ViesConfig
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Namespace string
}

// ViesConfig holds settings for the remote verification client.
type ViesConfig struct {
	// Endpoint is the checkVat service URL. Override it to point at a test
	// double; the default is the production EU service.
	Endpoint string

	// Timeout bounds a single verification exchange end to end.
	Timeout time.Duration
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		// Walk up directories to find .env (max 2 parent directories)
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvInt("PORT", 3000),
		Metrics: MetricsConfig{
			Namespace: getEnv("METRICS_NAMESPACE", "vatcheck"),
		},
		Vies: ViesConfig{
			Endpoint: getEnv("VIES_ENDPOINT", vies.DefaultEndpoint),
			Timeout:  time.Duration(getEnvInt("VIES_TIMEOUT_SECONDS", 15)) * time.Second,
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Vies.Endpoint == "" {
		return nil, fmt.Errorf("VIES_ENDPOINT must not be empty")
	}
	if cfg.Vies.Timeout <= 0 {
		return nil, fmt.Errorf("VIES_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}
