package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/SAP-F-2025/difficulty-export/internal/validator"
)

type Config struct {
	RedisURL    string `json:"redis_url" validate:"required,redis_url"`
	ExportDir   string `json:"export_dir" validate:"required"`
	Namespace   string `json:"namespace" validate:"required,excludes=:"`
	ScanCount   int    `json:"scan_count" validate:"min=1"`
	DatabaseURL string `json:"database_url"`
	PolicyFile  string `json:"policy_file"`
	Port        string `json:"port" validate:"required"`
	Environment string `json:"environment" validate:"oneof=development production test"`
	Events      EventConfig
}

// LoadConfig reads an optional .env file and the process environment.
// A missing .env file is not an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ExportDir:   getEnv("EXPORT_DIR", "annotations"),
		Namespace:   getEnv("KEY_NAMESPACE", "v1"),
		ScanCount:   getEnvInt("SCAN_COUNT", 10_000),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		PolicyFile:  getEnv("MERGE_POLICY_FILE", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Events: EventConfig{
			Enabled:      getEnvBool("EVENTS_ENABLED", false),
			Publisher:    getEnv("EVENTS_PUBLISHER", "kafka"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			ExportTopic:  getEnv("EXPORT_TOPIC", "difficulty-exports"),
		},
	}, nil
}

// Validate checks the final configuration after flags have been applied.
func (c *Config) Validate(v *validator.Validator) error {
	return v.Validate(c)
}

// AuditEnabled reports whether export runs are recorded in postgres.
func (c *Config) AuditEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
