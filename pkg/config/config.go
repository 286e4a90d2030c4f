package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nakanaka07/kueccha/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	CSV       CSVConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// SheetsConfig holds Google Sheets API configuration
type SheetsConfig struct {
	BaseURL       string
	SpreadsheetID string
	APIKey        string
	Timeout       time.Duration
}

// CSVConfig holds the static CSV fallback configuration
type CSVConfig struct {
	BaseURL string
	Files   []string
}

// CacheConfig holds POI cache configuration
type CacheConfig struct {
	TTL             time.Duration
	MaxEntries      int
	WarmingInterval time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is honored when present, and with VAULT_ENABLED=true
// secrets are pulled from Vault before anything is read.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if _, err := secrets.Hydrate(context.Background(), secrets.ConfigFromEnv()); err != nil {
		return nil, fmt.Errorf("failed to load vault secrets: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Sheets: SheetsConfig{
			BaseURL:       getEnv("SHEETS_BASE_URL", "https://sheets.googleapis.com/v4/spreadsheets"),
			SpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
			APIKey:        getEnv("SHEETS_API_KEY", ""),
			Timeout:       getEnvAsDuration("SHEETS_TIMEOUT", 10*time.Second),
		},
		CSV: CSVConfig{
			BaseURL: getEnv("CSV_BASE_URL", ""),
			Files:   getEnvAsList("CSV_FILES", []string{"restaurants.csv", "parkings.csv", "toilets.csv"}),
		},
		Cache: CacheConfig{
			TTL:             getEnvAsDuration("CACHE_TTL", 10*time.Minute),
			MaxEntries:      getEnvAsInt("CACHE_MAX_ENTRIES", 128),
			WarmingInterval: getEnvAsDuration("CACHE_WARMING_INTERVAL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", ""),
			APIKey: getEnv("TYPESENSE_API_KEY", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "kueccha-poi"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host is configured
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
