package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	DatabaseURL string
	OutputDir   string

	DatastoreURL          string
	DatastoreAPIKey       string
	DatastoreTable        string
	DatastoreRateLimitRPS int
	DatastoreTimeoutMs    int
	DatastorePageSize     int
	DatastoreMaxRetries   int

	DatastoreTokenURL     string
	DatastoreClientID     string
	DatastoreClientSecret string

	MediaBaseURL          string
	MediaBucket           string
	AzureStorageAccount   string
	AzureStorageContainer string

	SyncIntervalSec int
	SyncAutoExport  bool

	HTTPAddr       string
	LogLevel       string
	NormalizeTrace bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "orders.db")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		DatastoreURL:          getEnv("DATASTORE_URL", ""),
		DatastoreAPIKey:       getEnv("DATASTORE_API_KEY", ""),
		DatastoreTable:        getEnv("DATASTORE_TABLE", "orders"),
		DatastoreRateLimitRPS: getEnvInt("DATASTORE_RATE_LIMIT_RPS", 5),
		DatastoreTimeoutMs:    getEnvInt("DATASTORE_TIMEOUT_MS", 30000),
		DatastorePageSize:     getEnvInt("DATASTORE_PAGE_SIZE", 500),
		DatastoreMaxRetries:   getEnvInt("DATASTORE_MAX_RETRIES", 4),

		DatastoreTokenURL:     getEnv("DATASTORE_TOKEN_URL", ""),
		DatastoreClientID:     getEnv("DATASTORE_CLIENT_ID", ""),
		DatastoreClientSecret: getEnv("DATASTORE_CLIENT_SECRET", ""),

		MediaBaseURL:          getEnv("MEDIA_BASE_URL", ""),
		MediaBucket:           getEnv("MEDIA_BUCKET", "product-images"),
		AzureStorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT_NAME", ""),
		AzureStorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "product-images"),

		SyncIntervalSec: getEnvInt("SYNC_INTERVAL_SEC", 300),
		SyncAutoExport:  getEnvBool("SYNC_AUTO_EXPORT", false),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		NormalizeTrace: getEnvBool("NORMALIZE_TRACE", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
