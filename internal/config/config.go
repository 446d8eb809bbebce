package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                 string
	Environment          string
	BackendAddress       string
	FirestoreProject     string
	FirestoreEnabled     bool
	CacheTTL             time.Duration
	MaxConcurrentFetches int
	FutureMonths         int
	LogLevel             string
	UpstreamTimeout      time.Duration
}

// Load reads an optional .env file and then the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "production"),
		BackendAddress:       strings.TrimRight(getEnv("BACKEND_ADDRESS", ""), "/"),
		FirestoreProject:     getEnv("FIRESTORE_PROJECT_ID", "c2w-dashboard"),
		FirestoreEnabled:     getEnvBool("FIRESTORE_ENABLED", false),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
		MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", 10),
		FutureMonths:         getEnvInt("FUTURE_MONTHS", 5),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		UpstreamTimeout:      time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// Validate checks the fields the service cannot run without
func (c *Config) Validate() error {
	if c.BackendAddress == "" {
		return errors.New("BACKEND_ADDRESS is required")
	}
	if c.MaxConcurrentFetches < 1 {
		return errors.New("MAX_CONCURRENT_FETCHES must be at least 1")
	}
	if c.FutureMonths < 0 {
		return errors.New("FUTURE_MONTHS must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}
