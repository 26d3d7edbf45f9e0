// Package config loads the tradebook configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string        // TB_DATA_DIR
	BookFile       string        // TB_BOOK_FILE, defaults to DataDir/book.jsonl
	Store          string        // TB_STORE: dir or sqlite
	Addr           string        // TB_ADDR, listen address of the server
	LogLevel       string        // TB_LOG_LEVEL
	LogPretty      bool          // TB_LOG_PRETTY
	NewsFeeds      []string      // TB_NEWS_FEEDS, comma separated
	NewsSchedule   string        // TB_NEWS_SCHEDULE, cron spec
	NewsMaxItems   int           // TB_NEWS_MAX_ITEMS
	QuoteProvider  string        // TB_QUOTE_PROVIDER: yahoo or tradegate
	QuoteTTL       time.Duration // TB_QUOTE_TTL
	Currency       string        // TB_CURRENCY
	RequestTimeout time.Duration // TB_REQUEST_TIMEOUT
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TB_DATA_DIR", ".tradebook")
	cfg := &Config{
		DataDir:        dataDir,
		BookFile:       getEnv("TB_BOOK_FILE", filepath.Join(dataDir, "book.jsonl")),
		Store:          getEnv("TB_STORE", "dir"),
		Addr:           getEnv("TB_ADDR", ":8080"),
		LogLevel:       getEnv("TB_LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("TB_LOG_PRETTY", false),
		NewsFeeds:      getEnvAsList("TB_NEWS_FEEDS"),
		NewsSchedule:   getEnv("TB_NEWS_SCHEDULE", "@every 15m"),
		NewsMaxItems:   getEnvAsInt("TB_NEWS_MAX_ITEMS", 100),
		QuoteProvider:  getEnv("TB_QUOTE_PROVIDER", "yahoo"),
		QuoteTTL:       getEnvAsDuration("TB_QUOTE_TTL", 60*time.Second),
		Currency:       strings.ToUpper(getEnv("TB_CURRENCY", "EUR")),
		RequestTimeout: getEnvAsDuration("TB_REQUEST_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("TB_DATA_DIR is required")
	}
	switch c.Store {
	case "dir", "sqlite":
	default:
		return fmt.Errorf("TB_STORE must be dir or sqlite, got %q", c.Store)
	}
	switch c.QuoteProvider {
	case "yahoo", "tradegate":
	default:
		return fmt.Errorf("TB_QUOTE_PROVIDER must be yahoo or tradegate, got %q", c.QuoteProvider)
	}
	if c.NewsMaxItems <= 0 {
		return fmt.Errorf("TB_NEWS_MAX_ITEMS must be positive, got %d", c.NewsMaxItems)
	}
	return nil
}

// Helper functions
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
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var res []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
