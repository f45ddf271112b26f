// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/fxconvert/internal/domain/entity"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultFeedURL is the ECB reference rate history for the last 90 days
	DefaultFeedURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-hist-90d.xml"

	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Port            string
	PivotCurrency   string
	LogLevel        logger.Level
	MaxLookbackDays int

	Feed    FeedConfig
	Storage StorageConfig
	Cache   CacheConfig
	Import  ImportConfig
}

// FeedConfig configures the upstream rate feed client
type FeedConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
}

// StorageConfig selects and locates the storage backend
type StorageConfig struct {
	Driver     string
	BadgerPath string
	SQLitePath string
}

// CacheConfig configures the lookup cache in front of the storage backend
type CacheConfig struct {
	TTL time.Duration
	// CleanSchedule is the cron schedule evicting expired entries, empty when disabled
	CleanSchedule string
}

// ImportConfig configures the scheduled feed import
type ImportConfig struct {
	Schedule string
	OnStart  bool
}

// Load loads configuration from environment variables and .env file if present.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("PIVOT_CURRENCY", "EUR")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("MAX_LOOKBACK_DAYS", 14)
	v.SetDefault("FEED_URL", DefaultFeedURL)
	v.SetDefault("FEED_TIMEOUT", "10s")
	v.SetDefault("FEED_MAX_RETRIES", 3)
	v.SetDefault("STORAGE_DRIVER", DriverBadger)
	v.SetDefault("BADGER_PATH", "./data/badger")
	v.SetDefault("SQLITE_PATH", "./data/rates.db")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("CACHE_CLEAN_SCHEDULE", "0 */10 * * * *")
	v.SetDefault("IMPORT_SCHEDULE", "0 0 16 * * MON-FRI")
	v.SetDefault("IMPORT_ON_START", false)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	log := logger.GetDefaultLogger()

	cfg := &Config{
		Port:            v.GetString("PORT"),
		PivotCurrency:   entity.NormalizeCode(v.GetString("PIVOT_CURRENCY")),
		LogLevel:        logger.ParseLevel(v.GetString("LOG_LEVEL")),
		MaxLookbackDays: v.GetInt("MAX_LOOKBACK_DAYS"),
		Feed: FeedConfig{
			URL:        v.GetString("FEED_URL"),
			Timeout:    durationOrDefault(v, "FEED_TIMEOUT", 10*time.Second),
			MaxRetries: v.GetInt("FEED_MAX_RETRIES"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
			BadgerPath: v.GetString("BADGER_PATH"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Cache: CacheConfig{
			TTL:           durationOrDefault(v, "CACHE_TTL", time.Hour),
			CleanSchedule: strings.TrimSpace(v.GetString("CACHE_CLEAN_SCHEDULE")),
		},
		Import: ImportConfig{
			Schedule: strings.TrimSpace(v.GetString("IMPORT_SCHEDULE")),
			OnStart:  v.GetBool("IMPORT_ON_START"),
		},
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Warn("PORT not set, using default", map[string]interface{}{"port": cfg.Port})
	}

	if !entity.IsCurrencyCode(cfg.PivotCurrency) {
		return nil, fmt.Errorf("PIVOT_CURRENCY must be a 3-letter currency code, got %q", cfg.PivotCurrency)
	}

	if cfg.MaxLookbackDays < 0 {
		log.Warn("Invalid MAX_LOOKBACK_DAYS, using default", map[string]interface{}{
			"value":   cfg.MaxLookbackDays,
			"default": 14,
		})
		cfg.MaxLookbackDays = 14
	}

	if strings.EqualFold(cfg.Import.Schedule, "off") {
		cfg.Import.Schedule = ""
	}
	if strings.EqualFold(cfg.Cache.CleanSchedule, "off") {
		cfg.Cache.CleanSchedule = ""
	}

	if cfg.Feed.MaxRetries < 1 {
		cfg.Feed.MaxRetries = 1
	}

	switch cfg.Storage.Driver {
	case DriverBadger, DriverSQLite:
	default:
		return nil, fmt.Errorf("invalid storage driver %q (expected %q or %q)", cfg.Storage.Driver, DriverBadger, DriverSQLite)
	}

	return cfg, nil
}

// durationOrDefault parses a duration value, logging and falling back on bad input
func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			logger.Warn("Invalid duration, using default", map[string]interface{}{
				"key":     key,
				"value":   raw,
				"default": def.String(),
			})
		}
		return def
	}
	return d
}
