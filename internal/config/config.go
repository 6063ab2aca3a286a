// Package config provides application configuration loaded from environment
// variables with defaults and validation. A .env file in the working
// directory is honored so tokens stay out of shell history.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tbourn/go-chat-export/internal/client"
	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/export"
	"github.com/tbourn/go-chat-export/internal/writers"
)

// Config holds all configuration values for the exporter. Range bounds and
// limits stay as strings here; CLI flags may override them before the
// request is assembled, and parsing happens once at that point.
type Config struct {
	// Auth
	Token               string // DISCORD_TOKEN
	RateLimitPreference string // RATE_LIMIT_PREFERENCE: respect-all|respect-user|respect-bot|ignore-all

	// Export
	Format         string // EXPORT_FORMAT: plaintext|htmldark|htmllight|csv|json
	After          string // EXPORT_AFTER: snowflake or date
	Before         string // EXPORT_BEFORE: snowflake or date
	OutputPath     string // OUTPUT_PATH: file, directory, or %-template
	PartitionLimit string // PARTITION_LIMIT: message count or file size
	MessageFilter  string // MESSAGE_FILTER: filter expression

	// Rendering
	ShouldFormatMarkdown      bool   // FORMAT_MARKDOWN
	ShouldDownloadAssets      bool   // DOWNLOAD_ASSETS
	ShouldReuseAssets         bool   // REUSE_ASSETS
	AssetsDirPath             string // ASSETS_DIR
	Locale                    string // LOCALE, BCP-47
	IsUtcNormalizationEnabled bool   // UTC_NORMALIZATION

	// Concurrency
	Parallelism int // PARALLELISM: concurrent channel exports (>= 1)

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the environment (and an optional .env
// file), applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	// Missing .env is the common case outside development.
	_ = godotenv.Load()

	cfg := Config{
		Token:               getenv("DISCORD_TOKEN", ""),
		RateLimitPreference: getenv("RATE_LIMIT_PREFERENCE", "respect-all"),

		Format:         getenv("EXPORT_FORMAT", "htmldark"),
		After:          getenv("EXPORT_AFTER", ""),
		Before:         getenv("EXPORT_BEFORE", ""),
		OutputPath:     getenv("OUTPUT_PATH", ""),
		PartitionLimit: getenv("PARTITION_LIMIT", ""),
		MessageFilter:  getenv("MESSAGE_FILTER", ""),

		ShouldFormatMarkdown:      getbool("FORMAT_MARKDOWN", true),
		ShouldDownloadAssets:      getbool("DOWNLOAD_ASSETS", false),
		ShouldReuseAssets:         getbool("REUSE_ASSETS", false),
		AssetsDirPath:             getenv("ASSETS_DIR", ""),
		Locale:                    getenv("LOCALE", ""),
		IsUtcNormalizationEnabled: getbool("UTC_NORMALIZATION", false),

		Parallelism: getint("PARALLELISM", 1),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if cfg.Parallelism < 1 {
		return cfg, errors.New("PARALLELISM must be >= 1")
	}
	if _, ok := client.ParseRateLimitPreference(cfg.RateLimitPreference); !ok {
		return cfg, errors.New("RATE_LIMIT_PREFERENCE must be one of: respect-all, respect-user, respect-bot, ignore-all")
	}
	if _, err := writers.ParseFormat(cfg.Format); err != nil {
		return cfg, err
	}
	if cfg.After != "" {
		if _, err := discord.ParseSnowflake(cfg.After); err != nil {
			return cfg, errors.New("EXPORT_AFTER must be a snowflake or a date")
		}
	}
	if cfg.Before != "" {
		if _, err := discord.ParseSnowflake(cfg.Before); err != nil {
			return cfg, errors.New("EXPORT_BEFORE must be a snowflake or a date")
		}
	}
	if _, err := export.ParsePartitionLimit(cfg.PartitionLimit); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
