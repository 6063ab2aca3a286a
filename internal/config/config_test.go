package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Format != "htmldark" {
		t.Errorf("Format = %q, want htmldark", cfg.Format)
	}
	if cfg.RateLimitPreference != "respect-all" {
		t.Errorf("RateLimitPreference = %q, want respect-all", cfg.RateLimitPreference)
	}
	if !cfg.ShouldFormatMarkdown {
		t.Error("ShouldFormatMarkdown should default to true")
	}
	if cfg.ShouldDownloadAssets {
		t.Error("ShouldDownloadAssets should default to false")
	}
	if cfg.Parallelism != 1 {
		t.Errorf("Parallelism = %d, want 1", cfg.Parallelism)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "abc123")
	t.Setenv("EXPORT_FORMAT", "json")
	t.Setenv("EXPORT_AFTER", "2021-06-01")
	t.Setenv("PARTITION_LIMIT", "10mb")
	t.Setenv("MESSAGE_FILTER", "from:john has:image")
	t.Setenv("DOWNLOAD_ASSETS", "true")
	t.Setenv("PARALLELISM", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Token != "abc123" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.After != "2021-06-01" {
		t.Errorf("After = %q", cfg.After)
	}
	if cfg.PartitionLimit != "10mb" {
		t.Errorf("PartitionLimit = %q", cfg.PartitionLimit)
	}
	if cfg.MessageFilter != "from:john has:image" {
		t.Errorf("MessageFilter = %q", cfg.MessageFilter)
	}
	if !cfg.ShouldDownloadAssets {
		t.Error("ShouldDownloadAssets should be true")
	}
	if cfg.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", cfg.Parallelism)
	}
}

func TestLoadNormalizesWarningLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad parallelism", "PARALLELISM", "0"},
		{"bad rate limit preference", "RATE_LIMIT_PREFERENCE", "sometimes"},
		{"bad format", "EXPORT_FORMAT", "pdf"},
		{"bad after bound", "EXPORT_AFTER", "yesterday"},
		{"bad before bound", "EXPORT_BEFORE", "not-a-date"},
		{"bad partition limit", "PARTITION_LIMIT", "10lightyears"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q should fail", tt.key, tt.val)
			}
		})
	}
}

func TestGetboolVariants(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"YES", true}, {"on", true},
		{"0", false}, {"false", false}, {"No", false}, {"off", false},
		{"maybe", true}, // unparseable falls back to the default
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := getbool("TEST_BOOL", true); got != tt.want {
			t.Errorf("getbool(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}
