// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Catalog.BaseURL != "https://api.rawg.io/api/games" {
		t.Errorf("Catalog.BaseURL = %q", cfg.Catalog.BaseURL)
	}
	if cfg.Rewrite.Threshold != 0.46 {
		t.Errorf("Rewrite.Threshold = %v, want 0.46", cfg.Rewrite.Threshold)
	}
	if len(cfg.Rewrite.Examples) != 10 {
		t.Errorf("expected 10 default rewrite examples, got %d", len(cfg.Rewrite.Examples))
	}
	if cfg.Catalog.CacheTTL != 30*time.Minute {
		t.Errorf("Catalog.CacheTTL = %v, want 30m", cfg.Catalog.CacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("GAME_DIR", "/srv/games")
	t.Setenv("RAWG_API_KEY", "secret")
	t.Setenv("RAWG_CACHE_TTL", "2m")
	t.Setenv("REWRITE_THRESHOLD", "0.5")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, http://localhost:3000")
	t.Setenv("REWRITE_EXAMPLES", "games like Doom, please|recommend an RPG")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Library.GameDir != "/srv/games" {
		t.Errorf("Library.GameDir = %q", cfg.Library.GameDir)
	}
	if cfg.Catalog.APIKey != "secret" {
		t.Errorf("Catalog.APIKey = %q", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.CacheTTL != 2*time.Minute {
		t.Errorf("Catalog.CacheTTL = %v", cfg.Catalog.CacheTTL)
	}
	if cfg.Rewrite.Threshold != 0.5 {
		t.Errorf("Rewrite.Threshold = %v", cfg.Rewrite.Threshold)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if len(cfg.Rewrite.Examples) != 2 || cfg.Rewrite.Examples[0] != "games like Doom, please" {
		t.Errorf("Examples = %v", cfg.Rewrite.Examples)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
library:
  game_dir: /mnt/games
llm:
  provider: openai
  base_url: http://localhost:8000/v1
  model: gpt-4o-mini
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LLM_MODEL", "qwen2.5")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Library.GameDir != "/mnt/games" {
		t.Errorf("Library.GameDir = %q", cfg.Library.GameDir)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "qwen2.5" {
		t.Errorf("env should override file: LLM.Model = %q", cfg.LLM.Model)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"RAWG_API_KEY": "catalog.api_key",
		"LOG_LEVEL":    "logging.level",
		"PATH":         "",
		"HOME":         "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"empty game dir", func(c *Config) { c.Library.GameDir = " " }, "GAME_DIR"},
		{"bad catalog scheme", func(c *Config) { c.Catalog.BaseURL = "ftp://rawg" }, "RAWG_API_URL"},
		{"zero concurrency", func(c *Config) { c.Catalog.Concurrency = 0 }, "RAWG_CONCURRENCY"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }, "LLM_PROVIDER"},
		{"no embedding model", func(c *Config) { c.Embedding.Model = "" }, "EMBEDDING_MODEL"},
		{"pattern without group", func(c *Config) { c.Rewrite.Pattern = "(?i)games like" }, "capture group"},
		{"broken pattern", func(c *Config) { c.Rewrite.Pattern = "(" }, "REWRITE_PATTERN"},
		{"threshold out of range", func(c *Config) { c.Rewrite.Threshold = 1.5 }, "REWRITE_THRESHOLD"},
		{"no examples", func(c *Config) { c.Rewrite.Examples = nil }, "REWRITE_EXAMPLES"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"rate limit disabled skips checks", func(c *Config) {
			c.Server.RateLimitDisabled = true
			c.Server.RateLimitReqs = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
