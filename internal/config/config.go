// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package config loads Gamedeck configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (CONFIG_PATH, ./config.yaml, /etc/gamedeck/config.yaml)
//  3. Environment variables: explicit mapping in envTransformFunc
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Library   LibraryConfig   `koanf:"library"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	LLM       LLMConfig       `koanf:"llm"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Rewrite   RewriteConfig   `koanf:"rewrite"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
	// ChatTimeout bounds a whole chat request: rewrite, generation and enrichment.
	ChatTimeout       time.Duration `koanf:"chat_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LibraryConfig describes where installed games live.
type LibraryConfig struct {
	GameDir       string `koanf:"game_dir"`
	IncludeHidden bool   `koanf:"include_hidden"` // include dotfiles in the listing
}

// CatalogConfig holds RAWG API client settings
type CatalogConfig struct {
	BaseURL    string `koanf:"base_url"`
	APIKey     string `koanf:"api_key"`
	APIKeyFile string `koanf:"api_key_file"`

	// Timeout applies to each HTTP call; LookupTimeout bounds search plus detail fetch.
	Timeout       time.Duration `koanf:"timeout"`
	LookupTimeout time.Duration `koanf:"lookup_timeout"`

	MaxRetries        int           `koanf:"max_retries"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	Concurrency       int           `koanf:"concurrency"`
}

// LLMConfig selects and configures the language model backend.
type LLMConfig struct {
	Provider    string        `koanf:"provider"` // ollama or openai
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	Timeout     time.Duration `koanf:"timeout"`
	Temperature float64       `koanf:"temperature"`
}

// EmbeddingConfig selects and configures the embedding backend used by the rewriter.
type EmbeddingConfig struct {
	Provider string        `koanf:"provider"`
	BaseURL  string        `koanf:"base_url"`
	Model    string        `koanf:"model"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
}

// RewriteConfig holds the query rewriter's tuned constants.
type RewriteConfig struct {
	// Pattern must contain one capture group for the subject.
	Pattern   string   `koanf:"pattern"`
	Threshold float64  `koanf:"threshold"`
	Examples  []string `koanf:"examples"`
	Suffix    string   `koanf:"suffix"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file, and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
