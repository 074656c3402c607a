// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/gamedeck/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gamedeck/config.yaml",
	"/etc/gamedeck/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ChatTimeout:     3 * time.Minute,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Library: LibraryConfig{
			GameDir: "./games",
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://api.rawg.io/api/games",
			Timeout:           10 * time.Second,
			LookupTimeout:     20 * time.Second,
			MaxRetries:        3,
			RetryDelay:        500 * time.Millisecond,
			RequestsPerSecond: 5,
			CacheTTL:          30 * time.Minute,
			Concurrency:       4,
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.1",
			Timeout:     2 * time.Minute,
			Temperature: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
			Timeout:  15 * time.Second,
		},
		Rewrite: RewriteConfig{
			Pattern:   recommend.DefaultPattern,
			Threshold: recommend.DefaultThreshold,
			Examples:  append([]string(nil), recommend.DefaultExamples...),
			Suffix:    recommend.DefaultSuffix,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with layered sources: defaults, then an
// optional YAML file, then environment variables. ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// RAWG_API_KEY -> catalog.api_key, GAME_DIR -> library.game_dir
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
// rewrite.examples uses "|" because example phrases contain commas.
var sliceConfigPaths = map[string]string{
	"server.cors_origins": ",",
	"rewrite.examples":    "|",
}

func processSliceFields(k *koanf.Koanf) error {
	for path, sep := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, sep)
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"chat_timeout":        "server.chat_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Library
	"game_dir":            "library.game_dir",
	"game_include_hidden": "library.include_hidden",

	// RAWG catalog
	"rawg_api_url":             "catalog.base_url",
	"rawg_api_key":             "catalog.api_key",
	"rawg_api_key_file":        "catalog.api_key_file",
	"rawg_timeout":             "catalog.timeout",
	"rawg_lookup_timeout":      "catalog.lookup_timeout",
	"rawg_max_retries":         "catalog.max_retries",
	"rawg_retry_delay":         "catalog.retry_delay",
	"rawg_requests_per_second": "catalog.requests_per_second",
	"rawg_cache_ttl":           "catalog.cache_ttl",
	"rawg_concurrency":         "catalog.concurrency",

	// Language model
	"llm_provider":    "llm.provider",
	"llm_base_url":    "llm.base_url",
	"llm_model":       "llm.model",
	"llm_api_key":     "llm.api_key",
	"llm_timeout":     "llm.timeout",
	"llm_temperature": "llm.temperature",

	// Embeddings
	"embedding_provider": "embedding.provider",
	"embedding_base_url": "embedding.base_url",
	"embedding_model":    "embedding.model",
	"embedding_api_key":  "embedding.api_key",
	"embedding_timeout":  "embedding.timeout",

	// Query rewriting
	"rewrite_pattern":   "rewrite.pattern",
	"rewrite_threshold": "rewrite.threshold",
	"rewrite_examples":  "rewrite.examples",
	"rewrite_suffix":    "rewrite.suffix",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped keys so unrelated environment
// variables never reach the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
