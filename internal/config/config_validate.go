// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/tomtom215/gamedeck/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateRewrite(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be positive")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateLibrary() error {
	if strings.TrimSpace(c.Library.GameDir) == "" {
		return fmt.Errorf("GAME_DIR is required")
	}
	return nil
}

// validateCatalog does not require an API key: the key can be supplied at
// runtime through the setup endpoint.
func (c *Config) validateCatalog() error {
	if err := validateHTTPURL(c.Catalog.BaseURL, "RAWG_API_URL"); err != nil {
		return err
	}
	if c.Catalog.Timeout <= 0 || c.Catalog.LookupTimeout <= 0 {
		return fmt.Errorf("RAWG_TIMEOUT and RAWG_LOOKUP_TIMEOUT must be positive")
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("RAWG_MAX_RETRIES must not be negative")
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return fmt.Errorf("RAWG_REQUESTS_PER_SECOND must not be negative")
	}
	if c.Catalog.Concurrency < 1 {
		return fmt.Errorf("RAWG_CONCURRENCY must be at least 1")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if err := validateProvider(c.LLM.Provider, "LLM_PROVIDER"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.LLM.BaseURL, "LLM_BASE_URL"); err != nil {
		return err
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if err := validateProvider(c.Embedding.Provider, "EMBEDDING_PROVIDER"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Embedding.BaseURL, "EMBEDDING_BASE_URL"); err != nil {
		return err
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required")
	}
	return nil
}

func (c *Config) validateRewrite() error {
	re, err := regexp.Compile(c.Rewrite.Pattern)
	if err != nil {
		return fmt.Errorf("REWRITE_PATTERN is invalid: %w", err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("REWRITE_PATTERN must contain a capture group for the subject")
	}
	if c.Rewrite.Threshold < -1 || c.Rewrite.Threshold > 1 {
		return fmt.Errorf("REWRITE_THRESHOLD must be within [-1, 1], got %v", c.Rewrite.Threshold)
	}
	if len(c.Rewrite.Examples) == 0 {
		return fmt.Errorf("REWRITE_EXAMPLES must contain at least one phrase")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateProvider(provider, name string) error {
	switch provider {
	case "ollama", "openai":
		return nil
	default:
		return fmt.Errorf("%s must be ollama or openai, got %q", name, provider)
	}
}

func validateHTTPURL(raw, name string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
