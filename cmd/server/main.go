// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package main is the entry point for the Gamedeck backend.
//
// Gamedeck serves a desktop game launcher: it lists the games installed in a
// local directory, enriched with RAWG catalog data, and answers free-form
// chat questions with language model recommendations.
//
// # Application Architecture
//
// Components are built in this order:
//
//  1. Configuration: defaults, optional config.yaml, then environment (Koanf v2)
//  2. Catalog: API key store, RAWG client, circuit breaker, TTL cache
//  3. Recommendation: embedder, query rewriter, generator, pipeline
//  4. Library: game directory scanner sharing the catalog service
//  5. HTTP: chi router with CORS, rate limiting and Prometheus metrics
//  6. Supervisor: suture tree running the cache janitor and the HTTP server
//
// # Configuration
//
// Common environment variables:
//   - RAWG_API_KEY: RAWG key (can also be set at runtime via POST /setup)
//   - GAME_DIR: directory holding installed games
//   - LLM_PROVIDER, LLM_BASE_URL, LLM_MODEL: generation backend
//   - EMBEDDING_PROVIDER, EMBEDDING_MODEL: rewriter embedding backend
//   - PORT, LOG_LEVEL, LOG_FORMAT
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server stops
// accepting connections and waits for in-flight requests before exiting.
//
// # Example Usage
//
//	export RAWG_API_KEY=your-key
//	export GAME_DIR=$HOME/Games
//	export LLM_MODEL=llama3.1
//	./gamedeck
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/gamedeck/internal/config"
	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logging still has its defaults here
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("game_dir", cfg.Library.GameDir).
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Str("embedding_provider", cfg.Embedding.Provider).
		Msg("Starting Gamedeck")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	app.register(tree)

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within shutdown timeout")
	}
	logging.Info().Msg("Gamedeck stopped")
}
