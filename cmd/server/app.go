// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/gamedeck/internal/api"
	"github.com/tomtom215/gamedeck/internal/cache"
	"github.com/tomtom215/gamedeck/internal/catalog"
	"github.com/tomtom215/gamedeck/internal/config"
	"github.com/tomtom215/gamedeck/internal/embedding"
	"github.com/tomtom215/gamedeck/internal/library"
	"github.com/tomtom215/gamedeck/internal/llm"
	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/recommend"
	"github.com/tomtom215/gamedeck/internal/supervisor"
	"github.com/tomtom215/gamedeck/internal/supervisor/services"
)

// rewriterStartupTimeout bounds embedding the example phrases at startup.
const rewriterStartupTimeout = time.Minute

// app holds the long-lived pieces main hands to the supervisor.
type app struct {
	catalogCache *cache.Cache[catalog.Metadata]
	server       *http.Server
	shutdown     time.Duration
}

// buildApp constructs every component from cfg. Only configuration mistakes
// are fatal; unreachable model or catalog backends degrade at request time.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	keys, err := catalog.NewKeyStore(cfg.Catalog.APIKey, cfg.Catalog.APIKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load RAWG API key: %w", err)
	}
	if !keys.Present() {
		logging.Warn().Msg("No RAWG API key configured; games will have no metadata until POST /setup")
	}

	client := catalog.NewClient(catalog.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		Timeout:           cfg.Catalog.Timeout,
		MaxRetries:        cfg.Catalog.MaxRetries,
		RetryDelay:        cfg.Catalog.RetryDelay,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
	}, keys)
	breaker := catalog.NewCircuitBreakerClient(client, catalog.BreakerSettings{})

	catalogCache := cache.New[catalog.Metadata]("catalog", cfg.Catalog.CacheTTL)
	catalogService := catalog.NewService(breaker, catalogCache, cfg.Catalog.LookupTimeout)
	// results fetched without a key (all empty) must not outlive a new key
	keys.OnChange(catalogService.Invalidate)

	rewriter, err := buildRewriter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	generator, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create language model client: %w", err)
	}

	pipeline := recommend.NewPipeline(rewriter, generator, catalogService, recommend.PipelineConfig{
		Provider:        cfg.LLM.Provider,
		Concurrency:     cfg.Catalog.Concurrency,
		GenerateTimeout: cfg.LLM.Timeout,
	})

	games := library.New(library.Config{
		Dir:           cfg.Library.GameDir,
		IncludeHidden: cfg.Library.IncludeHidden,
		Concurrency:   cfg.Catalog.Concurrency,
	}, catalogService)
	if err := games.Check(); err != nil {
		logging.Warn().Err(err).Str("game_dir", games.Dir()).Msg("Game directory is not readable yet")
	}

	mw := api.NewChiMiddlewareFromServer(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitReqs,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	)
	handler := api.NewHandler(pipeline, games, keys, breaker, api.HandlerConfig{
		ChatTimeout:   cfg.Server.ChatTimeout,
		GamesTimeout:  cfg.Server.ChatTimeout,
		AllowedOrigin: mw.AllowedOrigin,
	})
	router := api.NewRouter(handler, mw).SetupChi()

	server := services.NewHTTPServer(services.ServerConfig{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.ChatTimeout + 10*time.Second,
	}, router)

	return &app{
		catalogCache: catalogCache,
		server:       server,
		shutdown:     cfg.Server.Timeout,
	}, nil
}

// buildRewriter embeds the example phrases once. When the embedding backend
// is down at startup, the rewriter runs on the pattern rule alone.
func buildRewriter(ctx context.Context, cfg *config.Config) (*recommend.Rewriter, error) {
	rwCfg := recommend.RewriterConfig{
		Pattern:   cfg.Rewrite.Pattern,
		Threshold: cfg.Rewrite.Threshold,
		Examples:  cfg.Rewrite.Examples,
		Suffix:    cfg.Rewrite.Suffix,
	}

	embedder, err := embedding.New(embedding.Config{
		Provider: cfg.Embedding.Provider,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		APIKey:   cfg.Embedding.APIKey,
		Timeout:  cfg.Embedding.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, rewriterStartupTimeout)
	defer cancel()

	rewriter, err := recommend.NewRewriter(startCtx, embedder, rwCfg)
	if err == nil {
		return rewriter, nil
	}

	logging.Warn().Err(err).Msg("Query rewriter running without embeddings")
	rewriter, err = recommend.NewRewriter(ctx, nil, rwCfg)
	if err != nil {
		return nil, fmt.Errorf("create query rewriter: %w", err)
	}
	return rewriter, nil
}

// register places the long-lived services on the supervisor tree.
func (a *app) register(tree *supervisor.SupervisorTree) {
	tree.AddBackgroundService(a.catalogCache)
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.shutdown))
}
