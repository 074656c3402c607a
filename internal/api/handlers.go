// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package api exposes the chat, games, setup and health endpoints over a chi
// router.
package api

import (
	"context"
	"time"

	"github.com/tomtom215/gamedeck/internal/library"
	"github.com/tomtom215/gamedeck/internal/recommend"
)

// ChatPipeline answers chat queries.
type ChatPipeline interface {
	Handle(ctx context.Context, query string) (recommend.Result, error)
	HandleStream(ctx context.Context, query string, onToken func(string)) (recommend.Result, error)
}

// GameLister lists the local game library.
type GameLister interface {
	List(ctx context.Context) ([]library.GameSummary, error)
	Check() error
}

// KeyManager stores the RAWG API key.
type KeyManager interface {
	Present() bool
	Set(key string) error
}

// BreakerStater reports the catalog circuit breaker state.
type BreakerStater interface {
	State() string
}

// HandlerConfig carries request-level limits.
type HandlerConfig struct {
	// ChatTimeout bounds a whole chat request, generation and lookups included.
	ChatTimeout time.Duration
	// GamesTimeout bounds a games listing.
	GamesTimeout time.Duration
	// AllowedOrigin gates websocket handshakes; nil allows any origin.
	AllowedOrigin func(origin string) bool
}

// Handler holds the collaborators every endpoint needs.
type Handler struct {
	pipeline  ChatPipeline
	games     GameLister
	keys      KeyManager
	breaker   BreakerStater
	config    HandlerConfig
	startTime time.Time
}

// NewHandler wires the endpoint collaborators. breaker may be nil.
func NewHandler(pipeline ChatPipeline, games GameLister, keys KeyManager, breaker BreakerStater, config HandlerConfig) *Handler {
	return &Handler{
		pipeline:  pipeline,
		games:     games,
		keys:      keys,
		breaker:   breaker,
		config:    config,
		startTime: time.Now(),
	}
}

// withTimeout applies d to ctx when positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
