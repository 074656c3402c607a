// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/gamedeck/internal/cache"
	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/metrics"
)

// Service is the lookup entry point used by the HTTP handlers and the
// recommendation pipeline.
type Service struct {
	fetcher       Fetcher
	cache         *cache.Cache[Metadata]
	lookupTimeout time.Duration
}

// NewService wraps fetcher. A nil cache disables caching; lookupTimeout <= 0
// leaves lookups bounded only by the caller's context.
func NewService(fetcher Fetcher, c *cache.Cache[Metadata], lookupTimeout time.Duration) *Service {
	return &Service{fetcher: fetcher, cache: c, lookupTimeout: lookupTimeout}
}

// Lookup returns metadata for term. Failures, timeouts and misses all yield
// an empty, non-nil Metadata; errors are logged with the search term.
func (s *Service) Lookup(ctx context.Context, term string) Metadata {
	term = strings.TrimSpace(term)
	if term == "" {
		return Metadata{}
	}

	key := strings.ToLower(term)
	if s.cache != nil {
		if md, ok := s.cache.Get(key); ok {
			metrics.RecordCatalogLookup("cached")
			return md
		}
	}

	if s.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
	}

	md, err := s.fetcher.Fetch(ctx, term)
	if err != nil {
		outcome := classify(err)
		metrics.RecordCatalogLookup(outcome)
		event := logging.Ctx(ctx).Warn()
		if outcome == "error" {
			event = logging.Ctx(ctx).Error()
		}
		event.Err(err).Str("search_term", term).Str("outcome", outcome).Msg("Error fetching game metadata")
		return Metadata{}
	}
	if md.Empty() {
		metrics.RecordCatalogLookup("not_found")
		return Metadata{}
	}

	metrics.RecordCatalogLookup("found")
	if s.cache != nil {
		s.cache.Set(key, md)
	}
	return md
}

// Invalidate drops cached lookups. Wired to KeyStore.OnChange.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, ErrNoAPIKey):
		return "no_key"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
