// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/gamedeck/internal/catalog"
	"github.com/tomtom215/gamedeck/internal/llm"
	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/metrics"
)

var (
	// ErrEmptyQuery is returned for a blank chat query.
	ErrEmptyQuery = errors.New("query is required")

	// ErrGeneration wraps language model failures, including timeouts.
	ErrGeneration = errors.New("language model generation failed")
)

// Lookuper enriches a title with catalog metadata. Implementations never
// fail; a miss or error is an empty Metadata.
type Lookuper interface {
	Lookup(ctx context.Context, term string) catalog.Metadata
}

// QueryRewriter is satisfied by *Rewriter.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string) RewriteResult
}

// PipelineConfig tunes a Pipeline.
type PipelineConfig struct {
	// Provider labels generation metrics.
	Provider string
	// Concurrency bounds parallel catalog lookups; <= 0 means 4.
	Concurrency int
	// GenerateTimeout bounds the whole model stream; 0 disables it.
	GenerateTimeout time.Duration
}

// GameResult pairs an extracted title with its catalog record.
type GameResult struct {
	GameName string           `json:"game_name"`
	Metadata catalog.Metadata `json:"metadata"`
}

// Result is the chat response payload.
type Result struct {
	Response string       `json:"response"`
	Games    []GameResult `json:"rawg_data"`
}

// Pipeline runs rewrite, generation, extraction and enrichment for one query.
type Pipeline struct {
	rewriter  QueryRewriter
	generator llm.Generator
	lookuper  Lookuper
	cfg       PipelineConfig
}

// NewPipeline wires the collaborators together.
func NewPipeline(rewriter QueryRewriter, generator llm.Generator, lookuper Lookuper, cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}
	return &Pipeline{rewriter: rewriter, generator: generator, lookuper: lookuper, cfg: cfg}
}

// Handle answers query once the model has finished.
func (p *Pipeline) Handle(ctx context.Context, query string) (Result, error) {
	return p.HandleStream(ctx, query, nil)
}

// HandleStream is Handle with every model token also passed to onToken as it
// arrives. Extraction still waits for the complete text.
func (p *Pipeline) HandleStream(ctx context.Context, query string, onToken func(string)) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, ErrEmptyQuery
	}

	rw := p.rewriter.Rewrite(ctx, query)

	genCtx := ctx
	if p.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.cfg.GenerateTimeout)
		defer cancel()
	}

	text, err := llm.Complete(genCtx, p.generator, p.cfg.Provider, rw.Query, onToken)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("provider", p.cfg.Provider).Msg("Model generation failed")
		return Result{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	titles := ExtractTitles(text)
	metrics.ExtractedTitles.Observe(float64(len(titles)))
	logging.Ctx(ctx).Info().
		Str("rewrite", rw.Reason).
		Int("titles", len(titles)).
		Int("response_len", len(text)).
		Msg("Chat response generated")

	return Result{Response: text, Games: p.enrich(ctx, titles)}, nil
}

// enrich looks up every title in parallel. results[i] always belongs to
// titles[i].
func (p *Pipeline) enrich(ctx context.Context, titles []string) []GameResult {
	results := make([]GameResult, len(titles))

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)
	for i, title := range titles {
		g.Go(func() error {
			md := p.lookuper.Lookup(ctx, title)
			if md == nil {
				md = catalog.Metadata{}
			}
			results[i] = GameResult{GameName: title, Metadata: md}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
