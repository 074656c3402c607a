// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package recommend

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/tomtom215/gamedeck/internal/embedding"
	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/metrics"
)

// DefaultPattern captures the subject of "suggest/recommend/games like/similar
// to <subject>" up to the first ?, . or !.
const DefaultPattern = `(?i)(?:suggest|recommend|games\s+like|similar\s+to)\s+(?:me\s+)?(?:some\s+|something\s+|a\s+few\s+)?(?:games?\s+)?(?:like\s+|similar\s+to\s+)?([^?.!]+)`

// DefaultThreshold is the cosine similarity a query must exceed to be
// treated as a recommendation request.
const DefaultThreshold = 0.46

// DefaultSuffix is appended to recommendation requests so the model answers
// with a parseable list.
const DefaultSuffix = "Make sure they are AAA titles. Respond with a numbered list of game titles only — no descriptions, no extra text, one below the other."

// DefaultExamples are the canonical recommendation requests the similarity
// fallback compares against.
var DefaultExamples = []string{
	"Suggest games like The Witcher 3",
	"Recommend me something similar to Dark Souls",
	"What should I play after finishing Red Dead Redemption 2?",
	"I loved Mass Effect, what else would I enjoy?",
	"Give me a list of open world RPGs",
	"What are some good games like God of War?",
	"Any recommendations for a story driven shooter?",
	"Looking for a game similar to Hollow Knight",
	"Which games play like Elden Ring?",
	"Can you find me a new game to play this weekend?",
}

// Rewrite reasons, also used as metric labels.
const (
	ReasonPattern          = "pattern"
	ReasonSimilarity       = "similarity"
	ReasonUnchanged        = "unchanged"
	ReasonEmbeddingError   = "embedding_error"
	ReasonAlreadyRewritten = "already_rewritten"
	ReasonNoEmbedder       = "no_embedder"
)

// RewriterConfig configures a Rewriter. Zero values take the package defaults.
type RewriterConfig struct {
	Pattern   string
	Threshold float64
	Examples  []string
	Suffix    string
}

// RewriteResult is the outcome of a single Rewrite call.
type RewriteResult struct {
	Query  string
	Reason string
	// Score is the max similarity, set only when the embedding path ran.
	Score float64
}

// Rewritten reports whether the query was changed.
func (r RewriteResult) Rewritten() bool {
	return r.Reason == ReasonPattern || r.Reason == ReasonSimilarity
}

// Rewriter decides whether a chat query should become a strict list request.
type Rewriter struct {
	pattern   *regexp.Regexp
	threshold float64
	suffix    string
	embedder  embedding.Embedder
	examples  [][]float64
}

// NewRewriter compiles the pattern and embeds the example phrases once. A nil
// embedder yields a pattern-only rewriter.
func NewRewriter(ctx context.Context, embedder embedding.Embedder, cfg RewriterConfig) (*Rewriter, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if len(cfg.Examples) == 0 {
		cfg.Examples = DefaultExamples
	}
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultSuffix
	}

	re, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile rewrite pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("rewrite pattern %q has no capture group", cfg.Pattern)
	}

	r := &Rewriter{
		pattern:   re,
		threshold: cfg.Threshold,
		suffix:    strings.TrimSpace(cfg.Suffix),
		embedder:  embedder,
	}
	if embedder == nil {
		return r, nil
	}

	r.examples = make([][]float64, 0, len(cfg.Examples))
	for _, ex := range cfg.Examples {
		vec, err := embedder.Embed(ctx, ex)
		if err != nil {
			return nil, fmt.Errorf("embed example %q: %w", ex, err)
		}
		r.examples = append(r.examples, vec)
	}
	logging.Info().Int("examples", len(r.examples)).Float64("threshold", r.threshold).Msg("Query rewriter ready")
	return r, nil
}

// Template returns the instruction sent for a captured subject.
func (r *Rewriter) Template(subject string) string {
	return "Suggest some games similar to " + subject + ". " + r.suffix
}

// Rewrite returns the query to send to the model. It never fails: an
// embedding error leaves the query unchanged.
func (r *Rewriter) Rewrite(ctx context.Context, query string) RewriteResult {
	res := r.rewrite(ctx, query)
	metrics.RecordRewrite(res.Reason, res.Score, res.Reason == ReasonSimilarity || res.Reason == ReasonUnchanged)
	logging.Ctx(ctx).Debug().Str("reason", res.Reason).Float64("score", res.Score).Msg("Query rewrite decision")
	return res
}

func (r *Rewriter) rewrite(ctx context.Context, query string) RewriteResult {
	trimmed := strings.TrimSpace(query)

	// Our own output contains "similar to"; never rewrite it a second time.
	if strings.HasSuffix(trimmed, r.suffix) {
		return RewriteResult{Query: query, Reason: ReasonAlreadyRewritten}
	}

	if subject := r.subject(trimmed); subject != "" {
		return RewriteResult{Query: r.Template(subject), Reason: ReasonPattern}
	}

	if r.embedder == nil || len(r.examples) == 0 {
		return RewriteResult{Query: query, Reason: ReasonNoEmbedder}
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("Embedding failed, sending query unchanged")
		return RewriteResult{Query: query, Reason: ReasonEmbeddingError}
	}

	score, _ := embedding.MaxSimilarity(vec, r.examples)
	if score > r.threshold {
		return RewriteResult{Query: query + " " + r.suffix, Reason: ReasonSimilarity, Score: score}
	}
	return RewriteResult{Query: query, Reason: ReasonUnchanged, Score: score}
}

// subject matches a lower-cased copy of q and returns the captured subject
// with the original casing, stripped of quotes, spaces and punctuation.
func (r *Rewriter) subject(q string) string {
	lower := strings.ToLower(q)
	m := r.pattern.FindStringSubmatchIndex(lower)
	if m == nil || m[2] < 0 {
		return ""
	}

	raw := lower[m[2]:m[3]]
	// Lower-casing can change byte lengths for some runes; only map the
	// span back when the offsets are still valid.
	if len(lower) == len(q) {
		raw = q[m[2]:m[3]]
	}
	return strings.TrimFunc(raw, isSubjectTrim)
}

func isSubjectTrim(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
