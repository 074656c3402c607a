// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package embedding turns text into vectors for the query rewriter's
// similarity fallback. Two backends are supported: Ollama's native
// /api/embeddings endpoint and any OpenAI-compatible /embeddings endpoint.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrEmptyEmbedding is returned when a backend answers without a vector.
var ErrEmptyEmbedding = errors.New("embedding: empty vector in response")

// Embedder produces a fixed-length vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Config configures an Embedder.
type Config struct {
	Provider   string // "ollama" or "openai"
	BaseURL    string
	Model      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// New builds the Embedder selected by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllamaEmbedder(cfg), nil
	case "openai":
		return NewOpenAIEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Provider)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp float drift
	return math.Max(-1, math.Min(1, sim))
}

// MaxSimilarity returns the highest CosineSimilarity between query and any of
// refs, and the index of that ref. With no refs it returns (-1, -1).
func MaxSimilarity(query []float64, refs [][]float64) (float64, int) {
	best, idx := -1.0, -1
	for i, ref := range refs {
		if s := CosineSimilarity(query, ref); idx == -1 || s > best {
			best, idx = s, i
		}
	}
	return best, idx
}
