// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package llm streams completions from a language model.
//
// A Generator returns a receive-only channel of Tokens. The producer goroutine
// owns the channel and closes it when generation ends, fails, or ctx is
// cancelled. A Token with a non-nil Err is always the last value sent.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/gamedeck/internal/metrics"
)

// ErrEmptyPrompt is returned by Generate for a blank prompt.
var ErrEmptyPrompt = errors.New("llm: empty prompt")

// Token is one streamed fragment of model output, or a terminal error.
type Token struct {
	Text string
	Err  error
}

// Generator streams model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (<-chan Token, error)
}

// Config configures a Generator.
type Config struct {
	Provider    string // "ollama" or "openai"
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
}

// New builds the Generator selected by cfg.Provider.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllamaGenerator(cfg), nil
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// Drain reads tokens until the channel closes and returns the concatenated
// text. onToken, if non-nil, sees every fragment in emission order. Drain
// returns the first stream error, or ctx.Err() if ctx ends first.
func Drain(ctx context.Context, tokens <-chan Token, onToken func(string)) (string, int, error) {
	var b strings.Builder
	count := 0
	for {
		select {
		case <-ctx.Done():
			return b.String(), count, ctx.Err()
		case tok, ok := <-tokens:
			if !ok {
				return b.String(), count, nil
			}
			if tok.Err != nil {
				return b.String(), count, tok.Err
			}
			if tok.Text == "" {
				continue
			}
			count++
			b.WriteString(tok.Text)
			if onToken != nil {
				onToken(tok.Text)
			}
		}
	}
}

// Complete runs g to completion and records generation metrics under provider.
func Complete(ctx context.Context, g Generator, provider, prompt string, onToken func(string)) (string, error) {
	start := time.Now()
	tokens, err := g.Generate(ctx, prompt)
	if err != nil {
		metrics.RecordGeneration(provider, time.Since(start), 0, err)
		return "", err
	}
	text, n, err := Drain(ctx, tokens, onToken)
	metrics.RecordGeneration(provider, time.Since(start), n, err)
	if err != nil {
		return text, fmt.Errorf("llm stream: %w", err)
	}
	return text, nil
}

// send delivers tok unless ctx is done. It reports whether the send happened.
func send(ctx context.Context, out chan<- Token, tok Token) bool {
	select {
	case out <- tok:
		return true
	case <-ctx.Done():
		return false
	}
}
