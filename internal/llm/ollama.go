// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package llm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// maxLineSize bounds a single NDJSON line from the server.
const maxLineSize = 1 << 20

// OllamaGenerator streams from POST {base}/api/generate. The response is
// newline-delimited JSON: {"response":"..","done":false} ... {"done":true}.
type OllamaGenerator struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

var _ Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generator for a local Ollama server. The HTTP
// client has no timeout; callers bound generation through ctx.
func NewOllamaGenerator(cfg Config) *OllamaGenerator {
	return &OllamaGenerator{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{},
	}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// Generate implements Generator. Errors before the first byte of the stream
// (connection refused, non-200 status) are returned directly.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (<-chan Token, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  true,
		Options: ollamaOptions{Temperature: g.temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = resp.Body.Close()
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("generate endpoint returned status %d: %s", resp.StatusCode, msg)
	}

	out := make(chan Token)
	go g.stream(ctx, resp.Body, out)
	return out, nil
}

func (g *OllamaGenerator) stream(ctx context.Context, body io.ReadCloser, out chan<- Token) {
	defer close(out)
	defer func() { _ = body.Close() }()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			send(ctx, out, Token{Err: fmt.Errorf("invalid stream line: %q", truncate(line, 120))})
			return
		}
		fields := gjson.GetManyBytes(line, "response", "done", "error")
		if msg := fields[2].String(); msg != "" {
			send(ctx, out, Token{Err: fmt.Errorf("model error: %s", msg)})
			return
		}
		if text := fields[0].String(); text != "" {
			if !send(ctx, out, Token{Text: text}) {
				return
			}
		}
		if fields[1].Bool() {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		send(ctx, out, Token{Err: fmt.Errorf("reading stream: %w", err)})
		return
	}
	send(ctx, out, Token{Err: io.ErrUnexpectedEOF})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
