// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/gamedeck/internal/cache"
	"github.com/tomtom215/gamedeck/internal/logging"
)

// fakeFetcher returns canned results per term and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string]Metadata
	errs    map[string]error
	calls   map[string]int
	delay   time.Duration
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: map[string]Metadata{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, term string) (Metadata, error) {
	f.mu.Lock()
	f.calls[term]++
	md, err := f.results[term], f.errs[term]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if md == nil {
		return Metadata{}, nil
	}
	return md, nil
}

func (f *fakeFetcher) callCount(term string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[term]
}

func TestService_LookupCaches(t *testing.T) {
	f := newFakeFetcher()
	f.results["Portal"] = Metadata{"name": "Portal"}
	svc := NewService(f, cache.New[Metadata]("test-catalog", time.Minute), 0)

	for i := 0; i < 3; i++ {
		if md := svc.Lookup(context.Background(), "Portal"); md.String("name") != "Portal" {
			t.Fatalf("unexpected metadata %v", md)
		}
	}
	// cache key is case-insensitive
	svc.Lookup(context.Background(), "portal")

	if n := f.callCount("Portal"); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}

	svc.Invalidate()
	svc.Lookup(context.Background(), "Portal")
	if n := f.callCount("Portal"); n != 2 {
		t.Errorf("expected refetch after Invalidate, got %d calls", n)
	}
}

func TestService_LookupErrorYieldsEmptyAndLogsTerm(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.Init(logging.DefaultConfig())

	f := newFakeFetcher()
	f.errs["Doom"] = errors.New("connection reset by peer")
	svc := NewService(f, nil, 0)

	md := svc.Lookup(context.Background(), "Doom")
	if md == nil || !md.Empty() {
		t.Fatalf("expected empty non-nil metadata, got %v", md)
	}
	if !strings.Contains(buf.String(), `"search_term":"Doom"`) {
		t.Errorf("expected search term in log, got %s", buf.String())
	}
}

func TestService_NotFoundIsNotCached(t *testing.T) {
	f := newFakeFetcher()
	svc := NewService(f, cache.New[Metadata]("test-catalog-miss", time.Minute), 0)

	svc.Lookup(context.Background(), "Unknown")
	svc.Lookup(context.Background(), "Unknown")
	if n := f.callCount("Unknown"); n != 2 {
		t.Errorf("empty results must not be cached, got %d calls", n)
	}
}

func TestService_LookupTimeout(t *testing.T) {
	f := newFakeFetcher()
	f.results["Slow"] = Metadata{"name": "Slow"}
	f.delay = time.Second
	svc := NewService(f, nil, 20*time.Millisecond)

	start := time.Now()
	md := svc.Lookup(context.Background(), "Slow")
	if !md.Empty() {
		t.Errorf("timed out lookup should be empty, got %v", md)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("lookup did not honor timeout, took %v", elapsed)
	}
}

func TestService_BlankTerm(t *testing.T) {
	f := newFakeFetcher()
	svc := NewService(f, nil, 0)
	if md := svc.Lookup(context.Background(), "   "); !md.Empty() {
		t.Errorf("expected empty metadata, got %v", md)
	}
	if len(f.calls) != 0 {
		t.Error("blank term should not reach the fetcher")
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]error{
		"no_key":       ErrNoAPIKey,
		"circuit_open": gobreaker.ErrOpenState,
		"timeout":      context.DeadlineExceeded,
		"rate_limited": ErrRateLimited,
		"error":        errors.New("boom"),
	}
	for want, err := range tests {
		if got := classify(err); got != want {
			t.Errorf("classify(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestCircuitBreakerClient_Opens(t *testing.T) {
	f := newFakeFetcher()
	f.errs["Doom"] = errors.New("RAWG returned status 503")
	cbc := NewCircuitBreakerClient(f, BreakerSettings{MinRequests: 3, Timeout: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := cbc.Fetch(context.Background(), "Doom"); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cbc.State() != "open" {
		t.Fatalf("expected open circuit, got %s", cbc.State())
	}

	_, err := cbc.Fetch(context.Background(), "Doom")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if n := f.callCount("Doom"); n != 3 {
		t.Errorf("open circuit should not call through, got %d calls", n)
	}
}

func TestCircuitBreakerClient_IgnoresMissingKey(t *testing.T) {
	f := newFakeFetcher()
	f.errs["Doom"] = ErrNoAPIKey
	cbc := NewCircuitBreakerClient(f, BreakerSettings{MinRequests: 2})

	for i := 0; i < 5; i++ {
		_, _ = cbc.Fetch(context.Background(), "Doom")
	}
	if cbc.State() != "closed" {
		t.Errorf("missing key must not trip the breaker, state=%s", cbc.State())
	}
}

func TestKeyStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets", "rawg.key")

	ks, err := NewKeyStore("", path)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}
	if ks.Present() {
		t.Fatal("expected no key before setup")
	}

	changed := 0
	ks.OnChange(func() { changed++ })

	if err := ks.Set("  abc123 "); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if ks.Key() != "abc123" || changed != 1 {
		t.Errorf("Key() = %q, changed = %d", ks.Key(), changed)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("key file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file perm = %o, want 600", perm)
	}

	reloaded, err := NewKeyStore("", path)
	if err != nil || reloaded.Key() != "abc123" {
		t.Errorf("reloaded key = %q, err = %v", reloaded.Key(), err)
	}

	if err := ks.Set(" "); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey for blank key, got %v", err)
	}
}

func TestKeyStore_ExplicitKeyWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawg.key")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ks, err := NewKeyStore("from-env", path)
	if err != nil {
		t.Fatal(err)
	}
	if ks.Key() != "from-env" {
		t.Errorf("Key() = %q, want from-env", ks.Key())
	}
}
