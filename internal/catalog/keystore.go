// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// KeyProvider supplies the current RAWG API key.
type KeyProvider interface {
	Key() string
}

// KeyStore holds the RAWG API key in memory and, when a path is configured,
// persists it to a file readable only by the owner.
type KeyStore struct {
	mu       sync.RWMutex
	key      string
	path     string
	onChange []func()
}

var _ KeyProvider = (*KeyStore)(nil)

// NewKeyStore returns a store seeded with key. If key is empty and path names
// an existing file, the file's trimmed contents become the key. A missing file
// is not an error.
func NewKeyStore(key, path string) (*KeyStore, error) {
	s := &KeyStore{key: strings.TrimSpace(key), path: path}
	if s.key != "" || path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read API key file: %w", err)
	}
	s.key = strings.TrimSpace(string(data))
	return s, nil
}

// Key returns the current key, or "".
func (s *KeyStore) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Present reports whether a key is configured.
func (s *KeyStore) Present() bool {
	return s.Key() != ""
}

// OnChange registers fn to run after every successful Set.
func (s *KeyStore) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}

// Set replaces the key and writes it to the key file if one is configured.
// The in-memory key is only updated once the file write succeeds.
func (s *KeyStore) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrNoAPIKey
	}

	s.mu.Lock()
	if s.path != "" {
		if err := writeFileAtomic(s.path, []byte(key+"\n")); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to persist API key: %w", err)
		}
	}
	s.key = key
	hooks := append([]func(){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".rawg-key-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
