// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package library

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gamedeck/internal/catalog"
)

type recordingLookuper struct {
	mu      sync.Mutex
	records map[string]catalog.Metadata
	terms   []string
}

func (l *recordingLookuper) Lookup(_ context.Context, term string) catalog.Metadata {
	l.mu.Lock()
	l.terms = append(l.terms, term)
	l.mu.Unlock()
	if md, ok := l.records[term]; ok {
		return md
	}
	return catalog.Metadata{}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLibrary_List(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "portal.exe", "doom.iso", ".DS_Store")
	if err := os.Mkdir(filepath.Join(dir, "celeste"), 0o755); err != nil {
		t.Fatal(err)
	}

	look := &recordingLookuper{records: map[string]catalog.Metadata{
		"portal": {
			"name":              "Portal",
			"background_image":  "https://img/portal.jpg",
			"rating":            4.5,
			"description_raw":   "Physics puzzles.",
			"short_screenshots": []any{map[string]any{"id": 1.0, "image": "https://img/1.jpg"}},
		},
	}}
	lib := New(Config{Dir: dir}, look)

	games, err := lib.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("expected 3 games (dotfile skipped), got %d: %+v", len(games), games)
	}

	// os.ReadDir sorts by name
	wantFiles := []string{"celeste", "doom.iso", "portal.exe"}
	for i, f := range wantFiles {
		if games[i].File != f {
			t.Errorf("games[%d].File = %q, want %q", i, games[i].File, f)
		}
	}

	portal := games[2]
	if portal.Name != "Portal" || portal.Logo != "https://img/portal.jpg" || portal.Background != "https://img/portal.jpg" {
		t.Errorf("unexpected portal summary %+v", portal)
	}
	if portal.Description != "Physics puzzles." {
		t.Errorf("Description = %v", portal.Description)
	}

	doom := games[1]
	if doom.Name != "Doom" || doom.Logo != nil || doom.Description != "" {
		t.Errorf("unexpected fallback summary %+v", doom)
	}
}

func TestLibrary_IncludeHidden(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, ".hidden", "quake.exe")

	look := &recordingLookuper{}
	games, err := New(Config{Dir: dir, IncludeHidden: true}, look).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 || games[0].Name != ".hidden" {
		t.Errorf("unexpected games %+v", games)
	}
}

func TestLibrary_UnreadableDir(t *testing.T) {
	lib := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, &recordingLookuper{})
	if _, err := lib.List(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
	if err := lib.Check(); err == nil {
		t.Error("Check() should fail for missing directory")
	}
}

func TestLibrary_EmptyDir(t *testing.T) {
	games, err := New(Config{Dir: t.TempDir()}, &recordingLookuper{}).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(games)
	if string(data) != "[]" {
		t.Errorf("empty library should encode as [], got %s", data)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("additional background wins", func(t *testing.T) {
		s := Summarize("x.exe", catalog.Metadata{
			"background_image":            "logo.jpg",
			"background_image_additional": "bg.jpg",
		})
		if s.Logo != "logo.jpg" || s.Background != "bg.jpg" {
			t.Errorf("got logo=%v bg=%v", s.Logo, s.Background)
		}
	})

	t.Run("empty additional background falls back", func(t *testing.T) {
		s := Summarize("x.exe", catalog.Metadata{
			"background_image":            "logo.jpg",
			"background_image_additional": "",
		})
		if s.Background != "logo.jpg" {
			t.Errorf("bg = %v", s.Background)
		}
	})

	t.Run("null description is kept", func(t *testing.T) {
		s := Summarize("x.exe", catalog.Metadata{"description_raw": nil})
		if s.Description != nil {
			t.Errorf("description = %v", s.Description)
		}
	})

	t.Run("json keys", func(t *testing.T) {
		data, err := json.Marshal(Summarize("hades.exe", catalog.Metadata{}))
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		for _, k := range []string{"name", "file", "logo", "bg", "released", "rating", "metacritic", "playtime",
			"platforms", "genres", "tags", "esrb_rating", "website", "description", "screenshots"} {
			if _, ok := m[k]; !ok {
				t.Errorf("missing key %q", k)
			}
		}
		if m["name"] != "Hades" {
			t.Errorf("name = %v", m["name"])
		}
	})
}

func TestStemAndCapitalize(t *testing.T) {
	tests := []struct {
		file, stem, name string
	}{
		{"portal.exe", "portal", "Portal"},
		{"half-life 2.lnk", "half-life 2", "Half-life 2"},
		{"archive.tar.gz", "archive.tar", "Archive.tar"},
		{"DOOM", "DOOM", "Doom"},
		{".hidden", ".hidden", ".hidden"},
		{"élan.exe", "élan", "Élan"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := Stem(tt.file); got != tt.stem {
				t.Errorf("Stem() = %q, want %q", got, tt.stem)
			}
			if got := Capitalize(Stem(tt.file)); got != tt.name {
				t.Errorf("Capitalize() = %q, want %q", got, tt.name)
			}
		})
	}
	if Capitalize("") != "" {
		t.Error("Capitalize(\"\") should be empty")
	}
}
