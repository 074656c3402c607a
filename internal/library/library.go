// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package library lists installed games and enriches them with catalog data.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/gamedeck/internal/catalog"
	"github.com/tomtom215/gamedeck/internal/logging"
)

// Lookuper enriches a search term with catalog metadata and never fails.
type Lookuper interface {
	Lookup(ctx context.Context, term string) catalog.Metadata
}

// GameSummary is one entry of the games listing. Catalog fields are passed
// through untouched, so absent values encode as null.
type GameSummary struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Logo        any    `json:"logo"`
	Background  any    `json:"bg"`
	Released    any    `json:"released"`
	Rating      any    `json:"rating"`
	Metacritic  any    `json:"metacritic"`
	Playtime    any    `json:"playtime"`
	Platforms   any    `json:"platforms"`
	Genres      any    `json:"genres"`
	Tags        any    `json:"tags"`
	ESRBRating  any    `json:"esrb_rating"`
	Website     any    `json:"website"`
	Description any    `json:"description"`
	Screenshots any    `json:"screenshots"`
}

// Config configures a Library.
type Config struct {
	Dir           string
	IncludeHidden bool
	Concurrency   int
}

// Library scans a game directory.
type Library struct {
	dir           string
	includeHidden bool
	concurrency   int
	lookuper      Lookuper
}

// New creates a Library over cfg.Dir.
func New(cfg Config, lookuper Lookuper) *Library {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Library{
		dir:           cfg.Dir,
		includeHidden: cfg.IncludeHidden,
		concurrency:   cfg.Concurrency,
		lookuper:      lookuper,
	}
}

// Dir returns the scanned directory.
func (l *Library) Dir() string { return l.dir }

// Files returns the directory entries, sorted by name.
func (l *Library) Files() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read game directory %s: %w", l.dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !l.includeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// Check reports whether the directory can be listed.
func (l *Library) Check() error {
	_, err := l.Files()
	return err
}

// List scans the directory and enriches every file through the catalog.
// Only an unreadable directory is an error.
func (l *Library) List(ctx context.Context) ([]GameSummary, error) {
	files, err := l.Files()
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("dir", l.dir).Msg("Error reading game directory")
		return nil, err
	}

	games := make([]GameSummary, len(files))
	g := new(errgroup.Group)
	g.SetLimit(l.concurrency)
	for i, file := range files {
		g.Go(func() error {
			stem := Stem(file)
			games[i] = Summarize(file, l.lookuper.Lookup(ctx, stem))
			return nil
		})
	}
	_ = g.Wait()

	logging.Ctx(ctx).Debug().Int("games", len(games)).Str("dir", l.dir).Msg("Listed game library")
	return games, nil
}

// Summarize builds the listing entry for file from its catalog record.
func Summarize(file string, md catalog.Metadata) GameSummary {
	name := md.String("name")
	if name == "" {
		name = Capitalize(Stem(file))
	}

	logo := md["background_image"]
	bg := md["background_image_additional"]
	if !truthy(bg) {
		bg = logo
	}

	description, ok := md["description_raw"]
	if !ok {
		description = ""
	}

	return GameSummary{
		Name:        name,
		File:        file,
		Logo:        logo,
		Background:  bg,
		Released:    md["released"],
		Rating:      md["rating"],
		Metacritic:  md["metacritic"],
		Playtime:    md["playtime"],
		Platforms:   md["platforms"],
		Genres:      md["genres"],
		Tags:        md["tags"],
		ESRBRating:  md["esrb_rating"],
		Website:     md["website"],
		Description: description,
		Screenshots: md["short_screenshots"],
	}
}

// Stem strips the last extension from a file name. Names that are only an
// extension, like ".hidden", are kept whole.
func Stem(file string) string {
	ext := filepath.Ext(file)
	if ext == file {
		return file
	}
	return strings.TrimSuffix(file, ext)
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	default:
		return true
	}
}
