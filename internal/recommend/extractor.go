// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package recommend

import (
	"regexp"
	"strings"
)

var (
	numberedLine = regexp.MustCompile(`^\d+[.)]\s+`)
	bulletLine   = regexp.MustCompile(`^[*-]\s+`)

	// A hyphen only separates title from description when whitespace
	// precedes it, so "Half-Life 2 - classic FPS" keeps its hyphenated name.
	separator = regexp.MustCompile(`\s[-–—]`)

	suggestedLabel = regexp.MustCompile(`(?i)suggested games:`)
	listSplit      = regexp.MustCompile(`[,\n]`)
)

// ExtractTitles recovers candidate game titles from model output. The result
// is deduplicated by exact string and ordered by first appearance.
func ExtractTitles(text string) []string {
	titles := newTitleSet()

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if loc := numberedLine.FindStringIndex(line); loc != nil {
			titles.add(beforeSeparator(line[loc[1]:]))
			continue
		}
		if loc := bulletLine.FindStringIndex(line); loc != nil {
			rest := line[loc[1]:]
			title := beforeSeparator(rest)
			if title == rest {
				if i := strings.Index(rest, ":"); i >= 0 {
					title = rest[:i]
				}
			}
			titles.add(title)
		}
	}

	if len(titles.order) == 0 {
		extractSuggested(text, titles)
	}
	return titles.order
}

// extractSuggested handles answers like `Suggested Games: "Doom", Quake`.
func extractSuggested(text string, titles *titleSet) {
	loc := suggestedLabel.FindStringIndex(text)
	if loc == nil {
		return
	}
	for _, piece := range listSplit.Split(text[loc[1]:], -1) {
		piece = strings.TrimSpace(piece)
		if len(piece) >= 2 && piece[0] == '"' && piece[len(piece)-1] == '"' {
			piece = piece[1 : len(piece)-1]
		}
		titles.add(piece)
	}
}

func beforeSeparator(s string) string {
	if loc := separator.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

// cleanTitle trims whitespace and markdown emphasis such as **Portal**.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}

type titleSet struct {
	seen  map[string]struct{}
	order []string
}

func newTitleSet() *titleSet {
	return &titleSet{seen: make(map[string]struct{}), order: []string{}}
}

func (s *titleSet) add(title string) {
	title = cleanTitle(title)
	if title == "" {
		return
	}
	if _, ok := s.seen[title]; ok {
		return
	}
	s.seen[title] = struct{}{}
	s.order = append(s.order, title)
}
