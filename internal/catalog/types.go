// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

// Package catalog fetches game metadata from the RAWG API.
//
// A lookup is a search by name (page_size=1) followed by a detail fetch for
// the top hit; the detail fields are overlaid on the search record. Lookups
// go through a rate limiter, retry with backoff, a circuit breaker and a TTL
// cache. Service.Lookup never fails: any error yields an empty Metadata.
package catalog

import (
	"strconv"
)

// Metadata is a RAWG game record as decoded JSON. The schema is RAWG's and is
// passed through to API clients untouched.
type Metadata map[string]any

// Empty reports whether m carries no fields.
func (m Metadata) Empty() bool {
	return len(m) == 0
}

// String returns m[key] if it is a string, else "".
func (m Metadata) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// ID returns the RAWG id as a decimal string, or "" when absent.
func (m Metadata) ID() string {
	switch v := m["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return ""
	}
}

// Merge returns a copy of m with every field of overlay applied on top.
func (m Metadata) Merge(overlay Metadata) Metadata {
	out := make(Metadata, len(m)+len(overlay))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
