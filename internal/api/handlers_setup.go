// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package api

import (
	"net/http"

	"github.com/tomtom215/gamedeck/internal/logging"
)

// KeyStatus is the body of GET /check-key and of a successful POST /setup.
type KeyStatus struct {
	Present bool `json:"present"`
}

// Setup handles POST /setup. The body is form-encoded api_key=... or
// JSON {"api_key": "..."}.
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	req, err := parseSetupRequest(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateRequest(&req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.keys.Set(req.APIKey); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to store RAWG API key")
		respondError(w, http.StatusInternalServerError, "Could not save API key")
		return
	}

	logging.Ctx(r.Context()).Info().Msg("RAWG API key updated")
	respondJSON(w, http.StatusOK, KeyStatus{Present: true})
}

// CheckKey handles GET /check-key.
func (h *Handler) CheckKey(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, KeyStatus{Present: h.keys.Present()})
}
