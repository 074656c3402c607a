// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package api

import (
	"net/http"
)

// Games handles GET /api/games: every file in the game directory, enriched
// with catalog metadata.
func (h *Handler) Games(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context(), h.config.GamesTimeout)
	defer cancel()

	games, err := h.games.List(ctx)
	if err != nil {
		// detail is logged by the library
		respondError(w, http.StatusInternalServerError, "Could not access game directory")
		return
	}

	respondJSON(w, http.StatusOK, games)
}
