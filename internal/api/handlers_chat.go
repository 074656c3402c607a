// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/gamedeck/internal/logging"
	"github.com/tomtom215/gamedeck/internal/recommend"
)

// Chat handles POST /api/chat.
//
// Request:  {"query": "any games like Skyrim?"}
// Response: {"response": "...", "rawg_data": [{"game_name": "...", "metadata": {...}}]}
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if msg := validateRequest(&req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.config.ChatTimeout)
	defer cancel()

	res, err := h.pipeline.Handle(ctx, req.Query)
	if err != nil {
		status, msg := chatErrorStatus(err)
		logging.Ctx(ctx).Error().Err(err).Str("query", sanitizeLogValue(req.Query)).Int("status", status).Msg("Chat request failed")
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// chatErrorStatus maps pipeline errors to an HTTP status and client message.
func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, recommend.ErrEmptyQuery):
		return http.StatusBadRequest, "query is required"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Language model timed out"
	case errors.Is(err, recommend.ErrGeneration):
		return http.StatusBadGateway, "Language model unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
