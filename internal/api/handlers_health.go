// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime_seconds"`
}

// ReadinessStatus is the body of GET /health/ready.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	APIKeyPresent  bool   `json:"api_key_present"`
	GameDirOK      bool   `json:"game_dir_ok"`
	CatalogCircuit string `json:"catalog_circuit,omitempty"`
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthStatus{
		Status: "healthy",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports whether chat and listing requests can succeed. The
// circuit state is informational only.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := ReadinessStatus{
		APIKeyPresent: h.keys.Present(),
		GameDirOK:     h.games.Check() == nil,
	}
	if h.breaker != nil {
		status.CatalogCircuit = h.breaker.State()
	}
	status.Ready = status.APIKeyPresent && status.GameDirOK

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
