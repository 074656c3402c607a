// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/gamedeck/internal/validation"
)

// maxBodySize caps request bodies; chat queries and API keys are tiny.
const maxBodySize = 64 * 1024

// ChatRequest is the body of POST /api/chat and of each websocket message.
type ChatRequest struct {
	Query string `json:"query" validate:"notblank,max=4000"`
}

// SetupRequest is the body of POST /setup.
type SetupRequest struct {
	APIKey string `json:"api_key" validate:"notblank,max=256"`
}

var errInvalidJSON = errors.New("invalid JSON body")

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return errInvalidJSON
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errInvalidJSON
	}
	return nil
}

// validateRequest returns the first validation message, or "".
func validateRequest(v interface{}) string {
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr.Error()
	}
	return ""
}

// parseSetupRequest accepts the original form-encoded body as well as JSON.
func parseSetupRequest(w http.ResponseWriter, r *http.Request) (SetupRequest, error) {
	var req SetupRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := decodeJSON(w, r, &req)
		req.APIKey = strings.TrimSpace(req.APIKey)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.APIKey = strings.TrimSpace(r.PostForm.Get("api_key"))
	return req, nil
}
