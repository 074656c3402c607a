// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/gamedeck/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Websocket frame types.
const (
	FrameToken  = "token"
	FrameResult = "result"
	FrameError  = "error"
)

// ChatFrame is one server-to-client websocket message.
type ChatFrame struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// getUpgrader creates a WebSocket upgrader with origin checking and timeouts.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. Browsers
// always send Origin, so a missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if h.config.AllowedOrigin == nil || h.config.AllowedOrigin(origin) {
		return true
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// ChatWebSocket handles GET /api/v1/chat/ws. Each client message is a
// ChatRequest; the server streams token frames, then one result or error
// frame. Requests on a connection are served one at a time.
func (h *Handler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer func() { _ = conn.Close() }()

	// The request context is not cancelled when a hijacked client goes away;
	// cancel explicitly when the read loop ends.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.pingLoop(ctx, conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Ctx(ctx).Debug().Err(err).Msg("WebSocket closed")
			}
			return
		}

		if !h.serveChatFrame(ctx, conn, payload) {
			return
		}
	}
}

// serveChatFrame answers one client message. It returns false when the
// connection is no longer writable.
func (h *Handler) serveChatFrame(ctx context.Context, conn *websocket.Conn, payload []byte) bool {
	var req ChatRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return writeFrame(conn, ChatFrame{Type: FrameError, Error: "Invalid JSON message"}) == nil
	}
	if msg := validateRequest(&req); msg != "" {
		return writeFrame(conn, ChatFrame{Type: FrameError, Error: msg}) == nil
	}

	reqCtx, cancel := withTimeout(logging.ContextWithNewCorrelationID(ctx), h.config.ChatTimeout)
	defer cancel()

	var writeErr error
	res, err := h.pipeline.HandleStream(reqCtx, req.Query, func(tok string) {
		if writeErr != nil {
			return
		}
		if writeErr = writeFrame(conn, ChatFrame{Type: FrameToken, Data: tok}); writeErr != nil {
			cancel()
		}
	})
	if writeErr != nil {
		logging.Ctx(reqCtx).Debug().Err(writeErr).Msg("WebSocket client went away mid-stream")
		return false
	}
	if err != nil {
		_, msg := chatErrorStatus(err)
		logging.Ctx(reqCtx).Error().Err(err).Msg("WebSocket chat request failed")
		return writeFrame(conn, ChatFrame{Type: FrameError, Error: msg}) == nil
	}
	return writeFrame(conn, ChatFrame{Type: FrameResult, Data: res}) == nil
}

// pingLoop keeps idle connections alive. WriteControl is safe to call
// concurrently with the handler's writes.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame ChatFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
