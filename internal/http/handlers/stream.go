package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/ai-receptionist/internal/receptionist"
	"github.com/wolfman30/ai-receptionist/internal/session"
)

// StreamInbound is a frame sent by the caller's client.
type StreamInbound struct {
	Type   string `json:"type"` // "turn" or "ping"
	Text   string `json:"text,omitempty"`
	Digits string `json:"digits,omitempty"`
}

// StreamOutbound is a frame sent to the caller's client.
type StreamOutbound struct {
	Type      string              `json:"type"` // "session", "reply", "error" or "pong"
	SessionID string              `json:"session_id,omitempty"`
	Text      string              `json:"text,omitempty"`
	Reply     *receptionist.Reply `json:"reply,omitempty"`
}

// Stream handles GET /v1/stream. A new session is started unless ?session=
// names an existing one. The connection closes after a hangup reply; a
// dropped connection ends the session.
func (h *SessionsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveStream(conn, r)
	}).ServeHTTP(w, r)
}

func (h *SessionsHandler) serveStream(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	from := strings.TrimSpace(r.URL.Query().Get("from"))

	if sessionID == "" {
		reply, err := h.svc.StartSession(ctx, from)
		if err != nil {
			h.logger.Error("stream: start session failed", "error", err)
			_ = websocket.JSON.Send(conn, StreamOutbound{Type: "error", Text: "failed to start session"})
			return
		}
		sessionID = reply.SessionID
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "session", SessionID: sessionID})
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "reply", SessionID: sessionID, Reply: reply})
	} else {
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "session", SessionID: sessionID})
	}

	h.logger.Info("stream: connection opened", "session_id", sessionID)
	hungUp := false
	defer func() {
		if hungUp {
			return
		}
		err := h.svc.EndSession(context.WithoutCancel(ctx), sessionID)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			h.logger.Warn("stream: end session failed", "error", err, "session_id", sessionID)
		}
	}()

	for {
		var msg StreamInbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("stream: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, StreamOutbound{Type: "pong"})
			continue
		case "turn":
		default:
			continue
		}
		if strings.TrimSpace(msg.Text) == "" && strings.TrimSpace(msg.Digits) == "" {
			continue
		}

		reply, err := h.svc.HandleTurn(ctx, sessionID, receptionist.Turn{Text: msg.Text, Digits: msg.Digits, From: from})
		if err != nil {
			_ = websocket.JSON.Send(conn, StreamOutbound{Type: "error", SessionID: sessionID, Text: streamErrorText(err)})
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, receptionist.ErrSessionEnded) {
				hungUp = true
				return
			}
			h.logger.Error("stream: turn failed", "error", err, "session_id", sessionID)
			continue
		}
		_ = websocket.JSON.Send(conn, StreamOutbound{Type: "reply", SessionID: sessionID, Reply: reply})
		if reply.Hangup {
			hungUp = true
			return
		}
	}
}

func streamErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return "session not found"
	case errors.Is(err, receptionist.ErrSessionEnded):
		return "session has ended"
	default:
		return "Sorry, something went wrong. Please try again."
	}
}
