package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/ai-receptionist/internal/clock"
	"github.com/wolfman30/ai-receptionist/internal/receptionist"
	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/internal/session"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// Receptionist is the conversation surface the HTTP layer drives.
type Receptionist interface {
	StartSession(ctx context.Context, from string) (*receptionist.Reply, error)
	HandleTurn(ctx context.Context, sessionID string, turn receptionist.Turn) (*receptionist.Reply, error)
	EndSession(ctx context.Context, sessionID string) error
	Availability(ctx context.Context, preference string) ([]scheduling.Slot, error)
}

// SessionsHandler exposes sessions, turns and availability over HTTP.
type SessionsHandler struct {
	svc    Receptionist
	loc    *time.Location
	clock  clock.Clock
	logger *logging.Logger
}

// NewSessionsHandler wires the handler. loc is the business timezone used to
// phrase availability.
func NewSessionsHandler(svc Receptionist, loc *time.Location, clk clock.Clock, logger *logging.Logger) *SessionsHandler {
	if svc == nil {
		panic("handlers: receptionist required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionsHandler{svc: svc, loc: loc, clock: clk, logger: logger}
}

type startSessionRequest struct {
	From string `json:"from"`
}

// StartSession handles POST /v1/sessions.
func (h *SessionsHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reply, err := h.svc.StartSession(r.Context(), strings.TrimSpace(req.From))
	if err != nil {
		h.logger.Error("start session failed", "error", err)
		jsonError(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// HandleTurn handles POST /v1/sessions/{sessionID}/turns.
func (h *SessionsHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		jsonError(w, "missing session id", http.StatusBadRequest)
		return
	}
	var turn receptionist.Turn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(turn.Text) == "" && strings.TrimSpace(turn.Digits) == "" {
		jsonError(w, "text or digits required", http.StatusBadRequest)
		return
	}

	reply, err := h.svc.HandleTurn(r.Context(), sessionID, turn)
	if err != nil {
		h.writeSessionError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// EndSession handles DELETE /v1/sessions/{sessionID}.
func (h *SessionsHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.svc.EndSession(r.Context(), sessionID); err != nil {
		h.writeSessionError(w, sessionID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AvailabilitySlot is one free slot in the availability response.
type AvailabilitySlot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Spoken string    `json:"spoken"`
}

// Availability handles GET /v1/availability?pref=tomorrow+afternoon.
func (h *SessionsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	pref := r.URL.Query().Get("pref")
	slots, err := h.svc.Availability(r.Context(), pref)
	if err != nil {
		h.logger.Error("availability lookup failed", "error", err, "pref", pref)
		if errors.Is(err, scheduling.ErrCalendarUnavailable) {
			jsonError(w, "calendar unavailable", http.StatusServiceUnavailable)
			return
		}
		jsonError(w, "availability lookup failed", http.StatusInternalServerError)
		return
	}

	now := h.clock.Now()
	out := make([]AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, AvailabilitySlot{
			Start:  slot.Start.In(h.loc),
			End:    slot.End.In(h.loc),
			Spoken: scheduling.HumanDateTime(slot.Start, now, h.loc),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"timezone": h.loc.String(),
		"pref":     pref,
		"slots":    out,
	})
}

func (h *SessionsHandler) writeSessionError(w http.ResponseWriter, sessionID string, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, receptionist.ErrSessionEnded):
		jsonError(w, "session has ended", http.StatusConflict)
	default:
		h.logger.Error("session request failed", "error", err, "session_id", sessionID)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// decodeOptional decodes a JSON body, treating an empty body as zero value.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
