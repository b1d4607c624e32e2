package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/ai-receptionist/internal/bookings"
	"github.com/wolfman30/ai-receptionist/internal/clock"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// BookingLister reads the booking ledger.
type BookingLister interface {
	Upcoming(ctx context.Context, now time.Time, days, limit int) ([]bookings.Booking, error)
}

// AdminBookingsHandler serves the ledger to operators.
type AdminBookingsHandler struct {
	ledger BookingLister
	clock  clock.Clock
	logger *logging.Logger
}

func NewAdminBookingsHandler(ledger BookingLister, clk clock.Clock, logger *logging.Logger) *AdminBookingsHandler {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{ledger: ledger, clock: clk, logger: logger}
}

// ListBookingsResponse is the body of GET /admin/bookings.
type ListBookingsResponse struct {
	Bookings []bookings.Booking `json:"bookings"`
	Total    int                `json:"total"`
	Days     int                `json:"days"`
}

// ListBookings handles GET /admin/bookings?days=14&limit=50.
func (h *AdminBookingsHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		jsonError(w, "booking ledger not configured", http.StatusServiceUnavailable)
		return
	}
	days, err := queryInt(r, "days", 30)
	if err != nil || days <= 0 || days > 365 {
		jsonError(w, "days must be between 1 and 365", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit <= 0 || limit > 500 {
		jsonError(w, "limit must be between 1 and 500", http.StatusBadRequest)
		return
	}

	rows, err := h.ledger.Upcoming(r.Context(), h.clock.Now(), days, limit)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err)
		jsonError(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, ListBookingsResponse{Bookings: rows, Total: len(rows), Days: days})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
