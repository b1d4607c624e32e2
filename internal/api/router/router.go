package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/ai-receptionist/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/ai-receptionist/internal/http/middleware"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// HealthCheck probes one dependency for /ready.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Sessions           *handlers.SessionsHandler
	AdminBookings      *handlers.AdminBookingsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// TurnLimiter throttles turn submissions per session; nil disables it.
	TurnLimiter *httpmiddleware.RateLimiter

	// ReadinessChecks are run by /ready, keyed by dependency name.
	ReadinessChecks map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	r.Get("/ready", ready(cfg.ReadinessChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Sessions != nil {
		r.Route("/v1", func(v1 chi.Router) {
			v1.Post("/sessions", cfg.Sessions.StartSession)
			v1.Route("/sessions/{sessionID}", func(s chi.Router) {
				if cfg.TurnLimiter != nil {
					s.With(httpmiddleware.RateLimit(cfg.TurnLimiter, httpmiddleware.SessionOrIP)).Post("/turns", cfg.Sessions.HandleTurn)
				} else {
					s.Post("/turns", cfg.Sessions.HandleTurn)
				}
				s.Delete("/", cfg.Sessions.EndSession)
			})
			v1.Get("/availability", cfg.Sessions.Availability)
			v1.Get("/stream", cfg.Sessions.Stream)
		})
	}

	if cfg.AdminAuthSecret != "" && cfg.AdminBookings != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/bookings", cfg.AdminBookings.ListBookings)
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// ready runs every check with a shared deadline and reports 503 if any fail.
func ready(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		writeStatus := "ok"
		if status != http.StatusOK {
			writeStatus = "degraded"
		}
		writeJSON(w, status, map[string]any{"status": writeStatus, "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
