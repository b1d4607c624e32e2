package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/ai-receptionist/internal/config"
	httpmiddleware "github.com/wolfman30/ai-receptionist/internal/http/middleware"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

func memoryConfig() *appconfig.Config {
	return &appconfig.Config{
		BusinessName:      "Acme Remodeling",
		BusinessTimezone:  "America/New_York",
		SlotMinutes:       60,
		WorkStart:         "09:00",
		WorkEnd:           "18:00",
		MinBufferMinutes:  120,
		SearchHorizonDays: 7,
		ShortlistSize:     3,
		CalendarTimeout:   5 * time.Second,
		ShortlistMaxAge:   15 * time.Minute,
		UseMemoryCalendar: true,
		EmailProvider:     "sendgrid",
		TurnRatePerSecond: 1,
		TurnRateBurst:     5,
	}
}

func TestSetupMetricsExposesSchedulingMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveBooking("committed")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "receptionist_scheduling_bookings_total") {
		t.Fatalf("expected bookings counter to be exported")
	}
}

func TestReadinessChecks(t *testing.T) {
	if checks := readinessChecks(nil, nil); len(checks) != 0 {
		t.Fatalf("expected no checks without dependencies, got %d", len(checks))
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	checks := readinessChecks(rdb, nil)
	check, ok := checks["redis"]
	if !ok {
		t.Fatalf("expected redis check")
	}
	if err := check(context.Background()); err != nil {
		t.Fatalf("expected healthy redis, got %v", err)
	}
	mr.Close()
	if err := check(context.Background()); err == nil {
		t.Fatalf("expected failure once redis is gone")
	}
}

func TestBuildAppWithMemoryBackends(t *testing.T) {
	a, err := buildApp(context.Background(), memoryConfig(), logging.New("error"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(a.Close)
	if a.limiter == nil {
		t.Fatalf("expected turn limiter")
	}

	srv := httptest.NewServer(a.handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/v1/sessions", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 from session start, got %d", resp.StatusCode)
	}

	// No admin secret configured, so the admin surface is not mounted.
	resp, err = http.Get(srv.URL + "/admin/bookings")
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for admin without secret, got %d", resp.StatusCode)
	}
}

func TestBuildAppRejectsBadSchedule(t *testing.T) {
	cfg := memoryConfig()
	cfg.WorkEnd = "late"
	if _, err := buildApp(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected build error for malformed WORK_END")
	}
}

func TestSweepLimiterStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepLimiter(ctx, httpmiddleware.NewRateLimiter(1, 1), logging.New("error"))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop")
	}
	sweepLimiter(context.Background(), nil, nil)
}
