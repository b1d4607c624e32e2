package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/ai-receptionist/cmd/mainconfig"
	"github.com/wolfman30/ai-receptionist/internal/api/router"
	"github.com/wolfman30/ai-receptionist/internal/app/bootstrap"
	"github.com/wolfman30/ai-receptionist/internal/clock"
	appconfig "github.com/wolfman30/ai-receptionist/internal/config"
	"github.com/wolfman30/ai-receptionist/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/ai-receptionist/internal/http/middleware"
	"github.com/wolfman30/ai-receptionist/internal/observability/metrics"
	"github.com/wolfman30/ai-receptionist/internal/receptionist"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// limiterIdle is how long an idle per-session bucket is kept.
const limiterIdle = 10 * time.Minute

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting ai-receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"business", cfg.BusinessName,
		"timezone", cfg.BusinessTimezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	go sweepLimiter(ctx, application.limiter, logger)

	// Create HTTP server. WriteTimeout stays zero so /v1/stream can stay open.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// app is the composed HTTP surface plus the resources it owns.
type app struct {
	handler http.Handler
	limiter *httpmiddleware.RateLimiter
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	out := &app{}
	ok := false
	defer func() {
		if !ok {
			out.Close()
		}
	}()

	var awsCfg *aws.Config
	if bootstrap.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	rdb := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if rdb != nil {
		out.closers = append(out.closers, func() { _ = rdb.Close() })
	}
	store := bootstrap.BuildSessionStore(cfg, rdb, awsCfg, logger)

	pool, ledger := bootstrap.BuildLedger(ctx, cfg, logger)
	if pool != nil {
		out.closers = append(out.closers, pool.Close)
	}

	metricsHandler, schedMetrics := setupMetrics()

	cal, err := bootstrap.BuildCalendar(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	clk := clock.NewRealClock()
	sched, err := bootstrap.BuildScheduling(cfg, cal, clk, schedMetrics, logger)
	if err != nil {
		return nil, err
	}

	plan, cleanup, err := bootstrap.BuildPlanner(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}
	out.closers = append(out.closers, cleanup)

	opts := receptionist.Options{
		BusinessName:    cfg.BusinessName,
		HorizonDays:     cfg.SearchHorizonDays,
		ShortlistSize:   cfg.ShortlistSize,
		ShortlistMaxAge: cfg.ShortlistMaxAge,
		Clock:           clk,
		Logger:          logger,
		Metrics:         schedMetrics,
	}
	if ledger != nil {
		opts.Ledger = ledger
	}
	if fan := bootstrap.BuildNotifier(cfg, awsCfg, logger); len(fan) > 0 {
		opts.Notifier = fan
	}
	if archiver := bootstrap.BuildArchiver(cfg, awsCfg, logger); archiver != nil {
		opts.Archiver = archiver
	}
	svc := receptionist.NewService(store, sched.Resolver, sched.Transactor, plan, opts)

	var lister handlers.BookingLister
	if ledger != nil {
		lister = ledger
	}

	if cfg.TurnRatePerSecond > 0 && cfg.TurnRateBurst > 0 {
		out.limiter = httpmiddleware.NewRateLimiter(cfg.TurnRatePerSecond, cfg.TurnRateBurst)
	}

	out.handler = router.New(&router.Config{
		Logger:             logger,
		Sessions:           handlers.NewSessionsHandler(svc, cfg.Location(), clk, logger),
		AdminBookings:      handlers.NewAdminBookingsHandler(lister, clk, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: httpmiddleware.ParseOrigins(cfg.CORSAllowedOrigins),
		TurnLimiter:        out.limiter,
		ReadinessChecks:    readinessChecks(rdb, pool),
	})
	ok = true
	return out, nil
}

func setupMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewSchedulingMetrics(reg)
}

func readinessChecks(rdb *redis.Client, pool *pgxpool.Pool) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	return checks
}

func sweepLimiter(ctx context.Context, limiter *httpmiddleware.RateLimiter, logger *logging.Logger) {
	if limiter == nil {
		return
	}
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(limiterIdle); n > 0 {
				logger.Debug("rate limiter swept idle buckets", "removed", n)
			}
		}
	}
}
