package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/ai-receptionist/internal/clock"
	appconfig "github.com/wolfman30/ai-receptionist/internal/config"
	"github.com/wolfman30/ai-receptionist/internal/gcal"
	"github.com/wolfman30/ai-receptionist/internal/observability/metrics"
	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// Scheduling bundles the calendar-facing components.
type Scheduling struct {
	Calendar   scheduling.Calendar
	Resolver   *scheduling.Resolver
	Transactor *scheduling.Transactor
}

// ErrCalendarNotConfigured is returned in production when no Google
// credentials are set and USE_MEMORY_CALENDAR is off. Bookings against the
// demo calendar would be confirmed to callers but never reach the office.
var ErrCalendarNotConfigured = errors.New("bootstrap: google calendar credentials required in production")

// BuildCalendar returns the Google Calendar client. The in-memory demo
// calendar is used when USE_MEMORY_CALENDAR is set, or outside production
// when no credentials exist.
func BuildCalendar(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (scheduling.Calendar, error) {
	if logger == nil {
		logger = logging.Default()
	}
	hasCreds := strings.TrimSpace(cfg.GoogleCredentialsJSON) != "" ||
		(strings.TrimSpace(cfg.GoogleClientEmail) != "" && strings.TrimSpace(cfg.GooglePrivateKey) != "")
	switch {
	case cfg.UseMemoryCalendar:
		logger.Warn("calendar: in-memory demo calendar", "explicit", true)
		return gcal.NewMemoryCalendar(), nil
	case !hasCreds && cfg.IsProduction():
		return nil, ErrCalendarNotConfigured
	case !hasCreds:
		logger.Warn("calendar: no google credentials, using in-memory demo calendar", "env", cfg.Env)
		return gcal.NewMemoryCalendar(), nil
	}
	client, err := gcal.NewClient(ctx, gcal.Config{
		CalendarID:      cfg.CalendarID,
		ClientEmail:     cfg.GoogleClientEmail,
		PrivateKey:      cfg.GooglePrivateKey,
		ImpersonateUser: cfg.GoogleImpersonateUser,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: google calendar: %w", err)
	}
	logger.Info("calendar: google", "calendar_id", cfg.CalendarID)
	return client, nil
}

// BuildScheduling derives the slot grid from config and wires the resolver
// and transactor around cal. Call cfg.Validate first.
func BuildScheduling(cfg *appconfig.Config, cal scheduling.Calendar, clk clock.Clock, m *metrics.SchedulingMetrics, logger *logging.Logger) (*Scheduling, error) {
	start, err := appconfig.ParseClock(cfg.WorkStart)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: WORK_START: %w", err)
	}
	end, err := appconfig.ParseClock(cfg.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: WORK_END: %w", err)
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	loc := cfg.Location()

	resolver := scheduling.NewResolver(cal, scheduling.GridConfig{
		Location:       loc,
		WorkStart:      start,
		WorkEnd:        end,
		SlotMinutes:    cfg.SlotMinutes,
		MinLeadMinutes: cfg.MinBufferMinutes,
	}, scheduling.ResolverOptions{
		Timeout: cfg.CalendarTimeout,
		Logger:  logger,
		Metrics: m,
	})
	transactor := scheduling.NewTransactor(resolver, cal, loc, scheduling.TransactorOptions{
		Summary:  cfg.EventSummary,
		BookedBy: cfg.BusinessName + " receptionist",
		Timeout:  cfg.CalendarTimeout,
		Logger:   logger,
		Metrics:  m,
		Now:      clk.Now,
	})
	return &Scheduling{Calendar: cal, Resolver: resolver, Transactor: transactor}, nil
}
