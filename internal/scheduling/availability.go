package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/ai-receptionist/internal/observability/metrics"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

var schedulingTracer = otel.Tracer("receptionist.internal.scheduling")

// DefaultCalendarTimeout bounds each calendar round trip when no timeout is configured.
const DefaultCalendarTimeout = 10 * time.Second

// Calendar is the external calendar the engine reads busy time from and
// writes bookings to.
type Calendar interface {
	// QueryBusy returns the occupied intervals within [timeMin, timeMax).
	// Results may be unordered and may overlap each other.
	QueryBusy(ctx context.Context, timeMin, timeMax time.Time, timezone string) ([]TimeInterval, error)
	// InsertEvent creates an event and returns its identifier.
	InsertEvent(ctx context.Context, event EventRequest) (string, error)
}

// EventRequest is the payload for a calendar event insert.
type EventRequest struct {
	Start       time.Time
	End         time.Time
	TimeZone    string
	Summary     string
	Description string
}

// ResolverOptions carries the optional collaborators of a Resolver.
type ResolverOptions struct {
	Timeout time.Duration
	Logger  *logging.Logger
	Metrics *metrics.SchedulingMetrics
}

// Resolver computes free slots against the external calendar.
type Resolver struct {
	calendar Calendar
	grid     GridConfig
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.SchedulingMetrics
}

// NewResolver constructs an availability resolver.
func NewResolver(calendar Calendar, grid GridConfig, opts ResolverOptions) *Resolver {
	if calendar == nil {
		panic("scheduling: calendar required")
	}
	if grid.Location == nil {
		grid.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCalendarTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Resolver{
		calendar: calendar,
		grid:     grid,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Grid returns the grid configuration the resolver cuts slots from.
func (r *Resolver) Grid() GridConfig {
	return r.grid
}

// Location returns the business timezone.
func (r *Resolver) Location() *time.Location {
	return r.grid.Location
}

// ResolveFree returns every free slot in the horizon, in chronological order.
// Busy time is fetched with a single freebusy query. A calendar failure is
// reported as ErrCalendarUnavailable, never as an empty result.
func (r *Resolver) ResolveFree(ctx context.Context, from time.Time, horizonDays int) ([]Slot, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.resolve_free")
	defer span.End()
	span.SetAttributes(
		attribute.String("receptionist.from", from.Format(time.RFC3339)),
		attribute.Int("receptionist.horizon_days", horizonDays),
	)

	candidates := GenerateSlots(from, horizonDays, r.grid)
	if len(candidates) == 0 {
		return []Slot{}, nil
	}

	timeMin := from
	timeMax := from.Add(time.Duration(horizonDays) * 24 * time.Hour)
	if last := candidates[len(candidates)-1].End; last.After(timeMax) {
		timeMax = last
	}

	busy, err := r.queryBusy(ctx, "freebusy_range", timeMin, timeMax)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("scheduling: freebusy query: %w: %w", ErrCalendarUnavailable, err)
	}

	free := make([]Slot, 0, len(candidates))
	for _, slot := range candidates {
		if !overlapsAny(slot, busy) {
			free = append(free, slot)
		}
	}

	span.SetAttributes(
		attribute.Int("receptionist.candidates", len(candidates)),
		attribute.Int("receptionist.busy", len(busy)),
		attribute.Int("receptionist.free", len(free)),
	)
	r.logger.Debug("availability resolved",
		"from", from.Format(time.RFC3339),
		"horizon_days", horizonDays,
		"candidates", len(candidates),
		"busy", len(busy),
		"free", len(free),
	)
	return free, nil
}

// IsStillFree re-checks a single slot with a freebusy query scoped exactly to
// the slot. It is true only when the calendar reports no busy time at all.
func (r *Resolver) IsStillFree(ctx context.Context, slot Slot) (bool, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.is_still_free")
	defer span.End()
	span.SetAttributes(attribute.String("receptionist.slot_start", slot.Start.Format(time.RFC3339)))

	busy, err := r.queryBusy(ctx, "freebusy_point", slot.Start, slot.End)
	if err != nil {
		recordSpanError(span, err)
		return false, fmt.Errorf("scheduling: slot re-check: %w: %w", ErrCalendarUnavailable, err)
	}
	free := len(busy) == 0
	span.SetAttributes(attribute.Bool("receptionist.free", free))
	return free, nil
}

func (r *Resolver) queryBusy(ctx context.Context, op string, timeMin, timeMax time.Time) ([]TimeInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	busy, err := r.calendar.QueryBusy(ctx, timeMin, timeMax, r.grid.Location.String())
	r.metrics.ObserveCalendarCall(op, started, err)
	r.logger.CallCompleted("calendar", op, started, err,
		"time_min", timeMin.Format(time.RFC3339),
		"time_max", timeMax.Format(time.RFC3339),
	)
	r.logger.SlowCall("calendar."+op, time.Since(started), slowThreshold(op))
	return busy, err
}

func slowThreshold(op string) time.Duration {
	if op == "freebusy_point" {
		return time.Second
	}
	return 2 * time.Second
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
