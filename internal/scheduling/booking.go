package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/ai-receptionist/internal/observability/metrics"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// DefaultEventSummary is the calendar subject used when none is configured.
const DefaultEventSummary = "Home visit: 3D scan & estimate"

// ReasonSlotTaken is reported when the pre-commit re-check finds the slot occupied.
const ReasonSlotTaken = "slot_taken"

// AttendeeFacts are the caller details written into the event description.
type AttendeeFacts struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Intent  string `json:"intent,omitempty"`
}

// BookingRecord is created exactly once per committed booking.
type BookingRecord struct {
	Slot     Slot          `json:"slot"`
	Subject  string        `json:"subject"`
	Attendee AttendeeFacts `json:"attendee"`
	EventID  string        `json:"event_id"`
	BookedAt time.Time     `json:"booked_at"`
}

// BookingOutcome reports whether a booking attempt committed. A taken slot
// is an outcome, not an error.
type BookingOutcome struct {
	Committed bool           `json:"committed"`
	Reason    string         `json:"reason,omitempty"`
	Record    *BookingRecord `json:"record,omitempty"`
}

// Err returns ErrSlotTaken for a slot-taken outcome and nil otherwise.
func (o *BookingOutcome) Err() error {
	if o != nil && !o.Committed && o.Reason == ReasonSlotTaken {
		return ErrSlotTaken
	}
	return nil
}

// AvailabilityChecker re-validates a single slot. *Resolver satisfies it.
type AvailabilityChecker interface {
	IsStillFree(ctx context.Context, slot Slot) (bool, error)
}

// TransactorOptions carries the optional collaborators of a Transactor.
type TransactorOptions struct {
	Summary  string
	BookedBy string
	Timeout  time.Duration
	Logger   *logging.Logger
	Metrics  *metrics.SchedulingMetrics
	Now      func() time.Time
}

// Transactor commits bookings to the calendar. Every attempt re-checks the
// slot first and issues at most one insert; nothing is retried.
type Transactor struct {
	checker  AvailabilityChecker
	calendar Calendar
	location *time.Location
	summary  string
	bookedBy string
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.SchedulingMetrics
	now      func() time.Time
}

// NewTransactor constructs a booking transactor.
func NewTransactor(checker AvailabilityChecker, calendar Calendar, loc *time.Location, opts TransactorOptions) *Transactor {
	if checker == nil {
		panic("scheduling: availability checker required")
	}
	if calendar == nil {
		panic("scheduling: calendar required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(opts.Summary) == "" {
		opts.Summary = DefaultEventSummary
	}
	if strings.TrimSpace(opts.BookedBy) == "" {
		opts.BookedBy = "AI receptionist"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCalendarTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Transactor{
		checker:  checker,
		calendar: calendar,
		location: loc,
		summary:  opts.Summary,
		bookedBy: opts.BookedBy,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
}

// Book re-validates the slot and, if it is still free, inserts one calendar
// event. A slot found busy yields {Committed: false, Reason: "slot_taken"}
// with no insert. Calendar failures wrap ErrBookingFailed.
func (t *Transactor) Book(ctx context.Context, slot Slot, facts AttendeeFacts) (*BookingOutcome, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("receptionist.slot_start", slot.Start.Format(time.RFC3339)),
		attribute.String("receptionist.slot_end", slot.End.Format(time.RFC3339)),
	)

	free, err := t.checker.IsStillFree(ctx, slot)
	if err != nil {
		recordSpanError(span, err)
		t.metrics.ObserveBooking("failed")
		return nil, fmt.Errorf("scheduling: book: %w: %w", ErrBookingFailed, err)
	}
	if !free {
		span.SetAttributes(attribute.String("receptionist.booking_outcome", ReasonSlotTaken))
		t.metrics.ObserveBooking(ReasonSlotTaken)
		t.logger.Info("booking skipped, slot taken", "slot_start", slot.Start.Format(time.RFC3339))
		return &BookingOutcome{Committed: false, Reason: ReasonSlotTaken}, nil
	}

	event := EventRequest{
		Start:       slot.Start.In(t.location),
		End:         slot.End.In(t.location),
		TimeZone:    t.location.String(),
		Summary:     t.summary,
		Description: EventDescription(t.bookedBy, facts),
	}
	eventID, err := t.insert(ctx, event)
	if err != nil {
		recordSpanError(span, err)
		t.metrics.ObserveBooking("failed")
		return nil, fmt.Errorf("scheduling: book: %w: %w", ErrBookingFailed, err)
	}

	record := &BookingRecord{
		Slot:     slot,
		Subject:  t.summary,
		Attendee: facts,
		EventID:  eventID,
		BookedAt: t.now().UTC(),
	}
	span.SetAttributes(
		attribute.String("receptionist.booking_outcome", "committed"),
		attribute.String("receptionist.event_id", eventID),
	)
	t.metrics.ObserveBooking("committed")
	t.logger.Info("booking committed",
		"event_id", eventID,
		"slot_start", slot.Start.Format(time.RFC3339),
	)
	return &BookingOutcome{Committed: true, Record: record}, nil
}

func (t *Transactor) insert(ctx context.Context, event EventRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	started := time.Now()
	eventID, err := t.calendar.InsertEvent(ctx, event)
	t.metrics.ObserveCalendarCall("insert_event", started, err)
	t.logger.CallCompleted("calendar", "insert_event", started, err)
	t.logger.SlowCall("calendar.insert_event", time.Since(started), 2*time.Second)
	return eventID, err
}

// EventDescription renders the event body with the caller details.
func EventDescription(bookedBy string, facts AttendeeFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booked by %s\n", bookedBy)
	fmt.Fprintf(&b, "Name: %s\n", orDash(facts.Name))
	fmt.Fprintf(&b, "Phone: %s\n", orDash(facts.Phone))
	fmt.Fprintf(&b, "Address: %s\n", orDash(facts.Address))
	fmt.Fprintf(&b, "Intent: %s", orDash(facts.Intent))
	return b.String()
}

func orDash(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "-"
	}
	return v
}
