package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/ai-receptionist/internal/observability/metrics"
)

var testFacts = AttendeeFacts{
	Name:    "Dana Whitfield",
	Phone:   "+15555550123",
	Address: "12 Elm St, Springfield",
	Intent:  "kitchen remodel",
}

func TestBookCommitsWhenSlotStillFree(t *testing.T) {
	loc := newYork(t)
	cal := &fakeCalendar{eventID: "evt-42"}
	resolver := NewResolver(cal, businessGrid(loc), ResolverOptions{})
	bookedAt := time.Date(2026, time.October, 11, 14, 0, 0, 0, time.UTC)
	tx := NewTransactor(resolver, cal, loc, TransactorOptions{
		BookedBy: "Riley (AI receptionist)",
		Now:      func() time.Time { return bookedAt },
		Metrics:  metrics.NewSchedulingMetrics(prometheus.NewRegistry()),
	})
	slot := slotAt(loc, 2026, time.October, 12, 10, 0, 60)

	outcome, err := tx.Book(context.Background(), slot, testFacts)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !outcome.Committed || outcome.Err() != nil {
		t.Fatalf("expected committed outcome, got %+v", outcome)
	}
	rec := outcome.Record
	if rec.EventID != "evt-42" || !rec.BookedAt.Equal(bookedAt) || rec.Subject != DefaultEventSummary {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if cal.queryCount() != 1 || cal.insertCount() != 1 {
		t.Fatalf("expected one re-check and one insert, got %d/%d", cal.queryCount(), cal.insertCount())
	}

	event := cal.inserts[0]
	if !event.Start.Equal(slot.Start) || !event.End.Equal(slot.End) {
		t.Fatalf("event times mismatch: %s-%s", event.Start, event.End)
	}
	if event.TimeZone != "America/New_York" {
		t.Fatalf("expected business timezone, got %q", event.TimeZone)
	}
	for _, want := range []string{
		"Booked by Riley (AI receptionist)",
		"Name: Dana Whitfield",
		"Phone: +15555550123",
		"Address: 12 Elm St, Springfield",
		"Intent: kitchen remodel",
	} {
		if !strings.Contains(event.Description, want) {
			t.Fatalf("description missing %q:\n%s", want, event.Description)
		}
	}
}

func TestBookSkipsInsertWhenSlotTaken(t *testing.T) {
	loc := newYork(t)
	slot := slotAt(loc, 2026, time.October, 12, 10, 0, 60)
	cal := &fakeCalendar{busy: []TimeInterval{slot.TimeInterval}}
	resolver := NewResolver(cal, businessGrid(loc), ResolverOptions{})
	tx := NewTransactor(resolver, cal, loc, TransactorOptions{})

	outcome, err := tx.Book(context.Background(), slot, testFacts)
	if err != nil {
		t.Fatalf("slot taken is an outcome, not an error: %v", err)
	}
	if outcome.Committed || outcome.Reason != ReasonSlotTaken {
		t.Fatalf("expected slot_taken, got %+v", outcome)
	}
	if !errors.Is(outcome.Err(), ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken from outcome, got %v", outcome.Err())
	}
	if cal.insertCount() != 0 {
		t.Fatalf("expected zero inserts, got %d", cal.insertCount())
	}
}

func TestBookLosesRaceToConcurrentWriter(t *testing.T) {
	loc := newYork(t)
	cfg := businessGrid(loc)
	from := at(loc, 2026, time.October, 12, 8, 0)
	cal := &fakeCalendar{}
	resolver := NewResolver(cal, cfg, ResolverOptions{})
	tx := NewTransactor(resolver, cal, loc, TransactorOptions{})

	free, err := resolver.ResolveFree(context.Background(), from, 1)
	if err != nil {
		t.Fatalf("ResolveFree: %v", err)
	}
	chosen := free[0]

	// Another booking lands between the offer and the caller's confirmation.
	cal.mu.Lock()
	cal.busy = append(cal.busy, chosen.TimeInterval)
	cal.mu.Unlock()

	outcome, err := tx.Book(context.Background(), chosen, testFacts)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if outcome.Committed {
		t.Fatalf("expected the re-check to catch the taken slot")
	}
	if cal.insertCount() != 0 {
		t.Fatalf("expected zero inserts, got %d", cal.insertCount())
	}
}

func TestBookWrapsRecheckFailure(t *testing.T) {
	loc := newYork(t)
	cal := &fakeCalendar{queryErr: errors.New("connection reset")}
	resolver := NewResolver(cal, businessGrid(loc), ResolverOptions{})
	tx := NewTransactor(resolver, cal, loc, TransactorOptions{})

	outcome, err := tx.Book(context.Background(), slotAt(loc, 2026, time.October, 12, 10, 0, 60), testFacts)
	if outcome != nil {
		t.Fatalf("expected nil outcome, got %+v", outcome)
	}
	if !errors.Is(err, ErrBookingFailed) || !errors.Is(err, ErrCalendarUnavailable) {
		t.Fatalf("expected booking and calendar errors, got %v", err)
	}
	if cal.insertCount() != 0 {
		t.Fatalf("expected zero inserts, got %d", cal.insertCount())
	}
}

func TestBookDoesNotRetryFailedInsert(t *testing.T) {
	loc := newYork(t)
	cal := &fakeCalendar{insertErr: errors.New("500 backend error")}
	resolver := NewResolver(cal, businessGrid(loc), ResolverOptions{})
	tx := NewTransactor(resolver, cal, loc, TransactorOptions{Summary: "Site visit"})

	_, err := tx.Book(context.Background(), slotAt(loc, 2026, time.October, 12, 10, 0, 60), testFacts)
	if !errors.Is(err, ErrBookingFailed) {
		t.Fatalf("expected ErrBookingFailed, got %v", err)
	}
	if cal.insertCount() != 1 {
		t.Fatalf("expected exactly one insert attempt, got %d", cal.insertCount())
	}
	if cal.inserts[0].Summary != "Site visit" {
		t.Fatalf("expected configured summary, got %q", cal.inserts[0].Summary)
	}
}

func TestEventDescriptionFillsMissingFacts(t *testing.T) {
	got := EventDescription("AI receptionist", AttendeeFacts{Name: "Sam"})
	want := "Booked by AI receptionist\nName: Sam\nPhone: -\nAddress: -\nIntent: -"
	if got != want {
		t.Fatalf("description mismatch:\nwant %q\ngot  %q", want, got)
	}
}
