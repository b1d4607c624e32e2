package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

func sampleRecord() scheduling.BookingRecord {
	start := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)
	return scheduling.BookingRecord{
		Slot:    scheduling.Slot{TimeInterval: scheduling.TimeInterval{Start: start, End: start.Add(time.Hour)}},
		Subject: scheduling.DefaultEventSummary,
		Attendee: scheduling.AttendeeFacts{
			Name:    "Dana Whitfield",
			Phone:   "3055551234",
			Address: "12 Elm St",
			Intent:  "remodel",
		},
		EventID:  "evt-123",
		BookedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
}

func TestServiceRecordInsertsRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	rec := sampleRecord()
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), "sess-1", "evt-123", scheduling.DefaultEventSummary,
			pgtype.Timestamptz{Time: rec.Slot.Start, Valid: true},
			pgtype.Timestamptz{Time: rec.Slot.End, Valid: true},
			"Dana Whitfield", "3055551234", "12 Elm St", "remodel",
			pgtype.Timestamptz{Time: rec.BookedAt, Valid: true}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(NewRepository(mock), logging.Default())
	if err := svc.Record(context.Background(), "sess-1", rec); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestServiceRecordWrapsError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(boom)

	err = NewService(NewRepository(mock), nil).Record(context.Background(), "sess-1", sampleRecord())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestUpcomingScansRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	start := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "session_id", "event_id", "summary", "slot_start", "slot_end", "name", "phone", "address", "intent", "booked_at"}).
		AddRow(toPGUUID(id), "sess-1", "evt-123", "Home visit", toPGTime(start), toPGTime(start.Add(time.Hour)),
			"Dana", "3055551234", "12 Elm St", "remodel", toPGTime(now))
	mock.ExpectQuery("SELECT id, session_id").
		WithArgs(toPGTime(now), toPGTime(now.AddDate(0, 0, 7)), 50).
		WillReturnRows(rows)

	got, err := NewService(NewRepository(mock), nil).Upcoming(context.Background(), now, 7, 50)
	if err != nil {
		t.Fatalf("Upcoming returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(got))
	}
	b := got[0]
	if b.ID != id || b.EventID != "evt-123" || b.Name != "Dana" {
		t.Fatalf("unexpected booking %+v", b)
	}
	if !b.SlotStart.Equal(start) || !b.SlotEnd.Equal(start.Add(time.Hour)) {
		t.Fatalf("unexpected slot %s-%s", b.SlotStart, b.SlotEnd)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
