// Package bookings keeps a Postgres ledger of committed calendar bookings.
package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
)

// db is the subset of *pgxpool.Pool the repository needs.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Booking is one ledger row.
type Booking struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	EventID   string    `json:"event_id"`
	Summary   string    `json:"summary"`
	SlotStart time.Time `json:"slot_start"`
	SlotEnd   time.Time `json:"slot_end"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Intent    string    `json:"intent"`
	BookedAt  time.Time `json:"booked_at"`
}

// Repository provides persistence helpers for bookings.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool (or pgxmock).
func NewRepository(pool db) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

const insertBooking = `
INSERT INTO bookings (id, session_id, event_id, summary, slot_start, slot_end, name, phone, address, intent, booked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (event_id) DO NOTHING`

// Insert stores a committed booking. Re-inserting the same calendar event is
// a no-op.
func (r *Repository) Insert(ctx context.Context, sessionID string, rec scheduling.BookingRecord) (uuid.UUID, error) {
	id := uuid.New()
	bookedAt := rec.BookedAt
	if bookedAt.IsZero() {
		bookedAt = time.Now()
	}
	_, err := r.db.Exec(ctx, insertBooking,
		toPGUUID(id),
		sessionID,
		rec.EventID,
		rec.Subject,
		toPGTime(rec.Slot.Start),
		toPGTime(rec.Slot.End),
		rec.Attendee.Name,
		rec.Attendee.Phone,
		rec.Attendee.Address,
		rec.Attendee.Intent,
		toPGTime(bookedAt),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bookings: insert: %w", err)
	}
	return id, nil
}

const listBookings = `
SELECT id, session_id, event_id, summary, slot_start, slot_end, name, phone, address, intent, booked_at
FROM bookings
WHERE slot_start >= $1 AND slot_start < $2
ORDER BY slot_start
LIMIT $3`

// ListBetween returns bookings whose slot starts in [from, to), earliest first.
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, listBookings, toPGTime(from), toPGTime(to), limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var (
			id                   pgtype.UUID
			start, end, bookedAt pgtype.Timestamptz
			b                    Booking
		)
		if err := rows.Scan(&id, &b.SessionID, &b.EventID, &b.Summary, &start, &end,
			&b.Name, &b.Phone, &b.Address, &b.Intent, &bookedAt); err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		if id.Valid {
			b.ID = uuid.UUID(id.Bytes)
		}
		b.SlotStart = start.Time.UTC()
		b.SlotEnd = end.Time.UTC()
		b.BookedAt = bookedAt.Time.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	return out, nil
}

func toPGUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{
		Bytes: [16]byte(id),
		Valid: true,
	}
}

func toPGTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}
