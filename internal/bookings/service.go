package bookings

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

var bookingsTracer = otel.Tracer("receptionist.internal.bookings")

// Service records committed bookings in the ledger.
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

// NewService constructs a bookings service.
func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record appends a committed booking for the given session.
func (s *Service) Record(ctx context.Context, sessionID string, rec scheduling.BookingRecord) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("receptionist.session_id", sessionID),
		attribute.String("receptionist.event_id", rec.EventID),
	)

	id, err := s.repo.Insert(ctx, sessionID, rec)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking recorded", "session_id", sessionID, "event_id", rec.EventID, "booking_id", id.String())
	return nil
}

// Upcoming lists bookings starting within the next days from now.
func (s *Service) Upcoming(ctx context.Context, now time.Time, days, limit int) ([]Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.upcoming")
	defer span.End()
	if days <= 0 {
		days = 30
	}
	rows, err := s.repo.ListBetween(ctx, now, now.AddDate(0, 0, days), limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}
