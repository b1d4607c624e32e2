package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// BookingNotifier is told about every committed booking.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, rec scheduling.BookingRecord) error
}

// ServiceConfig names who receives booking emails. To is a comma-separated
// address list.
type ServiceConfig struct {
	To           string
	ReplyTo      string
	BusinessName string
	Location     *time.Location
}

// Service emails the business when the receptionist books a visit.
type Service struct {
	email        EmailSender
	to           []string
	replyTo      string
	businessName string
	loc          *time.Location
	logger       *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		email:        email,
		to:           ParseRecipients(cfg.To),
		replyTo:      strings.TrimSpace(cfg.ReplyTo),
		businessName: cfg.BusinessName,
		loc:          cfg.Location,
		logger:       logger,
	}
}

// BookingConfirmed sends the booking email. It is a no-op without a sender
// or recipient.
func (s *Service) BookingConfirmed(ctx context.Context, rec scheduling.BookingRecord) error {
	if s.email == nil || len(s.to) == 0 {
		s.logger.Debug("notify: booking email not configured, skipping", "event_id", rec.EventID)
		return nil
	}
	msg := BookingEmail(rec, s.businessName, s.loc)
	msg.To = s.to
	msg.ReplyTo = s.replyTo
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking email: %w", err)
	}
	return nil
}

// BookingEmail renders the operator email for a booking.
func BookingEmail(rec scheduling.BookingRecord, businessName string, loc *time.Location) EmailMessage {
	if loc == nil {
		loc = time.UTC
	}
	start := rec.Slot.Start.In(loc)
	when := fmt.Sprintf("%s, %s", start.Format("Monday, January 2"), scheduling.SpeakTime(start))
	name := rec.Attendee.Name
	if name == "" {
		name = "A caller"
	}

	subject := fmt.Sprintf("New booking: %s on %s", name, when)
	if businessName != "" {
		subject = fmt.Sprintf("[%s] %s", businessName, subject)
	}

	lines := []string{
		fmt.Sprintf("%s booked: %s.", name, rec.Subject),
		"",
		"When: " + when + " (" + loc.String() + ")",
		"Phone: " + orNone(rec.Attendee.Phone),
		"Address: " + orNone(rec.Attendee.Address),
		"Intent: " + orNone(rec.Attendee.Intent),
		"Calendar event: " + orNone(rec.EventID),
	}

	var b strings.Builder
	b.WriteString("<p><strong>" + html.EscapeString(name) + "</strong> booked: " + html.EscapeString(rec.Subject) + ".</p><ul>")
	for _, line := range lines[2:] {
		b.WriteString("<li>" + html.EscapeString(line) + "</li>")
	}
	b.WriteString("</ul>")

	return EmailMessage{
		ToName:   businessName,
		Subject:  subject,
		Body:     strings.Join(lines, "\n"),
		HTML:     b.String(),
		Category: CategoryBooking,
	}
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []BookingNotifier

func (f Fanout) BookingConfirmed(ctx context.Context, rec scheduling.BookingRecord) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.BookingConfirmed(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func orNone(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(not given)"
	}
	return v
}
