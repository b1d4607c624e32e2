package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// DefaultFromName is the sender name used when none is configured.
const DefaultFromName = "AI Receptionist"

// CategoryBooking tags booking emails in provider dashboards.
const CategoryBooking = "booking"

var errNoRecipients = errors.New("notify: email has no recipients")

// EmailSender delivers one message. SendGrid, SES and the log stub implement it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one office notification. Every address in To receives the
// same message.
type EmailMessage struct {
	To       []string
	ToName   string
	ReplyTo  string
	Subject  string
	Body     string
	HTML     string
	Category string
}

// ParseRecipients splits a comma-separated address list, dropping blanks.
func ParseRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds the sender identity and API key.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	message, err := s.build(msg)
	if err != nil {
		return err
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "recipients", len(msg.To))
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected email", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "recipients", len(msg.To), "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// build renders msg as a single personalization so each recipient sees the
// whole office list.
func (s *SendGridSender) build(msg EmailMessage) (*mail.SGMailV3, error) {
	if len(msg.To) == 0 {
		return nil, errNoRecipients
	}
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, addr := range msg.To {
		p.AddTos(mail.NewEmail(msg.ToName, addr))
	}
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.Body))
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}
	return m, nil
}

// StubEmailSender logs instead of sending (EMAIL_PROVIDER=log).
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if len(msg.To) == 0 {
		return errNoRecipients
	}
	s.logger.Info("email (log only)", "to", strings.Join(msg.To, ","), "subject", msg.Subject, "category", msg.Category)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
