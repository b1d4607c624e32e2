// Package gcal adapts Google Calendar (v3) to the scheduling engine's
// Calendar collaborator.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// DefaultCalendarID is used when no calendar ID is configured.
const DefaultCalendarID = "primary"

// Config holds Google Calendar credentials. Either CredentialsJSON (a
// service-account key file) or ClientEmail plus PrivateKey must be set.
// ImpersonateUser enables domain-wide delegation.
type Config struct {
	CalendarID      string
	ClientEmail     string
	PrivateKey      string
	ImpersonateUser string
	CredentialsJSON string
}

// Client implements scheduling.Calendar against the Google Calendar API.
type Client struct {
	svc        *calendar.Service
	calendarID string
	logger     *logging.Logger
}

var _ scheduling.Calendar = (*Client)(nil)

// NewClient builds a calendar client from service-account credentials.
// Extra options are appended after the credential option.
func NewClient(ctx context.Context, cfg Config, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	credOpt, err := credentialsOption(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, cfg.CalendarID, logger, append([]option.ClientOption{credOpt}, opts...)...)
}

// NewClientWithOptions builds a client from raw API options only. Tests use
// it to point the client at a local server without credentials.
func NewClientWithOptions(ctx context.Context, calendarID string, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	return newClient(ctx, calendarID, logger, opts...)
}

func newClient(ctx context.Context, calendarID string, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcal: create service: %w", err)
	}
	if strings.TrimSpace(calendarID) == "" {
		calendarID = DefaultCalendarID
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{svc: svc, calendarID: calendarID, logger: logger}, nil
}

func credentialsOption(ctx context.Context, cfg Config) (option.ClientOption, error) {
	if raw := strings.TrimSpace(cfg.CredentialsJSON); raw != "" {
		conf, err := google.JWTConfigFromJSON([]byte(raw), calendar.CalendarScope)
		if err != nil {
			return nil, fmt.Errorf("gcal: parse credentials json: %w", err)
		}
		conf.Subject = strings.TrimSpace(cfg.ImpersonateUser)
		return option.WithHTTPClient(conf.Client(ctx)), nil
	}
	if strings.TrimSpace(cfg.ClientEmail) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errors.New("gcal: service account email and private key are required")
	}
	conf := &jwt.Config{
		Email:      strings.TrimSpace(cfg.ClientEmail),
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{calendar.CalendarScope},
		TokenURL:   google.JWTTokenURL,
		Subject:    strings.TrimSpace(cfg.ImpersonateUser),
	}
	return option.WithHTTPClient(conf.Client(ctx)), nil
}

// QueryBusy issues one freebusy request for the configured calendar.
func (c *Client) QueryBusy(ctx context.Context, timeMin, timeMax time.Time, timezone string) ([]scheduling.TimeInterval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin:  timeMin.Format(time.RFC3339),
		TimeMax:  timeMax.Format(time.RFC3339),
		TimeZone: timezone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}
	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: freebusy: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("gcal: freebusy: calendar %q missing from response", c.calendarID)
	}
	if len(cal.Errors) > 0 {
		reasons := make([]string, 0, len(cal.Errors))
		for _, e := range cal.Errors {
			reasons = append(reasons, e.Domain+"/"+e.Reason)
		}
		return nil, fmt.Errorf("gcal: freebusy: calendar %q: %s", c.calendarID, strings.Join(reasons, ", "))
	}

	busy := make([]scheduling.TimeInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("gcal: freebusy: parse start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("gcal: freebusy: parse end %q: %w", period.End, err)
		}
		busy = append(busy, scheduling.TimeInterval{Start: start, End: end})
	}
	return busy, nil
}

// InsertEvent creates the booking event and returns its ID.
func (c *Client) InsertEvent(ctx context.Context, req scheduling.EventRequest) (string, error) {
	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &calendar.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.TimeZone},
		End:         &calendar.EventDateTime{DateTime: req.End.Format(time.RFC3339), TimeZone: req.TimeZone},
	}
	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: insert event: %w", err)
	}
	c.logger.Debug("calendar event created", "calendar_id", c.calendarID, "event_id", created.Id)
	return created.Id, nil
}
