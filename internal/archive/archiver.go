package archive

import (
	"context"
	"time"

	"github.com/wolfman30/ai-receptionist/internal/planner"
	"github.com/wolfman30/ai-receptionist/internal/session"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// Archiver turns finished sessions into scrubbed S3 records.
type Archiver struct {
	store  *Store
	logger *logging.Logger
}

// NewArchiver returns nil when the store is not enabled; a nil Archiver is
// safe to call.
func NewArchiver(store *Store, logger *logging.Logger) *Archiver {
	if !store.Enabled() {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Archiver{store: store, logger: logger}
}

// Archive writes the session transcript. Failures are logged and returned so
// callers may ignore them.
func (a *Archiver) Archive(ctx context.Context, state *session.State) error {
	if a == nil || state == nil {
		return nil
	}
	record := BuildRecord(state, a.store.now().UTC())
	if err := a.store.ArchiveSession(ctx, record); err != nil {
		a.logger.Error("session archive failed", "error", err, "session_id", state.ID)
		return err
	}
	return nil
}

// BuildRecord converts a session into its archived form with contact details
// redacted.
func BuildRecord(state *session.State, archivedAt time.Time) *SessionRecord {
	redactor := NewRedactor(state.Facts)
	msgs := make([]Message, 0, len(state.History))
	for _, m := range state.History {
		msgs = append(msgs, Message{Role: m.Role, Content: redactor.Redact(m.Text), Timestamp: m.At})
	}

	var duration int
	if n := len(msgs); n >= 2 {
		duration = int(msgs[n-1].Timestamp.Sub(msgs[0].Timestamp).Seconds())
	}
	record := &SessionRecord{
		Version:         RecordVersion,
		SessionID:       state.ID,
		CallerHash:      HashCaller(state.From),
		ArchivedAt:      archivedAt,
		DurationSeconds: duration,
		MessageCount:    len(msgs),
		Category:        Categorize(state),
		Intent:          state.Facts.Intent,
		Messages:        msgs,
	}
	if state.Booking != nil {
		record.EventID = state.Booking.EventID
	}
	return record
}

// Categorize labels how a session ended.
func Categorize(state *session.State) string {
	switch {
	case state.Booking != nil:
		return CategoryBooked
	case state.Facts.Intent == planner.IntentJob || state.Facts.Intent == planner.IntentPartner || state.Facts.Intent == planner.IntentMarketing:
		return CategoryAlternate
	case state.Facts.Intent == "":
		if countRole(state.History, session.RoleCaller) <= 1 {
			return CategoryAbandoned
		}
		return CategoryUnqualified
	default:
		return CategoryNoBooking
	}
}

func countRole(history []session.Message, role string) int {
	n := 0
	for _, m := range history {
		if m.Role == role {
			n++
		}
	}
	return n
}
