// Package session holds per-conversation state for the receptionist.
package session

import (
	"strings"
	"time"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
)

// MaxHistory bounds the transcript kept on a session.
const MaxHistory = 40

// Message roles.
const (
	RoleCaller    = "caller"
	RoleAssistant = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// State is the per-session record: captured facts, the current shortlist and
// where the conversation is in the booking workflow.
type State struct {
	ID    string                   `json:"id"`
	From  string                   `json:"from,omitempty"`
	Facts scheduling.AttendeeFacts `json:"facts"`

	// LastAction is the last dialogue action taken, e.g. OFFER_SLOTS.
	LastAction string                      `json:"last_action,omitempty"`
	Shortlist  scheduling.Shortlist        `json:"shortlist"`
	Filter     scheduling.PreferenceFilter `json:"filter"`

	FailedSelections      int              `json:"failed_selections,omitempty"`
	Chosen                *scheduling.Slot `json:"chosen,omitempty"`
	AwaitingConfirm       bool             `json:"awaiting_confirm,omitempty"`
	AwaitingDayPreference bool             `json:"awaiting_day_preference,omitempty"`
	AskedDayPreference    bool             `json:"asked_day_preference,omitempty"`
	AwaitingClose         bool             `json:"awaiting_close,omitempty"`
	UseDTMF               bool             `json:"use_dtmf,omitempty"`

	Booking *scheduling.BookingRecord `json:"booking,omitempty"`
	Ended   bool                      `json:"ended,omitempty"`

	History   []Message `json:"history,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a fresh session.
func New(id, from string, now time.Time) *State {
	return &State{
		ID:        id,
		From:      from,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// HasShortlist reports whether an offer is outstanding.
func (s *State) HasShortlist() bool {
	return !s.Shortlist.IsEmpty()
}

// Offer replaces the shortlist. Indices from any earlier offer become invalid.
func (s *State) Offer(list scheduling.Shortlist) {
	s.Shortlist = list
	s.FailedSelections = 0
	s.Chosen = nil
	s.AwaitingConfirm = false
}

// ClearShortlist drops the outstanding offer and any pending choice.
func (s *State) ClearShortlist() {
	s.Shortlist = scheduling.Shortlist{}
	s.FailedSelections = 0
	s.Chosen = nil
	s.AwaitingConfirm = false
	s.UseDTMF = false
}

// MergeFacts copies non-empty values from updates into the captured facts.
func (s *State) MergeFacts(updates scheduling.AttendeeFacts) {
	if v := strings.TrimSpace(updates.Name); v != "" {
		s.Facts.Name = v
	}
	if v := strings.TrimSpace(updates.Phone); v != "" {
		s.Facts.Phone = v
	}
	if v := strings.TrimSpace(updates.Address); v != "" {
		s.Facts.Address = v
	}
	if v := strings.TrimSpace(updates.Intent); v != "" {
		s.Facts.Intent = v
	}
}

// Append records a transcript line, keeping at most MaxHistory entries.
func (s *State) Append(role, text string, at time.Time) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.History = append(s.History, Message{Role: role, Text: text, At: at.UTC()})
	if over := len(s.History) - MaxHistory; over > 0 {
		s.History = append([]Message(nil), s.History[over:]...)
	}
}
