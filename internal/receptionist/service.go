// Package receptionist drives one caller turn through the dialogue planner
// and the slot negotiation engine.
package receptionist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/ai-receptionist/internal/clock"
	"github.com/wolfman30/ai-receptionist/internal/observability/metrics"
	"github.com/wolfman30/ai-receptionist/internal/planner"
	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/internal/session"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

var receptionistTracer = otel.Tracer("receptionist.internal.receptionist")

// ErrSessionEnded is returned for turns sent to a session that already hung up.
var ErrSessionEnded = errors.New("receptionist: session ended")

const (
	// DefaultShortlistMaxAge bounds how long an offer stays selectable.
	DefaultShortlistMaxAge = 15 * time.Minute

	actionConfirm = "CONFIRM"
	actionBooked  = "BOOKED"
	actionAlt     = "ALT"

	// failedSelectionsBeforeDTMF is when the keypad fallback is offered.
	failedSelectionsBeforeDTMF = 2
)

// Availability resolves free slots. *scheduling.Resolver satisfies it.
type Availability interface {
	ResolveFree(ctx context.Context, from time.Time, horizonDays int) ([]scheduling.Slot, error)
	Location() *time.Location
}

// Booker commits a chosen slot. *scheduling.Transactor satisfies it.
type Booker interface {
	Book(ctx context.Context, slot scheduling.Slot, facts scheduling.AttendeeFacts) (*scheduling.BookingOutcome, error)
}

// Ledger keeps a local copy of committed bookings.
type Ledger interface {
	Record(ctx context.Context, sessionID string, rec scheduling.BookingRecord) error
}

// Notifier tells the business about a new booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, rec scheduling.BookingRecord) error
}

// Archiver stores the transcript of a finished session.
type Archiver interface {
	Archive(ctx context.Context, state *session.State) error
}

// Options carries tunables and optional collaborators.
type Options struct {
	BusinessName    string
	HorizonDays     int
	ShortlistSize   int
	ShortlistMaxAge time.Duration
	Clock           clock.Clock
	Logger          *logging.Logger
	Metrics         *metrics.SchedulingMetrics
	Ledger          Ledger
	Notifier        Notifier
	Archiver        Archiver
}

// Service is the receptionist orchestrator.
type Service struct {
	store        session.Store
	availability Availability
	booker       Booker
	planner      planner.Planner

	businessName  string
	horizonDays   int
	shortlistSize int
	maxAge        time.Duration
	clock         clock.Clock
	logger        *logging.Logger
	metrics       *metrics.SchedulingMetrics
	ledger        Ledger
	notifier      Notifier
	archiver      Archiver
}

// NewService wires the orchestrator.
func NewService(store session.Store, availability Availability, booker Booker, plan planner.Planner, opts Options) *Service {
	if store == nil {
		panic("receptionist: session store required")
	}
	if availability == nil {
		panic("receptionist: availability required")
	}
	if booker == nil {
		panic("receptionist: booker required")
	}
	if plan == nil {
		panic("receptionist: planner required")
	}
	if strings.TrimSpace(opts.BusinessName) == "" {
		opts.BusinessName = "our office"
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 10
	}
	if opts.ShortlistSize <= 0 || opts.ShortlistSize > scheduling.MaxShortlistSize {
		opts.ShortlistSize = scheduling.MaxShortlistSize
	}
	if opts.ShortlistMaxAge <= 0 {
		opts.ShortlistMaxAge = DefaultShortlistMaxAge
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Service{
		store:         store,
		availability:  availability,
		booker:        booker,
		planner:       plan,
		businessName:  opts.BusinessName,
		horizonDays:   opts.HorizonDays,
		shortlistSize: opts.ShortlistSize,
		maxAge:        opts.ShortlistMaxAge,
		clock:         opts.Clock,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		ledger:        opts.Ledger,
		notifier:      opts.Notifier,
		archiver:      opts.Archiver,
	}
}

// Turn is one caller input: transcribed speech and/or keypad digits.
type Turn struct {
	Text   string `json:"text"`
	Digits string `json:"digits,omitempty"`
	From   string `json:"from,omitempty"`
}

// Outcome labels what a turn achieved.
type Outcome string

const (
	OutcomeNone                Outcome = ""
	OutcomeOffered             Outcome = "offered"
	OutcomeNoFreeSlots         Outcome = "no_free_slots"
	OutcomeConfirming          Outcome = "confirming"
	OutcomeBooked              Outcome = "booked"
	OutcomeSlotTaken           Outcome = "slot_taken"
	OutcomeBookingFailed       Outcome = "booking_failed"
	OutcomeCalendarUnavailable Outcome = "calendar_unavailable"
	OutcomeReprompt            Outcome = "reprompt"
	OutcomeEnded               Outcome = "ended"
)

// Reply is what the receptionist says back.
type Reply struct {
	SessionID string                    `json:"session_id"`
	Text      string                    `json:"text"`
	Options   []string                  `json:"options,omitempty"`
	UseDTMF   bool                      `json:"use_dtmf,omitempty"`
	Hangup    bool                      `json:"hangup,omitempty"`
	Outcome   Outcome                   `json:"outcome,omitempty"`
	Booking   *scheduling.BookingRecord `json:"booking,omitempty"`
}

// StartSession opens a conversation and returns the greeting.
func (s *Service) StartSession(ctx context.Context, from string) (*Reply, error) {
	now := s.clock.Now()
	state := session.New(uuid.NewString(), from, now)
	greeting := fmt.Sprintf("Hey there! I'm the scheduling assistant at %s. May I have your name, and what can I help you with today?", s.businessName)
	state.Append(session.RoleAssistant, greeting, now)
	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("receptionist: save session: %w", err)
	}
	s.logger.Info("session started", "session_id", state.ID)
	return &Reply{SessionID: state.ID, Text: greeting}, nil
}

// EndSession archives and discards a session.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !state.Ended {
		s.archive(ctx, state)
	}
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) archive(ctx context.Context, state *session.State) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, state); err != nil {
		s.logger.Warn("session archive failed", "session_id", state.ID, "error", err)
	}
}

// Session returns the stored state of a session.
func (s *Service) Session(ctx context.Context, sessionID string) (*session.State, error) {
	return s.store.Get(ctx, sessionID)
}

// HandleTurn processes one caller turn and persists the updated session.
func (s *Service) HandleTurn(ctx context.Context, sessionID string, turn Turn) (*Reply, error) {
	ctx, span := receptionistTracer.Start(ctx, "receptionist.handle_turn")
	defer span.End()
	span.SetAttributes(attribute.String("receptionist.session_id", sessionID))

	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Ended {
		return nil, ErrSessionEnded
	}

	now := s.clock.Now()
	text := strings.TrimSpace(turn.Text)
	switch {
	case text != "":
		state.Append(session.RoleCaller, text, now)
	case turn.Digits != "":
		state.Append(session.RoleCaller, "[pressed "+turn.Digits+"]", now)
	}
	if state.From == "" {
		state.From = turn.From
	}

	reply := s.route(ctx, state, text, strings.TrimSpace(turn.Digits), now)
	reply.SessionID = state.ID
	state.Append(session.RoleAssistant, reply.Text, now)
	state.UpdatedAt = now.UTC()

	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("receptionist: save session: %w", err)
	}
	if state.Ended {
		s.archive(ctx, state)
	}
	span.SetAttributes(
		attribute.String("receptionist.last_action", state.LastAction),
		attribute.String("receptionist.outcome", string(reply.Outcome)),
	)
	return reply, nil
}

func (s *Service) route(ctx context.Context, state *session.State, text, digits string, now time.Time) *Reply {
	if state.AwaitingClose {
		return s.handleClose(state, text)
	}

	if state.AwaitingConfirm && state.Chosen != nil {
		yes, no := planner.Confirmation(text)
		switch {
		case yes:
			return s.book(ctx, state, *state.Chosen, "", now)
		case no:
			state.ClearShortlist()
			state.Filter = scheduling.PreferenceFilter{}
			state.AwaitingDayPreference = true
			state.LastAction = string(planner.ActionAskDayPreference)
			return &Reply{Text: "No problem. What day and time would work better for you?"}
		}
	}

	if state.LastAction == string(planner.ActionOfferSlots) && s.freshShortlist(state, now) {
		if reply, ok := s.selectFromShortlist(state, text, digits, now); ok {
			return reply
		}
		state.FailedSelections++
		state.UseDTMF = state.FailedSelections >= failedSelectionsBeforeDTMF
		prompt := `Sorry, I didn't catch that. Please say "option one", "option two", or "option three".`
		if state.UseDTMF {
			prompt = `Sorry, I didn't catch that. Please say "option one", "option two", or "option three", or press 1, 2, or 3.`
		}
		return &Reply{
			Text:    prompt,
			Options: scheduling.SpeakSlots(state.Shortlist.Slots, now, s.availability.Location()),
			UseDTMF: state.UseDTMF,
			Outcome: OutcomeReprompt,
		}
	}

	if state.AwaitingDayPreference {
		state.AwaitingDayPreference = false
		state.Filter = scheduling.DeriveFilter(text, now, s.availability.Location())
		return s.offerSlots(ctx, state, "Got it, let me take a quick look.", now)
	}

	return s.delegate(ctx, state, text, now)
}

func (s *Service) handleClose(state *session.State, text string) *Reply {
	if planner.NegativeIntent(text) {
		state.Ended = true
		state.AwaitingClose = false
		return &Reply{
			Text:    fmt.Sprintf("Alright! Thanks for calling %s. Have a great day!", s.businessName),
			Hangup:  true,
			Outcome: OutcomeEnded,
		}
	}
	state.AwaitingClose = false
	return &Reply{Text: "Sure, what else can I help you with?"}
}

func (s *Service) selectFromShortlist(state *session.State, text, digits string, now time.Time) (*Reply, bool) {
	var (
		sel scheduling.Selection
		ok  bool
	)
	if digits != "" {
		sel, ok = scheduling.MatchDigits(digits, state.Shortlist)
	}
	if !ok {
		sel, ok = scheduling.MatchSelection(text, state.Shortlist, s.availability.Location())
	}
	s.metrics.ObserveSelection(string(sel.Stage))
	if !ok {
		return nil, false
	}
	slot, _ := state.Shortlist.At(sel.Index)
	return s.confirmChosen(state, slot, now), true
}

func (s *Service) confirmChosen(state *session.State, slot scheduling.Slot, now time.Time) *Reply {
	state.Chosen = &slot
	state.AwaitingConfirm = true
	state.UseDTMF = false
	state.LastAction = actionConfirm
	when := scheduling.HumanDateTime(slot.Start, now, s.availability.Location())
	return &Reply{
		Text:    fmt.Sprintf("Perfect. I have you down for %s at %s. Shall I book it?", when, addressOr(state.Facts.Address)),
		Outcome: OutcomeConfirming,
	}
}

// freshShortlist reports whether the outstanding offer may still be selected.
func (s *Service) freshShortlist(state *session.State, now time.Time) bool {
	if !state.HasShortlist() {
		return false
	}
	return now.Sub(state.Shortlist.OfferedAt) <= s.maxAge
}

func (s *Service) offerSlots(ctx context.Context, state *session.State, prefix string, now time.Time) *Reply {
	loc := s.availability.Location()
	free, err := s.availability.ResolveFree(ctx, now, s.horizonDays)
	if err != nil {
		s.logger.Error("availability lookup failed", "session_id", state.ID, "error", err)
		state.ClearShortlist()
		state.LastAction = string(planner.ActionAsk)
		return &Reply{
			Text:    "Sorry, I'm having trouble reaching the calendar right now. Could we try again in a moment?",
			Outcome: OutcomeCalendarUnavailable,
		}
	}

	shortlist := scheduling.NewShortlist(scheduling.ApplyFilter(free, state.Filter, loc), s.shortlistSize, now)
	if shortlist.IsEmpty() {
		state.ClearShortlist()
		state.AwaitingDayPreference = true
		state.LastAction = string(planner.ActionAskDayPreference)
		return &Reply{
			Text:    "I don't see open time for that preference. Would you like me to check other days or times?",
			Outcome: OutcomeNoFreeSlots,
		}
	}

	state.Offer(shortlist)
	state.LastAction = string(planner.ActionOfferSlots)
	options := scheduling.SpeakSlots(shortlist.Slots, now, loc)
	return &Reply{
		Text:    strings.TrimSpace(prefix + " " + strings.Join(options, ". ") + ". Please say the option number."),
		Options: options,
		Outcome: OutcomeOffered,
	}
}

func (s *Service) book(ctx context.Context, state *session.State, slot scheduling.Slot, customReply string, now time.Time) *Reply {
	if !s.freshShortlist(state, now) {
		s.logger.Warn("booking refused without a fresh shortlist", "session_id", state.ID, "error", scheduling.ErrNoShortlist)
		return s.offerSlots(ctx, state, "No problem. Here are the options.", now)
	}

	facts := state.Facts
	if facts.Phone == "" {
		facts.Phone = state.From
	}
	outcome, err := s.booker.Book(ctx, slot, facts)
	if err != nil {
		s.logger.Error("booking failed", "session_id", state.ID, "error", err)
		state.ClearShortlist()
		state.LastAction = string(planner.ActionAsk)
		return &Reply{
			Text:    "Sorry, I couldn't complete the booking just now. Would you like me to try another time?",
			Outcome: OutcomeBookingFailed,
		}
	}
	if !outcome.Committed {
		state.ClearShortlist()
		state.LastAction = string(planner.ActionAsk)
		return &Reply{
			Text:    "Sorry, that time just became unavailable. Would you like the next available options?",
			Outcome: OutcomeSlotTaken,
		}
	}

	rec := *outcome.Record
	state.Booking = &rec
	state.ClearShortlist()
	state.AwaitingClose = true
	state.LastAction = actionBooked
	s.afterCommit(ctx, state.ID, rec)

	msg := customReply
	if msg == "" {
		msg = fmt.Sprintf("All set! You're booked for %s at %s.",
			scheduling.HumanDateTime(slot.Start, now, s.availability.Location()), addressOr(state.Facts.Address))
	}
	return &Reply{
		Text:    msg + " Can I help you with anything else today?",
		Outcome: OutcomeBooked,
		Booking: &rec,
	}
}

// afterCommit records and announces a booking. Failures here never undo or
// fail the booking itself.
func (s *Service) afterCommit(ctx context.Context, sessionID string, rec scheduling.BookingRecord) {
	if s.ledger != nil {
		if err := s.ledger.Record(ctx, sessionID, rec); err != nil {
			s.logger.Error("booking ledger write failed", "session_id", sessionID, "event_id", rec.EventID, "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(ctx, rec); err != nil {
			s.logger.Error("booking notification failed", "session_id", sessionID, "event_id", rec.EventID, "error", err)
		}
	}
}

// Availability returns free slots narrowed by a free-text preference.
func (s *Service) Availability(ctx context.Context, preference string) ([]scheduling.Slot, error) {
	now := s.clock.Now()
	loc := s.availability.Location()
	free, err := s.availability.ResolveFree(ctx, now, s.horizonDays)
	if err != nil {
		return nil, err
	}
	return scheduling.ApplyFilter(free, scheduling.DeriveFilter(preference, now, loc), loc), nil
}

func addressOr(address string) string {
	if strings.TrimSpace(address) == "" {
		return "your address"
	}
	return address
}
