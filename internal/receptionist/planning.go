package receptionist

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/ai-receptionist/internal/planner"
	"github.com/wolfman30/ai-receptionist/internal/scheduling"
	"github.com/wolfman30/ai-receptionist/internal/session"
)

const closeCheckPrompt = "Can I help you with anything else today?"

// delegate hands the turn to the planner and applies its decision under the
// workflow guards.
func (s *Service) delegate(ctx context.Context, state *session.State, text string, now time.Time) *Reply {
	req := planner.Request{
		History: plannerHistory(state.History),
		Facts: planner.Facts{
			Name:         state.Facts.Name,
			Intent:       state.Facts.Intent,
			Address:      state.Facts.Address,
			ContactPhone: state.Facts.Phone,
			GreetedOnce:  assistantTurns(state.History) > 1,
		},
		Now: now,
	}
	if s.freshShortlist(state, now) {
		req.Offered = scheduling.SpeakSlots(state.Shortlist.Slots, now, s.availability.Location())
	}

	plan, err := s.planner.Plan(ctx, req)
	if err != nil {
		s.logger.Error("planner failed", "session_id", state.ID, "error", err)
		return &Reply{Text: "Sorry, I had a glitch. Want to try that again?"}
	}

	state.MergeFacts(scheduling.AttendeeFacts{
		Name:    plan.Updates.Name,
		Intent:  plan.Updates.Intent,
		Address: plan.Updates.Address,
		Phone:   plan.Updates.ContactPhone,
	})
	replyText := planner.SanitizeReply(plan.Reply, req.Facts.GreetedOnce)
	action := s.guardAction(state, plan.Action, text)
	s.logger.Debug("planner decision", "session_id", state.ID, "action", string(plan.Action), "guarded", string(action))
	if action != plan.Action {
		if prompt := missingFactPrompt(state.Facts); prompt != "" {
			replyText = prompt
		}
	}

	switch action {
	case planner.ActionAskDayPreference:
		state.AskedDayPreference = true
		state.AwaitingDayPreference = true
		state.LastAction = string(action)
		if replyText == "" {
			replyText = "What day and time work best for the visit?"
		}
		return &Reply{Text: replyText}

	case planner.ActionOfferSlots:
		if !state.AskedDayPreference {
			state.Filter = scheduling.DeriveFilter(text, now, s.availability.Location())
			if state.Filter.IsEmpty() {
				state.AskedDayPreference = true
				state.AwaitingDayPreference = true
				state.LastAction = string(planner.ActionAskDayPreference)
				return &Reply{Text: "What day and time work best for the visit?"}
			}
			state.AskedDayPreference = true
		}
		return s.offerSlots(ctx, state, "", now)

	case planner.ActionChangeTime:
		state.ClearShortlist()
		state.Filter = scheduling.DeriveFilter(text, now, s.availability.Location())
		if state.Filter.IsEmpty() {
			state.AwaitingDayPreference = true
			state.LastAction = string(planner.ActionAskDayPreference)
			return &Reply{Text: "No problem. What day and time would work better for you?"}
		}
		return s.offerSlots(ctx, state, "No problem.", now)

	case planner.ActionBook:
		if !s.freshShortlist(state, now) {
			s.logger.Warn("book requested without a fresh shortlist", "session_id", state.ID, "error", scheduling.ErrNoShortlist)
			return s.offerSlots(ctx, state, "Let me pull up the latest openings.", now)
		}
		if plan.ChosenIndex == nil {
			return &Reply{
				Text:    "Which option works for you? Please say the option number.",
				Options: req.Offered,
				Outcome: OutcomeReprompt,
			}
		}
		slot, ok := state.Shortlist.At(*plan.ChosenIndex)
		if !ok {
			return &Reply{
				Text:    "Which option works for you? Please say the option number.",
				Options: req.Offered,
				Outcome: OutcomeReprompt,
			}
		}
		return s.book(ctx, state, slot, "", now)

	case planner.ActionAltJob, planner.ActionAltPartner, planner.ActionAltMarketing, planner.ActionCloseCheck:
		state.ClearShortlist()
		state.AwaitingClose = true
		if action.IsAlternate() {
			state.LastAction = actionAlt
		} else {
			state.LastAction = string(action)
		}
		return &Reply{Text: strings.TrimSpace(replyText + " " + closeCheckPrompt)}
	}

	state.LastAction = string(planner.ActionAsk)
	if replyText == "" {
		replyText = "Sorry, could you say that again?"
	}
	return &Reply{Text: replyText}
}

// guardAction downgrades planner moves the workflow does not allow yet.
func (s *Service) guardAction(state *session.State, action planner.Action, text string) planner.Action {
	switch action {
	case planner.ActionCloseCheck:
		wrapUp := state.Booking != nil || state.LastAction == actionAlt
		if !wrapUp || planner.IsRemodelIntent(text) {
			return planner.ActionAsk
		}
	case planner.ActionAskDayPreference, planner.ActionOfferSlots, planner.ActionChangeTime, planner.ActionBook:
		if state.Facts.Address == "" || state.Facts.Phone == "" {
			return planner.ActionAsk
		}
	}
	return action
}

func missingFactPrompt(facts scheduling.AttendeeFacts) string {
	switch {
	case facts.Address == "":
		return "Before I check the calendar, what's the property address?"
	case facts.Phone == "":
		return "And what's the best phone number to reach you?"
	}
	return ""
}

func plannerHistory(history []session.Message) []planner.Message {
	out := make([]planner.Message, 0, len(history))
	for _, m := range history {
		out = append(out, planner.Message{Role: m.Role, Text: m.Text})
	}
	return out
}

func assistantTurns(history []session.Message) int {
	n := 0
	for _, m := range history {
		if m.Role == session.RoleAssistant {
			n++
		}
	}
	return n
}
