// Package planner decides the receptionist's next dialogue move.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Action is the dialogue move a planner chooses for a turn.
type Action string

const (
	ActionAsk              Action = "ASK"
	ActionAskDayPreference Action = "ASK_DAY_PREFERENCE"
	ActionOfferSlots       Action = "OFFER_SLOTS"
	ActionBook             Action = "BOOK"
	ActionAltJob           Action = "ALT_JOB"
	ActionAltPartner       Action = "ALT_PARTNER"
	ActionAltMarketing     Action = "ALT_MARKETING"
	ActionCloseCheck       Action = "CLOSE_CHECK"
	ActionChangeTime       Action = "CHANGE_TIME"
)

var knownActions = map[Action]bool{
	ActionAsk: true, ActionAskDayPreference: true, ActionOfferSlots: true, ActionBook: true,
	ActionAltJob: true, ActionAltPartner: true, ActionAltMarketing: true,
	ActionCloseCheck: true, ActionChangeTime: true,
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return knownActions[a]
}

// IsAlternate reports whether a routes the caller away from booking.
func (a Action) IsAlternate() bool {
	return a == ActionAltJob || a == ActionAltPartner || a == ActionAltMarketing
}

// Intent values the planner may record.
const (
	IntentRemodel   = "remodel"
	IntentJob       = "job"
	IntentPartner   = "partner"
	IntentMarketing = "marketing"
	IntentOther     = "other"
)

// Updates are facts the planner extracted from the caller's last turn.
type Updates struct {
	Name         string `json:"name,omitempty"`
	Intent       string `json:"intent,omitempty"`
	Address      string `json:"address,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
}

// Plan is the planner's decision for one turn.
type Plan struct {
	Updates     Updates `json:"updates"`
	Action      Action  `json:"action"`
	ChosenIndex *int    `json:"chosen_index,omitempty"`
	Reply       string  `json:"reply"`
}

// Transcript roles.
const (
	RoleCaller    = "caller"
	RoleAssistant = "assistant"
)

// Message is one transcript line given to the planner.
type Message struct {
	Role string
	Text string
}

// Facts is what the conversation has captured so far.
type Facts struct {
	Name         string `json:"name"`
	Intent       string `json:"intent"`
	Address      string `json:"address"`
	ContactPhone string `json:"contactPhone"`
	GreetedOnce  bool   `json:"greetedOnce"`
}

// Request is the planner input for one caller turn.
type Request struct {
	History []Message
	Facts   Facts
	// Offered are the spoken shortlist options currently on the table.
	Offered []string
	Now     time.Time
}

// Planner chooses the next action.
type Planner interface {
	Plan(ctx context.Context, req Request) (Plan, error)
}

// ParsePlan decodes a planner JSON reply. Markdown code fences are tolerated
// and an unknown action is downgraded to ASK.
func ParsePlan(raw string) (Plan, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return Plan{}, fmt.Errorf("planner: decode plan: %w", err)
	}
	plan.Action = Action(strings.ToUpper(strings.TrimSpace(string(plan.Action))))
	if !plan.Action.Valid() {
		plan.Action = ActionAsk
	}
	if plan.ChosenIndex != nil && (*plan.ChosenIndex < 0 || *plan.ChosenIndex > 2) {
		plan.ChosenIndex = nil
	}
	plan.Reply = strings.TrimSpace(plan.Reply)
	return plan, nil
}
