package planner

import (
	"context"
	"strings"
)

// RulePlanner is a deterministic planner used when no model is configured.
// It walks the remodel flow: name, address, phone, day preference, offer.
type RulePlanner struct {
	BusinessName string
}

// Plan routes alternate intents and asks for the first missing fact, then a day preference.
func (p RulePlanner) Plan(_ context.Context, req Request) (Plan, error) {
	latest := ""
	if n := len(req.History); n > 0 && req.History[n-1].Role == RoleCaller {
		latest = req.History[n-1].Text
	}
	facts := req.Facts

	var upd Updates
	if facts.Name == "" {
		upd.Name = ExtractName(latest)
		facts.Name = upd.Name
	}
	if facts.Intent == "" {
		upd.Intent = ClassifyIntent(latest)
		facts.Intent = upd.Intent
	}
	if facts.ContactPhone == "" {
		upd.ContactPhone = ExtractPhoneNumber(latest)
		facts.ContactPhone = upd.ContactPhone
	}
	if facts.Address == "" && facts.Intent == IntentRemodel && upd.Name == "" && upd.Intent == "" && upd.ContactPhone == "" && looksLikeAddress(latest) {
		upd.Address = strings.TrimSpace(latest)
		facts.Address = upd.Address
	}

	plan := Plan{Updates: upd, Action: ActionAsk}
	switch {
	case facts.Intent == IntentJob:
		plan.Action = ActionAltJob
		plan.Reply = "Thanks for your interest! You can see open roles on our careers page."
	case facts.Intent == IntentPartner:
		plan.Action = ActionAltPartner
		plan.Reply = "Great, please fill out the partners form on our website and our team will reach out."
	case facts.Intent == IntentMarketing:
		plan.Action = ActionAltMarketing
		plan.Reply = "Please send the details to our office email and the right person will follow up."
	case facts.Name == "":
		plan.Reply = "May I have your name, and what can I help you with today?"
	case facts.Intent == "":
		plan.Reply = "Thanks, " + facts.Name + ". What kind of project do you have in mind?"
	case facts.Address == "":
		plan.Reply = "Happy to help. We start with a free home visit with a 3D scan and a detailed estimate. What's the property address?"
	case facts.ContactPhone == "":
		plan.Reply = "What's the best phone number to reach you?"
	case len(req.Offered) > 0:
		plan.Action = ActionChangeTime
		plan.Reply = "No problem. What day works better for you?"
	default:
		plan.Action = ActionAskDayPreference
		plan.Reply = "Do you prefer tomorrow morning, or later this week in the afternoon?"
	}
	return plan, nil
}

func looksLikeAddress(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) < 6 {
		return false
	}
	hasDigit, hasLetter := false, false
	for _, r := range t {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}
	return hasDigit && hasLetter
}
