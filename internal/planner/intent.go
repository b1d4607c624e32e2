package planner

import (
	"regexp"
	"strings"
)

var (
	negativeRE = regexp.MustCompile(`\b(no|nope|nah|nothing|i'?m good|that'?s all|that is all|thanks|thank you|we'?re good|we are good)\b`)
	remodelRE  = regexp.MustCompile(`remodel|renovat|repair|bath(room)?|kitchen|estimate|scan|design|floor|paint|home visit|consultation|appointment`)
	jobRE      = regexp.MustCompile(`\b(job|jobs|career|careers|employment|hiring|apply)\b`)
	partnerRE  = regexp.MustCompile(`\b(partner|partners|partnership|subcontractor|contractor)\b`)
	marketRE   = regexp.MustCompile(`\b(marketing|advertising|advertise|promotion|seo)\b`)
	greetingRE = regexp.MustCompile(`(?i)\b(great|nice|glad)\s+to\s+meet\s+you\b[^.!?]*[.!?]?`)
	spacesRE   = regexp.MustCompile(`\s{2,}`)
	affirmRE   = regexp.MustCompile(`\b(yes|yeah|yep|yup|sure|please|book it|sounds good|perfect|correct|that works|go ahead|ok|okay|absolutely|let'?s do it)\b`)
	declineRE  = regexp.MustCompile(`\b(no|nope|nah|not|don'?t|cancel|wait|different)\b`)
	nameRE     = regexp.MustCompile(`(?i)\b(?:my name is|my name's|this is|i am|i'm|it's)\s+([a-z][a-z'\-]+(?:\s+[a-z][a-z'\-]+)?)`)
)

// Words that follow "I'm" or "this is" without being a name.
var nameStopWords = map[string]bool{
	"and": true, "calling": true, "looking": true, "interested": true, "good": true,
	"fine": true, "just": true, "not": true, "here": true, "ok": true, "okay": true,
	"sorry": true, "free": true, "available": true, "about": true, "with": true,
	"from": true, "at": true, "in": true, "the": true, "a": true,
}

var spokenDigits = map[string]byte{
	"zero": '0', "oh": '0', "o": '0',
	"one": '1', "two": '2', "three": '3', "four": '4', "five": '5',
	"six": '6', "seven": '7', "eight": '8', "nine": '9',
}

// NegativeIntent reports whether the caller is declining further help.
func NegativeIntent(text string) bool {
	return negativeRE.MatchString(strings.ToLower(text))
}

// Confirmation classifies a reply to a yes/no question. A reply carrying any
// decline word counts as a decline even if it also sounds positive.
func Confirmation(text string) (yes, no bool) {
	t := strings.ToLower(text)
	if declineRE.MatchString(t) {
		return false, true
	}
	return affirmRE.MatchString(t), false
}

// IsRemodelIntent reports whether the caller mentions remodel or repair work.
func IsRemodelIntent(text string) bool {
	return remodelRE.MatchString(strings.ToLower(text))
}

// ClassifyIntent maps caller text to an intent value, or "" when unclear.
// A remodel mention outranks the alternates.
func ClassifyIntent(text string) string {
	t := strings.ToLower(text)
	switch {
	case remodelRE.MatchString(t):
		return IntentRemodel
	case jobRE.MatchString(t):
		return IntentJob
	case partnerRE.MatchString(t):
		return IntentPartner
	case marketRE.MatchString(t):
		return IntentMarketing
	default:
		return ""
	}
}

// ExtractPhoneNumber returns a 10-digit US number from digits ("305-555-1234",
// "+1 305 555 1234") or spoken words ("three oh five ..."), or "".
func ExtractPhoneNumber(text string) string {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if d := digits.String(); len(d) >= 10 {
		tail := d
		if len(tail) > 11 {
			tail = tail[len(tail)-11:]
		}
		if len(tail) == 11 {
			if tail[0] == '1' {
				return tail[1:]
			}
			tail = tail[1:]
		}
		return tail
	}

	var spoken []byte
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ",.;:!?")
		if d, ok := spokenDigits[word]; ok {
			spoken = append(spoken, d)
		}
	}
	if len(spoken) == 10 {
		return string(spoken)
	}
	return ""
}

// ExtractName picks a name out of phrases like "my name is Dana" or "this is
// Dana Whitfield". It returns "" when no such phrase is present.
func ExtractName(text string) string {
	m := nameRE.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	fields := strings.Fields(m[1])
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		lower := strings.ToLower(f)
		if nameStopWords[lower] {
			break
		}
		out = append(out, strings.ToUpper(lower[:1])+lower[1:])
	}
	return strings.Join(out, " ")
}

// SanitizeReply strips a repeated "nice to meet you" once the caller has
// been greeted and collapses whitespace.
func SanitizeReply(reply string, greetedOnce bool) string {
	if reply == "" {
		return reply
	}
	if greetedOnce {
		reply = greetingRE.ReplaceAllString(reply, "")
	}
	return strings.TrimSpace(spacesRE.ReplaceAllString(reply, " "))
}
