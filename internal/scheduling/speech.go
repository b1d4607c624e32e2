package scheduling

import (
	"fmt"
	"time"
)

// SpeakTime renders a clock time the way it reads aloud: "9 a.m.", "2:30 p.m.".
func SpeakTime(t time.Time) string {
	hour, minute := t.Hour(), t.Minute()
	suffix := "a.m."
	if hour >= 12 {
		suffix = "p.m."
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	if minute == 0 {
		return fmt.Sprintf("%d %s", h, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}

// SpeakDate renders a date relative to now: "today", "tomorrow",
// "this Tuesday, the 15th" within the coming week, otherwise
// "Tuesday, October 15th". Both instants are compared in loc.
func SpeakDate(t, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	switch diff := daysBetween(now.In(loc), local); {
	case diff == 0:
		return "today"
	case diff == 1:
		return "tomorrow"
	case diff > 1 && diff < 7:
		return fmt.Sprintf("this %s, the %s", local.Weekday(), Ordinal(local.Day()))
	default:
		return fmt.Sprintf("%s, %s %s", local.Weekday(), local.Month(), Ordinal(local.Day()))
	}
}

// HumanDateTime joins SpeakDate and SpeakTime: "tomorrow at 10 a.m.".
func HumanDateTime(t, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return SpeakDate(t, now, loc) + " at " + SpeakTime(t.In(loc))
}

// SpeakSlots renders a shortlist as the option lines read to a caller.
func SpeakSlots(slots []Slot, now time.Time, loc *time.Location) []string {
	out := make([]string, 0, len(slots))
	for i, slot := range slots {
		out = append(out, fmt.Sprintf("Option %d: %s", i+1, HumanDateTime(slot.Start, now, loc)))
	}
	return out
}

// Ordinal returns n with its English suffix: 1st, 2nd, 3rd, 11th, 22nd.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// daysBetween counts calendar days from a to b using their wall-clock dates.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
