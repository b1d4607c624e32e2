package scheduling

import (
	"regexp"
	"strings"
	"time"
)

// PartOfDay is a coarse time-of-day window a caller can ask for.
type PartOfDay string

const (
	PartOfDayAny       PartOfDay = ""
	PartOfDayMorning   PartOfDay = "morning"
	PartOfDayAfternoon PartOfDay = "afternoon"
	PartOfDayEvening   PartOfDay = "evening"
)

// Hours returns the [start, end) hour range for the part of day.
func (p PartOfDay) Hours() (start, end int, ok bool) {
	switch p {
	case PartOfDayMorning:
		return 9, 12, true
	case PartOfDayAfternoon:
		return 12, 16, true
	case PartOfDayEvening:
		return 16, 19, true
	default:
		return 0, 0, false
	}
}

// CalendarDate is a business-local date with no time of day.
type CalendarDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) CalendarDate {
	y, m, d := t.In(loc).Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

func (d CalendarDate) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// PreferenceFilter narrows free slots by a caller's stated day and part of
// day. A nil Day or empty PartOfDay leaves that axis unconstrained.
type PreferenceFilter struct {
	Day       *CalendarDate `json:"day,omitempty"`
	PartOfDay PartOfDay     `json:"part_of_day,omitempty"`
}

func (f PreferenceFilter) IsEmpty() bool {
	return f.Day == nil && f.PartOfDay == PartOfDayAny
}

var (
	todayRE     = regexp.MustCompile(`\btoday\b`)
	tomorrowRE  = regexp.MustCompile(`\btomorrow\b`)
	morningRE   = regexp.MustCompile(`morning`)
	afternoonRE = regexp.MustCompile(`afternoon`)
	eveningRE   = regexp.MustCompile(`evening|night`)
	weekdayRE   = regexp.MustCompile(`\b(?:(?:this|next)\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
)

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// DeriveFilter extracts a day and part-of-day preference from a caller
// utterance. Day priority is "today", then "tomorrow", then the first weekday
// named. A weekday always resolves to its next occurrence strictly after
// today, so naming today's weekday means one week out.
func DeriveFilter(utterance string, now time.Time, loc *time.Location) PreferenceFilter {
	if loc == nil {
		loc = time.UTC
	}
	text := strings.ToLower(utterance)
	filter := PreferenceFilter{PartOfDay: partOfDayIn(text)}

	local := now.In(loc)
	y, m, d := local.Date()
	dayAt := func(offset int) *CalendarDate {
		date := DateOf(time.Date(y, m, d+offset, 12, 0, 0, 0, loc), loc)
		return &date
	}

	switch {
	case todayRE.MatchString(text):
		filter.Day = dayAt(0)
	case tomorrowRE.MatchString(text):
		filter.Day = dayAt(1)
	default:
		if wd, ok := firstWeekday(text); ok {
			delta := (int(wd) - int(local.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			filter.Day = dayAt(delta)
		}
	}
	return filter
}

// ApplyFilter keeps, in order, the slots that satisfy both axes of the filter.
// An empty result is returned as-is; callers decide how to re-prompt.
func ApplyFilter(slots []Slot, filter PreferenceFilter, loc *time.Location) []Slot {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if filter.matches(slot, loc) {
			out = append(out, slot)
		}
	}
	return out
}

func (f PreferenceFilter) matches(slot Slot, loc *time.Location) bool {
	if f.Day != nil && DateOf(slot.Start, loc) != *f.Day {
		return false
	}
	if start, end, ok := f.PartOfDay.Hours(); ok {
		hour := slot.Start.In(loc).Hour()
		if hour < start || hour >= end {
			return false
		}
	}
	return true
}

func partOfDayIn(text string) PartOfDay {
	switch {
	case morningRE.MatchString(text):
		return PartOfDayMorning
	case afternoonRE.MatchString(text):
		return PartOfDayAfternoon
	case eveningRE.MatchString(text):
		return PartOfDayEvening
	default:
		return PartOfDayAny
	}
}

// firstWeekday returns the weekday named earliest in text.
func firstWeekday(text string) (time.Weekday, bool) {
	m := weekdayRE.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	return weekdayByName[m[1]], true
}
