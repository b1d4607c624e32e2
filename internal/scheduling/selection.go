package scheduling

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SelectionStage names the matcher stage that resolved a reply.
type SelectionStage string

const (
	StageDigits  SelectionStage = "dtmf"
	StageOrdinal SelectionStage = "ordinal"
	StageNatural SelectionStage = "natural"
	StageNone    SelectionStage = "none"
)

// Selection is a resolved index into the offered shortlist.
type Selection struct {
	Index int            `json:"index"`
	Stage SelectionStage `json:"stage"`
}

// weekdayPenalty is the score added per day of circular weekday distance.
// It exceeds any possible minute difference so weekday agreement dominates.
const weekdayPenalty = 1000

var ordinalWords = map[string]int{
	"one": 0, "first": 0, "1": 0, "1st": 0,
	"two": 1, "second": 1, "2": 1, "2nd": 1,
	"three": 2, "third": 2, "3": 2, "3rd": 2,
}

// Words that make a following "one" a pronoun ("that one", "the earlier one").
var pronounOneDeterminers = map[string]bool{
	"the": true, "that": true, "this": true, "which": true, "a": true, "any": true,
	"another": true, "earlier": true, "later": true, "last": true, "next": true, "other": true,
}

var (
	tokenRE = regexp.MustCompile(`[a-z0-9:.']+`)

	meridiemTimeRE = regexp.MustCompile(`\b(1[0-2]|0?[1-9])(?:[:.]([0-5][0-9]))?\s*(a\.?\s?m\b\.?|p\.?\s?m\b\.?)`)
	bareTimeRE     = regexp.MustCompile(`\b([01]?[0-9]|2[0-3])(?:[:.]([0-5][0-9]))?\b`)
	noonRE         = regexp.MustCompile(`\bnoon\b`)
	weekdayWordRE  = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)

	// A spoken hour counts as a clock time only after "at" or before
	// o'clock or a meridiem.
	spokenHourRE = regexp.MustCompile(`\b(at\s+)?(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b(\s*(?:o'?clock|a\.?\s?m\b\.?|p\.?\s?m\b\.?))?`)
)

var hourWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// MatchDigits resolves a keypad entry ("1".."3") to a shortlist index.
func MatchDigits(digits string, shortlist Shortlist) (Selection, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil || n < 1 || n > shortlist.Len() {
		return Selection{Index: -1, Stage: StageNone}, false
	}
	return Selection{Index: n - 1, Stage: StageDigits}, true
}

// MatchSelection resolves a caller reply to an index into the shortlist.
// An explicit option number is tried first; a restated day and/or time is
// the fallback. It never guesses: a reply with neither an option number nor
// a day or time yields no match.
func MatchSelection(utterance string, shortlist Shortlist, loc *time.Location) (Selection, bool) {
	if shortlist.IsEmpty() {
		return Selection{Index: -1, Stage: StageNone}, false
	}
	if idx, ok := MatchOrdinal(utterance); ok && idx < shortlist.Len() {
		return Selection{Index: idx, Stage: StageOrdinal}, true
	}
	if idx, ok := MatchNatural(utterance, shortlist, loc); ok {
		return Selection{Index: idx, Stage: StageNatural}, true
	}
	return Selection{Index: -1, Stage: StageNone}, false
}

// MatchOrdinal recognises "one/first/1", "two/second/2" and "three/third/3",
// optionally after "option" or "number". The transcription artifacts "to"
// and "too" count as two only when they are the whole reply or follow
// "option"/"number". A number used as a clock time ("2 pm", "at two",
// "three o'clock") is not an ordinal.
func MatchOrdinal(utterance string) (int, bool) {
	tokens := tokenize(utterance)
	if len(tokens) == 1 && (tokens[0] == "to" || tokens[0] == "too") {
		return 1, true
	}
	for i, tok := range tokens {
		prev, next := "", ""
		if i > 0 {
			prev = tokens[i-1]
		}
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}

		if tok == "to" || tok == "too" {
			if prev == "option" || prev == "number" {
				return 1, true
			}
			continue
		}
		idx, ok := ordinalWords[tok]
		if !ok {
			continue
		}
		if tok == "one" && pronounOneDeterminers[prev] {
			continue
		}
		if (isDigits(tok) || hourWords[tok] > 0) && clockPosition(prev, next) {
			continue
		}
		return idx, true
	}
	return -1, false
}

// MatchNatural scores every shortlist slot against the weekday and clock
// time stated in the reply. Weekday distance costs weekdayPenalty per day;
// time distance costs one point per minute. The lowest score wins and ties
// go to the earlier index.
func MatchNatural(utterance string, shortlist Shortlist, loc *time.Location) (int, bool) {
	if shortlist.IsEmpty() {
		return -1, false
	}
	if loc == nil {
		loc = time.UTC
	}
	text := spokenHoursToDigits(strings.ToLower(utterance))

	wd, hasWeekday := statedWeekday(text)
	target, hasTime := statedTime(text)
	if !hasWeekday && !hasTime {
		return -1, false
	}

	bestIdx, bestScore := -1, 0
	for i, slot := range shortlist.Slots {
		local := slot.Start.In(loc)
		score := 0
		if hasWeekday {
			score += weekdayDistance(local.Weekday(), wd) * weekdayPenalty
		}
		if hasTime {
			score += target.distance(local.Hour()*60 + local.Minute())
		}
		if bestIdx < 0 || score < bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestIdx >= 0
}

// statedClock is a time of day taken from a reply. Ambiguous bare hours
// ("at 2") carry both readings and score against the nearer one.
type statedClock struct {
	minutes   int
	alternate int
	ambiguous bool
}

func (c statedClock) distance(slotMinutes int) int {
	d := absInt(slotMinutes - c.minutes)
	if c.ambiguous {
		if alt := absInt(slotMinutes - c.alternate); alt < d {
			d = alt
		}
	}
	return d
}

func statedTime(text string) (statedClock, bool) {
	if m := meridiemTimeRE.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		pm := strings.HasPrefix(m[3], "p")
		if pm && hour < 12 {
			hour += 12
		}
		if !pm && hour == 12 {
			hour = 0
		}
		return statedClock{minutes: hour*60 + minute}, true
	}
	if noonRE.MatchString(text) {
		return statedClock{minutes: 12 * 60}, true
	}
	if m := bareTimeRE.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		c := statedClock{minutes: hour*60 + minute}
		if hour >= 1 && hour < 12 {
			c.alternate = (hour+12)*60 + minute
			c.ambiguous = true
		}
		return c, true
	}
	if part := partOfDayIn(text); part != PartOfDayAny {
		start, end, _ := part.Hours()
		return statedClock{minutes: (start + end) * 60 / 2}, true
	}
	return statedClock{}, false
}

// spokenHoursToDigits rewrites "at two" and "four p.m." as "at 2" and
// "4 p.m." so the clock patterns can read them. Other number words stay.
func spokenHoursToDigits(text string) string {
	return spokenHourRE.ReplaceAllStringFunc(text, func(match string) string {
		m := spokenHourRE.FindStringSubmatch(match)
		if m[1] == "" && m[3] == "" {
			return match
		}
		return m[1] + strconv.Itoa(hourWords[m[2]]) + m[3]
	})
}

func clockPosition(prev, next string) bool {
	return prev == "at" || isMeridiem(next) || next == "o'clock" || next == "oclock"
}

func statedWeekday(text string) (time.Weekday, bool) {
	m := weekdayWordRE.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	return weekdayByName[m[1]], true
}

func weekdayDistance(a, b time.Weekday) int {
	d := absInt(int(a) - int(b))
	if 7-d < d {
		return 7 - d
	}
	return d
}

func tokenize(utterance string) []string {
	raw := tokenRE.FindAllString(strings.ToLower(utterance), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimRight(tok, ".")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func isMeridiem(tok string) bool {
	switch strings.ReplaceAll(tok, ".", "") {
	case "am", "pm", "a", "p":
		return true
	default:
		return false
	}
}

func isDigits(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
