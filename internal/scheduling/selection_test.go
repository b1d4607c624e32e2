package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offeredShortlist(t *testing.T) (Shortlist, *time.Location) {
	t.Helper()
	loc := newYork(t)
	slots := []Slot{
		slotAt(loc, 2026, time.October, 12, 9, 0, 60),  // Monday 9 a.m.
		slotAt(loc, 2026, time.October, 14, 14, 0, 60), // Wednesday 2 p.m.
		slotAt(loc, 2026, time.October, 14, 16, 0, 60), // Wednesday 4 p.m.
	}
	return NewShortlist(slots, 3, at(loc, 2026, time.October, 11, 10, 0)), loc
}

func TestMatchSelection(t *testing.T) {
	shortlist, loc := offeredShortlist(t)

	cases := []struct {
		utterance string
		index     int
		stage     SelectionStage
	}{
		{"two", 1, StageOrdinal},
		{"Option two please", 1, StageOrdinal},
		{"the first one", 0, StageOrdinal},
		{"I'll take number 3.", 2, StageOrdinal},
		{"second", 1, StageOrdinal},
		{"too", 1, StageOrdinal},
		{"option to", 1, StageOrdinal},
		{"Wednesday afternoon", 1, StageNatural},
		{"wednesday at 4 pm", 2, StageNatural},
		{"Wednesday 4:00 p.m.", 2, StageNatural},
		{"the 9 a.m.", 0, StageNatural},
		{"2 pm works", 1, StageNatural},
		{"at 2", 1, StageNatural},
		{"Monday", 0, StageNatural},
		{"wednesday", 1, StageNatural},
		{"how about 15:45", 2, StageNatural},
		{"Wednesday at two pm", 1, StageNatural},
		{"wednesday at four p.m.", 2, StageNatural},
		{"one o'clock", 1, StageNatural},
	}
	for _, tc := range cases {
		t.Run(tc.utterance, func(t *testing.T) {
			got, ok := MatchSelection(tc.utterance, shortlist, loc)
			require.True(t, ok)
			assert.Equal(t, tc.index, got.Index)
			assert.Equal(t, tc.stage, got.Stage)
		})
	}
}

func TestMatchSelectionNeverGuesses(t *testing.T) {
	shortlist, loc := offeredShortlist(t)

	for _, utterance := range []string{
		"sounds good",
		"",
		"I want to book",
		"that one",
		"hmm let me think",
	} {
		t.Run(utterance, func(t *testing.T) {
			got, ok := MatchSelection(utterance, shortlist, loc)
			assert.False(t, ok)
			assert.Equal(t, -1, got.Index)
			assert.Equal(t, StageNone, got.Stage)
		})
	}
}

func TestMatchSelectionRejectsOrdinalBeyondShortlist(t *testing.T) {
	shortlist, loc := offeredShortlist(t)
	shortlist.Slots = shortlist.Slots[:2]

	_, ok := MatchSelection("three", shortlist, loc)
	assert.False(t, ok)
}

func TestMatchSelectionIsDeterministic(t *testing.T) {
	shortlist, loc := offeredShortlist(t)

	first, ok := MatchSelection("Wednesday afternoon", shortlist, loc)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := MatchSelection("Wednesday afternoon", shortlist, loc)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestMatchSelectionEmptyShortlist(t *testing.T) {
	_, ok := MatchSelection("one", Shortlist{}, time.UTC)
	assert.False(t, ok)
}

func TestMatchDigits(t *testing.T) {
	shortlist, _ := offeredShortlist(t)

	got, ok := MatchDigits("2", shortlist)
	require.True(t, ok)
	assert.Equal(t, Selection{Index: 1, Stage: StageDigits}, got)

	for _, digits := range []string{"0", "4", "#", "", "12"} {
		_, ok := MatchDigits(digits, shortlist)
		assert.False(t, ok, "digits %q", digits)
	}
}

func TestSpokenHoursToDigits(t *testing.T) {
	cases := map[string]string{
		"wednesday at two pm":   "wednesday at 2 pm",
		"four p.m. is fine":     "4 p.m. is fine",
		"eleven o'clock":        "11 o'clock",
		"option two please":     "option two please",
		"the first one is fine": "the first one is fine",
	}
	for in, want := range cases {
		assert.Equal(t, want, spokenHoursToDigits(in), in)
	}
}

func TestMatchNaturalScoresWeekdayAboveTime(t *testing.T) {
	shortlist, loc := offeredShortlist(t)

	// Monday is the only weekday match, so it wins despite a 7-hour gap.
	idx, ok := MatchNatural("monday at 4pm", shortlist, loc)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestMatchOrdinalIgnoresClockTimes(t *testing.T) {
	cases := map[string]bool{
		"2 pm":          false,
		"at 3":          false,
		"3 o'clock":     false,
		"two pm":        false,
		"at three":      false,
		"one o'clock":   false,
		"option two":    true,
		"option 3":      true,
		"go with 1":     true,
		"the other one": false,
	}
	for utterance, want := range cases {
		_, ok := MatchOrdinal(utterance)
		assert.Equal(t, want, ok, utterance)
	}
}
