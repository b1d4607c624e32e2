package scheduling

import (
	"fmt"
	"time"
)

// TimeInterval is a half-open range [Start, End) between two instants.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval validates start < end.
func NewInterval(start, end time.Time) (TimeInterval, error) {
	if !end.After(start) {
		return TimeInterval{}, fmt.Errorf("scheduling: [%s, %s): %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), ErrInvalidInterval)
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (i TimeInterval) Overlaps(o TimeInterval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Slot is one offerable appointment window of fixed length.
type Slot struct {
	TimeInterval
}

// In returns the slot with both instants expressed in loc.
func (s Slot) In(loc *time.Location) Slot {
	return Slot{TimeInterval{Start: s.Start.In(loc), End: s.End.In(loc)}}
}

func overlapsAny(slot Slot, busy []TimeInterval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}
