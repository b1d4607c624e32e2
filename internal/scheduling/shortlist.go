package scheduling

import "time"

// MaxShortlistSize is the number of options read back to a caller at once.
const MaxShortlistSize = 3

// Shortlist is the ordered set of slots currently offered to a caller.
// Indices are only meaningful for the offer that produced them.
type Shortlist struct {
	Slots     []Slot    `json:"slots"`
	OfferedAt time.Time `json:"offered_at"`
}

// NewShortlist keeps the first size free slots (capped at MaxShortlistSize).
func NewShortlist(free []Slot, size int, offeredAt time.Time) Shortlist {
	if size <= 0 || size > MaxShortlistSize {
		size = MaxShortlistSize
	}
	if len(free) < size {
		size = len(free)
	}
	slots := make([]Slot, size)
	copy(slots, free[:size])
	return Shortlist{Slots: slots, OfferedAt: offeredAt}
}

func (s Shortlist) IsEmpty() bool {
	return len(s.Slots) == 0
}

func (s Shortlist) Len() int {
	return len(s.Slots)
}

// At returns the slot at a zero-based index.
func (s Shortlist) At(index int) (Slot, bool) {
	if index < 0 || index >= len(s.Slots) {
		return Slot{}, false
	}
	return s.Slots[index], true
}
