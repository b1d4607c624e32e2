package scheduling

import "errors"

var (
	// ErrCalendarUnavailable is returned when the external calendar could not
	// be queried (network, auth, quota or timeout).
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrNoFreeSlots marks a successful query that produced no candidates
	// after filtering. It is an outcome, not a failure.
	ErrNoFreeSlots = errors.New("no free slots")

	// ErrAmbiguousSelection is returned when a caller reply matches none of
	// the offered slots.
	ErrAmbiguousSelection = errors.New("ambiguous selection")

	// ErrSlotTaken is returned when the pre-commit re-check finds the chosen
	// slot occupied.
	ErrSlotTaken = errors.New("slot taken")

	// ErrBookingFailed is returned when the booking could not be committed
	// for any reason other than the slot being taken.
	ErrBookingFailed = errors.New("booking failed")

	// ErrNoShortlist is returned when selection or booking is attempted
	// without a freshly offered shortlist.
	ErrNoShortlist = errors.New("no shortlist offered")

	// ErrInvalidInterval is returned when an interval does not satisfy start < end.
	ErrInvalidInterval = errors.New("interval end must be after start")
)
