package scheduling

import "time"

// GridConfig describes the business calendar the slot grid is cut from.
// WorkStart and WorkEnd are wall-clock minutes after midnight in Location.
type GridConfig struct {
	Location       *time.Location
	WorkStart      int
	WorkEnd        int
	SlotMinutes    int
	MinLeadMinutes int
}

// GenerateSlots returns the business-hours slots for horizonDays days starting
// at the business-local date of from. Slots are built from wall-clock values
// in the business location, so a DST change never moves 09:00 to 08:00 or
// 10:00. A slot that would run past WorkEnd is not emitted. On day 0 only, no
// slot starts before from plus the lead-time buffer; later days always start
// at WorkStart.
func GenerateSlots(from time.Time, horizonDays int, cfg GridConfig) []Slot {
	if horizonDays <= 0 || cfg.SlotMinutes <= 0 || cfg.WorkEnd <= cfg.WorkStart {
		return nil
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	local := from.In(loc)
	floor := from.Add(time.Duration(cfg.MinLeadMinutes) * time.Minute)
	year, month, day := local.Date()

	perDay := (cfg.WorkEnd - cfg.WorkStart) / cfg.SlotMinutes
	out := make([]Slot, 0, perDay*horizonDays)
	for i := 0; i < horizonDays; i++ {
		for offset := cfg.WorkStart; offset+cfg.SlotMinutes <= cfg.WorkEnd; offset += cfg.SlotMinutes {
			start := time.Date(year, month, day+i, 0, offset, 0, 0, loc)
			if i == 0 && start.Before(floor) {
				continue
			}
			end := time.Date(year, month, day+i, 0, offset+cfg.SlotMinutes, 0, 0, loc)
			out = append(out, Slot{TimeInterval{Start: start, End: end}})
		}
	}
	return out
}
