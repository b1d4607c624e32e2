package gcal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/ai-receptionist/internal/scheduling"
)

// MemoryCalendar is an in-process calendar used for demos and tests.
// Inserted events become busy time for later queries.
type MemoryCalendar struct {
	mu      sync.Mutex
	busy    []scheduling.TimeInterval
	events  []StoredEvent
	queries int
}

// StoredEvent is an event inserted into a MemoryCalendar.
type StoredEvent struct {
	ID string
	scheduling.EventRequest
}

var _ scheduling.Calendar = (*MemoryCalendar)(nil)

// NewMemoryCalendar seeds the calendar with pre-existing busy intervals.
func NewMemoryCalendar(busy ...scheduling.TimeInterval) *MemoryCalendar {
	return &MemoryCalendar{busy: append([]scheduling.TimeInterval(nil), busy...)}
}

// AddBusy marks an interval as occupied.
func (m *MemoryCalendar) AddBusy(iv scheduling.TimeInterval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = append(m.busy, iv)
}

// QueryBusy returns busy intervals intersecting [timeMin, timeMax).
func (m *MemoryCalendar) QueryBusy(ctx context.Context, timeMin, timeMax time.Time, _ string) ([]scheduling.TimeInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	window := scheduling.TimeInterval{Start: timeMin, End: timeMax}
	var out []scheduling.TimeInterval
	for _, iv := range m.busy {
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// InsertEvent stores the event and blocks its interval.
func (m *MemoryCalendar) InsertEvent(ctx context.Context, req scheduling.EventRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.events = append(m.events, StoredEvent{ID: id, EventRequest: req})
	m.busy = append(m.busy, scheduling.TimeInterval{Start: req.Start, End: req.End})
	return id, nil
}

// Events returns a copy of the inserted events.
func (m *MemoryCalendar) Events() []StoredEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StoredEvent(nil), m.events...)
}

// QueryCount reports how many freebusy queries have been served.
func (m *MemoryCalendar) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}
