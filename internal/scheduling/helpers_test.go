package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func at(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func slotAt(loc *time.Location, year int, month time.Month, day, hour, minute, lengthMinutes int) Slot {
	start := at(loc, year, month, day, hour, minute)
	return Slot{TimeInterval{Start: start, End: start.Add(time.Duration(lengthMinutes) * time.Minute)}}
}

type busyQuery struct {
	timeMin  time.Time
	timeMax  time.Time
	timezone string
}

// fakeCalendar answers freebusy from a fixed busy list, clipped to the query
// range the way a real calendar would.
type fakeCalendar struct {
	mu        sync.Mutex
	busy      []TimeInterval
	queryErr  error
	insertErr error
	eventID   string
	queries   []busyQuery
	inserts   []EventRequest
}

func (f *fakeCalendar) QueryBusy(_ context.Context, timeMin, timeMax time.Time, timezone string) ([]TimeInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, busyQuery{timeMin: timeMin, timeMax: timeMax, timezone: timezone})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	window := TimeInterval{Start: timeMin, End: timeMax}
	var out []TimeInterval
	for _, b := range f.busy {
		if b.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, event EventRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, event)
	if f.insertErr != nil {
		return "", f.insertErr
	}
	if f.eventID == "" {
		return "evt-1", nil
	}
	return f.eventID, nil
}

func (f *fakeCalendar) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeCalendar) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserts)
}
