package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveCalendarCall("freebusy_range", time.Now(), nil)
	m.ObserveCalendarCall("insert_event", time.Now(), errors.New("quota"))
	m.ObserveBooking("committed")
	m.ObserveBooking("slot_taken")
	m.ObserveSelection("ordinal")

	if got := testutil.ToFloat64(m.calendarCalls.WithLabelValues("insert_event", "error")); got != 1 {
		t.Fatalf("expected one failed insert, got %v", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("committed")); got != 1 {
		t.Fatalf("expected one committed booking, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]*dto.MetricFamily{}
	for _, f := range families {
		names[f.GetName()] = f
	}
	for _, want := range []string{
		"receptionist_scheduling_calendar_calls_total",
		"receptionist_scheduling_calendar_call_seconds",
		"receptionist_scheduling_bookings_total",
		"receptionist_scheduling_selection_total",
	} {
		if _, ok := names[want]; !ok {
			t.Fatalf("expected metric family %s to be registered", want)
		}
	}
	if got := names["receptionist_scheduling_calendar_call_seconds"].GetMetric(); len(got) != 2 {
		t.Fatalf("expected histogram series for 2 ops, got %d", len(got))
	}
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveCalendarCall("freebusy_point", time.Now(), nil)
	m.ObserveBooking("failed")
	m.ObserveSelection("none")
}
