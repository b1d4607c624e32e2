package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics exposes counters/histograms for availability and booking flows.
type SchedulingMetrics struct {
	calendarCalls   *prometheus.CounterVec
	calendarLatency *prometheus.HistogramVec
	bookingsTotal   *prometheus.CounterVec
	selectionTotal  *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		calendarCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "scheduling",
			Name:      "calendar_calls_total",
			Help:      "Total calls to the external calendar",
		}, []string{"op", "status"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "receptionist",
			Subsystem: "scheduling",
			Name:      "calendar_call_seconds",
			Help:      "Latency of external calendar calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome (committed, slot_taken, failed)",
		}, []string{"outcome"}),
		selectionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "receptionist",
			Subsystem: "scheduling",
			Name:      "selection_total",
			Help:      "Shortlist selections by the matcher stage that resolved them",
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.calendarCalls, m.calendarLatency, m.bookingsTotal, m.selectionTotal)
	return m
}

// ObserveCalendarCall records one calendar round trip. op is one of
// freebusy_range, freebusy_point, insert_event.
func (m *SchedulingMetrics) ObserveCalendarCall(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.calendarCalls.WithLabelValues(op, status).Inc()
	m.calendarLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveSelection(stage string) {
	if m == nil {
		return
	}
	m.selectionTotal.WithLabelValues(stage).Inc()
}
