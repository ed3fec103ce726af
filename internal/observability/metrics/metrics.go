package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking lifecycle.
type BookingMetrics struct {
	submissions *prometheus.CounterVec
	transitions *prometheus.CounterVec
	lockWait    prometheus.Histogram
	dropped     prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "transitions_total",
			Help:      "Accepted lifecycle transitions",
		}, []string{"transition"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for a (staff, date) lock",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "notify",
			Name:      "dropped_total",
			Help:      "Notifications dropped because the dispatch queue was full",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.transitions, m.lockWait, m.dropped)
	return m
}

// ObserveSubmission records a submit outcome: created, conflict, invalid, error.
func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(transition string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition).Inc()
}

func (m *BookingMetrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.lockWait.Observe(seconds)
}

func (m *BookingMetrics) ObserveDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
