// Package metrics exposes marketplace counters to Prometheus.
// All recording methods are safe on a nil *Metrics so services can run without metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "furamora"

type Metrics struct {
	reg *prometheus.Registry

	registrations      *prometheus.CounterVec
	logins             *prometheus.CounterVec
	bookingsCreated    prometheus.Counter
	bookingTransitions *prometheus.CounterVec
	reportsSubmitted   prometheus.Counter
	mirrorFailures     prometheus.Counter
	storeConflicts     *prometheus.CounterVec
}

// New builds the counters on a dedicated registry (plus Go/process collectors).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "registrations_total", Help: "Successful registrations by role.",
		}, []string{"role"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "logins_total", Help: "Login attempts by result.",
		}, []string{"result"}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "bookings_created_total", Help: "Bookings created by owners.",
		}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "booking_transitions_total", Help: "Booking status transitions by target status.",
		}, []string{"status"}),
		reportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reports_submitted_total", Help: "Walk reports submitted.",
		}),
		mirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "mirror_failures_total", Help: "Profile mirror writes that failed.",
		}),
		storeConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_conflicts_total", Help: "Record writes that lost a version race.",
		}, []string{"key"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.registrations, m.logins, m.bookingsCreated, m.bookingTransitions,
		m.reportsSubmitted, m.mirrorFailures, m.storeConflicts,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Registered(role string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(role).Inc()
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

func (m *Metrics) BookingTransition(status string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ReportSubmitted() {
	if m == nil {
		return
	}
	m.reportsSubmitted.Inc()
}

func (m *Metrics) MirrorFailed() {
	if m == nil {
		return
	}
	m.mirrorFailures.Inc()
}

func (m *Metrics) StoreConflict(key string) {
	if m == nil {
		return
	}
	m.storeConflicts.WithLabelValues(key).Inc()
}
