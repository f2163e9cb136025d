// Package metrics owns the Prometheus registry. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	remindersSent    prometheus.Counter
	remindersFailed  prometheus.Counter
	remindersSkipped prometheus.Counter
	remindersOrphans prometheus.Counter
	sweepDuration    prometheus.Histogram
	sweepsBusy       prometheus.Counter
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder emails delivered",
		}),
		remindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Reminder deliveries that failed and will be retried",
		}),
		remindersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_skipped_total",
			Help: "Due reminders skipped because their task no longer wants one",
		}),
		remindersOrphans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_orphaned_total",
			Help: "Reminders removed because their task was deleted",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_sweep_duration_seconds",
			Help:    "Duration of reminder sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		sweepsBusy: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_sweeps_skipped_total",
			Help: "Sweeps not started because another sweep held the lock",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.remindersSent,
		m.remindersFailed,
		m.remindersSkipped,
		m.remindersOrphans,
		m.sweepDuration,
		m.sweepsBusy,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ReminderSent() {
	if m != nil {
		m.remindersSent.Inc()
	}
}

func (m *Metrics) ReminderFailed() {
	if m != nil {
		m.remindersFailed.Inc()
	}
}

func (m *Metrics) RemindersSkipped(n int) {
	if m != nil {
		m.remindersSkipped.Add(float64(n))
	}
}

func (m *Metrics) RemindersOrphaned(n int) {
	if m != nil {
		m.remindersOrphans.Add(float64(n))
	}
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m != nil {
		m.sweepDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) SweepBusy() {
	if m != nil {
		m.sweepsBusy.Inc()
	}
}
