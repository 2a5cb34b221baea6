// Package metrics provides Prometheus metrics collection for the scheduler.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the scheduler's Prometheus collectors.
type Metrics struct {
	JobsCreated   *prometheus.CounterVec
	JobsFinished  *prometheus.CounterVec
	JobsRecurred  prometheus.Counter
	ResolverFails *prometheus.CounterVec

	QueueLength      prometheus.Gauge
	RewardEscrowed   prometheus.Gauge
	AccountsInUse    prometheus.Gauge
	RequestDuration  *prometheus.HistogramVec
	ErrorsTotal      *prometheus.CounterVec
}

// New creates a Metrics instance registered against the default registerer.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer,
// or unregistered when registerer is nil (used by tests that want isolated
// collectors).
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_jobs_created_total",
				Help: "Total number of jobs created.",
			},
			[]string{"service"},
		),
		JobsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_jobs_finished_total",
				Help: "Total number of jobs that reached a terminal status, by status.",
			},
			[]string{"service", "status"},
		),
		JobsRecurred: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scheduler_jobs_recurred_total",
				Help: "Total number of recurring jobs successfully re-enqueued.",
			},
		),
		ResolverFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_resolver_failures_total",
				Help: "Total number of resolver failures, by stage.",
			},
			[]string{"service", "stage"},
		),
		QueueLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scheduler_queue_length",
				Help: "Current number of pending jobs (q).",
			},
		),
		RewardEscrowed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scheduler_reward_escrowed",
				Help: "Current total reward held in escrow across all pending jobs.",
			},
		),
		AccountsInUse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scheduler_subaccounts_in_use",
				Help: "Current number of occupied sub-accounts.",
			},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scheduler_request_duration_seconds",
				Help:    "Boundary request duration in seconds, by operation.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"service", "operation"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_errors_total",
				Help: "Total number of boundary-level errors, by code.",
			},
			[]string{"service", "code"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.JobsCreated,
			m.JobsFinished,
			m.JobsRecurred,
			m.ResolverFails,
			m.QueueLength,
			m.RewardEscrowed,
			m.AccountsInUse,
			m.RequestDuration,
			m.ErrorsTotal,
		)
	}

	return m
}

// RecordJobCreated increments the creation counter for service.
func (m *Metrics) RecordJobCreated(service string) {
	m.JobsCreated.WithLabelValues(service).Inc()
}

// RecordJobFinished increments the finished counter for service and status.
func (m *Metrics) RecordJobFinished(service, status string) {
	m.JobsFinished.WithLabelValues(service, status).Inc()
}

// RecordResolverFailure increments the resolver failure counter for stage.
func (m *Metrics) RecordResolverFailure(service, stage string) {
	m.ResolverFails.WithLabelValues(service, stage).Inc()
}

// RecordError increments the boundary error counter for code.
func (m *Metrics) RecordError(service, code string) {
	m.ErrorsTotal.WithLabelValues(service, code).Inc()
}

// SetQueueLength sets the current pending-job gauge.
func (m *Metrics) SetQueueLength(q uint64) {
	m.QueueLength.Set(float64(q))
}

// Global metrics instance, lazily initialized by Init/Global, mirroring a
// process-wide default collector exposed once per process.
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes and returns the global metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance, initializing a default one
// under the "scheduler" service name if Init was never called.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = New("scheduler")
	}
	return globalMetrics
}
