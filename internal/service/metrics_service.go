package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the outcome label.
const (
	OutcomeSuccess    = "success"
	OutcomeIncomplete = "incomplete"
	OutcomeRolledBack = "rolled_back"
	OutcomeError      = "error"
	OutcomeRejected   = "rejected"
)

// MetricsService owns the Prometheus registry of the service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	sectionsPlaced    prometheus.Gauge
	sectionsLeft      prometheus.Gauge
	commitFailures    prometheus.Counter
	runsInFlight      prometheus.Gauge
	queuedRunsTotal   prometheus.Counter
	eventsFailedTotal prometheus.Counter
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Scheduling runs by outcome",
		}, []string{"outcome", "policy"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_run_duration_seconds",
			Help:    "Wall time of scheduling runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		sectionsPlaced: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_last_run_scheduled_sections",
			Help: "Sections placed by the most recent run",
		}),
		sectionsLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_last_run_unscheduled_sections",
			Help: "Sections left unscheduled by the most recent run",
		}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_commit_failures_total",
			Help: "Assignment writes that failed and were rolled back",
		}),
		runsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_runs_in_flight",
			Help: "Runs currently executing",
		}),
		queuedRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_queued_runs_total",
			Help: "Runs accepted onto the background queue",
		}),
		eventsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_event_publish_failures_total",
			Help: "Schedule completion events that could not be published",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheHits, m.cacheMisses,
		m.runsTotal, m.runDuration, m.sectionsPlaced, m.sectionsLeft,
		m.commitFailures, m.runsInFlight, m.queuedRunsTotal, m.eventsFailedTotal,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RunStarted marks a run in flight.
func (m *MetricsService) RunStarted() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// RunFinished records the outcome of a run that reached the scheduler.
func (m *MetricsService) RunFinished(outcome, policy string, duration time.Duration, scheduled, unscheduled, commitFailures int) {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()
	m.runsTotal.WithLabelValues(outcome, policy).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.sectionsPlaced.Set(float64(scheduled))
	m.sectionsLeft.Set(float64(unscheduled))
	m.commitFailures.Add(float64(commitFailures))
}

// RunRejected counts a run refused before it started.
func (m *MetricsService) RunRejected(policy string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(OutcomeRejected, policy).Inc()
}

func (m *MetricsService) RunQueued() {
	if m == nil {
		return
	}
	m.queuedRunsTotal.Inc()
}

func (m *MetricsService) EventPublishFailed() {
	if m == nil {
		return
	}
	m.eventsFailedTotal.Inc()
}
