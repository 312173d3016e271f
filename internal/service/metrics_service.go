package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the generation pipeline.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	generationRuns     *prometheus.CounterVec
	generationDuration prometheus.Observer
	generationAttempts prometheus.Observer
	lastRunConflicts   prometheus.Gauge
	lastRunPlaced      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Total timetable generation runs by outcome",
	}, []string{"outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of full generation runs",
		Buckets: prometheus.DefBuckets,
	})

	generationAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_attempts",
		Help:    "Placement attempts consumed per generation run",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 10},
	})

	lastRunConflicts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_run_conflicts",
		Help: "Conflicts reported by the most recent generation run",
	})

	lastRunPlaced := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_run_assignments",
		Help: "Assignments placed by the most recent generation run",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cache_hits_total",
		Help: "Total report cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_cache_misses_total",
		Help: "Total report cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, generationRuns, generationDuration, generationAttempts, lastRunConflicts, lastRunPlaced, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		generationRuns:     generationRuns,
		generationDuration: generationDuration,
		generationAttempts: generationAttempts,
		lastRunConflicts:   lastRunConflicts,
		lastRunPlaced:      lastRunPlaced,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
	}
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveGenerationRun records the outcome and cost of one generation run.
func (m *MetricsService) ObserveGenerationRun(outcome string, duration time.Duration, attempts, conflicts, placed int) {
	if m == nil {
		return
	}
	m.generationRuns.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	m.generationAttempts.Observe(float64(attempts))
	m.lastRunConflicts.Set(float64(conflicts))
	m.lastRunPlaced.Set(float64(placed))
}

// RecordCacheOperation counts report cache lookups.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
