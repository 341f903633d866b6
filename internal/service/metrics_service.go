package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/class-timetable-api/internal/models"
)

// Solver outcome labels.
const (
	OutcomeFound      = "found"
	OutcomeNotFound   = "not_found"
	OutcomeInfeasible = "infeasible"
	OutcomeAborted    = "aborted"
	OutcomeCached     = "cached"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	solveDuration   *prometheus.HistogramVec
	solveOutcomes   *prometheus.CounterVec
	searchNodes     prometheus.Histogram
	storedSchedules prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	solveCount           uint64
	solveDurationTotal   uint64
	nodesTotal           uint64
	storedCount          int64

	outcomesMu sync.Mutex
	outcomes   map[string]uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Duration of timetable searches",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"mode"})

	solveOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solve_total",
		Help: "Timetable generation requests by outcome",
	}, []string{"mode", "outcome"})

	searchNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_search_nodes",
		Help:    "Search nodes visited per timetable search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	storedSchedules := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_stored_schedules",
		Help: "Generated timetables currently held in the result store",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		solveDuration, solveOutcomes, searchNodes, storedSchedules, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		solveDuration:   solveDuration,
		solveOutcomes:   solveOutcomes,
		searchNodes:     searchNodes,
		storedSchedules: storedSchedules,
		outcomes:        make(map[string]uint64),
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSolve records one generation attempt. Duration and nodes are only
// tracked for runs that actually searched.
func (m *MetricsService) ObserveSolve(mode, outcome string, duration time.Duration, nodes int) {
	if m == nil {
		return
	}
	m.solveOutcomes.WithLabelValues(mode, outcome).Inc()
	m.outcomesMu.Lock()
	m.outcomes[outcome]++
	m.outcomesMu.Unlock()

	if outcome == OutcomeInfeasible || outcome == OutcomeCached {
		return
	}
	m.solveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.searchNodes.Observe(float64(nodes))
	atomic.AddUint64(&m.solveCount, 1)
	atomic.AddUint64(&m.solveDurationTotal, uint64(duration.Nanoseconds()))
	atomic.AddUint64(&m.nodesTotal, uint64(nodes))
}

// SetStoredSchedules publishes the current size of the result store.
func (m *MetricsService) SetStoredSchedules(n int) {
	if m == nil {
		return
	}
	m.storedSchedules.Set(float64(n))
	atomic.StoreInt64(&m.storedCount, int64(n))
}

// Snapshot returns aggregated metrics for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{SolverOutcomes: map[string]uint64{}}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	solves := atomic.LoadUint64(&m.solveCount)
	solveDuration := atomic.LoadUint64(&m.solveDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgSolveMs float64
	if solves > 0 {
		avgSolveMs = float64(solveDuration) / float64(solves) / float64(time.Millisecond)
	}

	m.outcomesMu.Lock()
	outcomes := make(map[string]uint64, len(m.outcomes))
	var runs uint64
	for outcome, count := range m.outcomes {
		outcomes[outcome] = count
		runs += count
	}
	m.outcomesMu.Unlock()

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SolverRuns:               runs,
		SolverOutcomes:           outcomes,
		AverageSolveDurationMs:   avgSolveMs,
		NodesVisited:             atomic.LoadUint64(&m.nodesTotal),
		StoredSchedules:          int(atomic.LoadInt64(&m.storedCount)),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
