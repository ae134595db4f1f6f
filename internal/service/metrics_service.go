package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the generation pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	genDuration     *prometheus.HistogramVec
	genConflicts    *prometheus.CounterVec
	genSlots        *prometheus.HistogramVec
	optimizerSwaps  prometheus.Histogram
	advisorFallback prometheus.Counter
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

	genDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"year", "advisor"})

	genConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_conflicts_total",
		Help: "Conflicts reported by generation runs by category",
	}, []string{"year", "category"})

	genSlots := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_slots",
		Help:    "Slots placed per generation run",
		Buckets: []float64{5, 10, 20, 30, 40, 60, 80},
	}, []string{"year"})

	optimizerSwaps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_optimizer_swaps",
		Help:    "Swaps applied by the post-generation optimizer",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})

	advisorFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_advisor_fallbacks_total",
		Help: "Generation runs that fell back to the plain path after an advisor failure",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, genDuration, genConflicts, genSlots, optimizerSwaps, advisorFallback, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		genDuration:     genDuration,
		genConflicts:    genConflicts,
		genSlots:        genSlots,
		optimizerSwaps:  optimizerSwaps,
		advisorFallback: advisorFallback,
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

// ObserveGeneration records the outcome of one generation run.
func (m *MetricsService) ObserveGeneration(year string, advisorUsed bool, slots int, conflictsByCategory map[string]int, duration time.Duration) {
	if m == nil {
		return
	}
	advisorLabel := "off"
	if advisorUsed {
		advisorLabel = "on"
	}
	m.genDuration.WithLabelValues(year, advisorLabel).Observe(duration.Seconds())
	m.genSlots.WithLabelValues(year).Observe(float64(slots))
	for category, count := range conflictsByCategory {
		m.genConflicts.WithLabelValues(year, category).Add(float64(count))
	}
}

// ObserveOptimizerSwaps records swaps applied by the optimizer pass.
func (m *MetricsService) ObserveOptimizerSwaps(swaps int) {
	if m == nil {
		return
	}
	m.optimizerSwaps.Observe(float64(swaps))
}

// RecordAdvisorFallback counts a run that rebuilt without its advisor.
func (m *MetricsService) RecordAdvisorFallback() {
	if m == nil {
		return
	}
	m.advisorFallback.Inc()
}
