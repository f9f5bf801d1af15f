// Package metrics exposes Prometheus HTTP and pipeline metrics.
// Every method is safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "crm"

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge

	// Pipeline metrics, refreshed by the pipeline metrics job
	PipelineDeals         *prometheus.GaugeVec
	PipelineValue         *prometheus.GaugeVec
	PipelineWeightedValue *prometheus.GaugeVec

	// Business metrics
	DealStageMoves      *prometheus.CounterVec
	LeadsConverted      prometheus.Counter
	ActivitiesCompleted prometheus.Counter

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests",
		}),

		PipelineDeals: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_deals",
				Help:      "Number of deals per pipeline stage",
			},
			[]string{"stage"},
		),
		PipelineValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_value",
				Help:      "Total deal value per pipeline stage",
			},
			[]string{"stage"},
		),
		PipelineWeightedValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_weighted_value",
				Help:      "Probability-weighted deal value per pipeline stage",
			},
			[]string{"stage"},
		),

		DealStageMoves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deal_stage_moves_total",
				Help:      "Deal stage changes by source and target stage",
			},
			[]string{"from", "to"},
		),
		LeadsConverted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_converted_total",
			Help:      "Leads converted to deals",
		}),
		ActivitiesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_completed_total",
			Help:      "Activities marked as completed",
		}),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Report cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Report cache misses",
			},
			[]string{"cache"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records request count, latency and in-flight requests. Requests
// are labelled with the chi route pattern so path parameters do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// SetStage publishes the current totals for one pipeline stage
func (m *Metrics) SetStage(stage string, count int64, value, weighted decimal.Decimal) {
	if m == nil {
		return
	}
	m.PipelineDeals.WithLabelValues(stage).Set(float64(count))
	m.PipelineValue.WithLabelValues(stage).Set(value.InexactFloat64())
	m.PipelineWeightedValue.WithLabelValues(stage).Set(weighted.InexactFloat64())
}

// RecordStageMove counts a deal moving between stages
func (m *Metrics) RecordStageMove(from, to string) {
	if m == nil {
		return
	}
	m.DealStageMoves.WithLabelValues(from, to).Inc()
}

// RecordLeadConverted counts a lead conversion
func (m *Metrics) RecordLeadConverted() {
	if m == nil {
		return
	}
	m.LeadsConverted.Inc()
}

// RecordActivityCompleted counts an activity transitioning to completed
func (m *Metrics) RecordActivityCompleted() {
	if m == nil {
		return
	}
	m.ActivitiesCompleted.Inc()
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}
