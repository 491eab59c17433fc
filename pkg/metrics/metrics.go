package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slated-ai/slated/pkg/models"
)

// Metrics exposes broker and request instrumentation on its own registry, so
// independent brokers in one process (or test) never collide.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHitsTotal  prometheus.Counter
}

// New builds the collector set. stats feeds the queue gauges on scrape.
func New(stats func() models.QueueStats) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slated_assist_requests_total",
			Help: "Completed assist requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slated_assist_request_duration_seconds",
			Help:    "End-to-end assist request duration, queue wait included.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"kind"}),
		cacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "slated_assist_cache_hits_total",
			Help: "Assist requests served from the response cache.",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "slated_broker_queue_length",
		Help: "Requests waiting for admission.",
	}, func() float64 { return float64(stats().QueueLength) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "slated_broker_in_flight",
		Help: "Backend calls currently in flight.",
	}, func() float64 { return float64(stats().InFlightCount) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "slated_broker_cache_entries",
		Help: "Resident response cache entries.",
	}, func() float64 { return float64(stats().CacheSize) })

	return m
}

// ObserveRequest records one completed assist request.
func (m *Metrics) ObserveRequest(kind, outcome string, cached bool, d time.Duration) {
	m.requestsTotal.WithLabelValues(kind, outcome).Inc()
	m.requestDuration.WithLabelValues(kind).Observe(d.Seconds())
	if cached {
		m.cacheHitsTotal.Inc()
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
