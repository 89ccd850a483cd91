package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder tracks dashboard fetches and actions using Prometheus.
// Each Recorder owns its registry so tests and multiple instances never collide.
type Recorder struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	refreshes   prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdash_requests_total",
				Help: "Total number of requests sent to the analytics service",
			},
			[]string{"operation", "symbol"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdash_errors_total",
				Help: "Total number of failed requests",
			},
			[]string{"operation"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantdash_last_price",
				Help: "Last fetched price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantdash_request_duration_seconds",
				Help:    "Duration of analytics service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		refreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "quantdash_refresh_cycles_total",
			Help: "Completed base refresh cycles",
		}),
	}
}

// ObserveRequest records one request, its duration and whether it failed.
func (r *Recorder) ObserveRequest(op, symbol string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(op, symbol).Inc()
	r.latency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		r.errorsTotal.WithLabelValues(op).Inc()
	}
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordRefresh counts a completed base refresh cycle.
func (r *Recorder) RecordRefresh() {
	if r == nil {
		return
	}
	r.refreshes.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
