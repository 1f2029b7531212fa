package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskchamp"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	GatewayOps    *prometheus.CounterVec
	StaleResults  *prometheus.CounterVec
	RefreshPolls  prometheus.Histogram
	ActiveClients prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		GatewayOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_operations_total",
			Help:      "Gateway operations by name and result.",
		}, []string{"op", "result"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewstate_stale_results_total",
			Help:      "Fetch results dropped because a newer request superseded them.",
		}, []string{"slice"}),
		RefreshPolls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_consistency_polls",
			Help:      "Polls needed before a day refresh was observed as consistent.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}),
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
	}
	reg.MustRegister(
		m.HTTPRequests, m.HTTPDuration, m.GatewayOps, m.StaleResults, m.RefreshPolls, m.ActiveClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOp counts one gateway operation. Safe on a nil receiver.
func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.GatewayOps.WithLabelValues(op, result).Inc()
}

// ObserveStale counts a dropped view-state result. Safe on a nil receiver.
func (m *Metrics) ObserveStale(slice string) {
	if m == nil {
		return
	}
	m.StaleResults.WithLabelValues(slice).Inc()
}

// ObserveRefreshPolls records how many polls a refresh took. Safe on a nil receiver.
func (m *Metrics) ObserveRefreshPolls(n int) {
	if m == nil {
		return
	}
	m.RefreshPolls.Observe(float64(n))
}
