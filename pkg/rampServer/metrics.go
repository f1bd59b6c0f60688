package rampServer

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ramp",
			Subsystem: "dev_server",
			Name:      "requests_total",
			Help:      "Number of RPC requests by procedure and HTTP status",
		}, []string{"procedure", "code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ramp",
			Subsystem: "dev_server",
			Name:      "request_duration_seconds",
			Help:      "RPC request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code", "method"}),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

func (m *metrics) instrument(procedure string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"procedure": procedure}
	return promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels),
		promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(labels), next))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
