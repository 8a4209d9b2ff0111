// Package metrics holds the Prometheus collectors for intake, dispatch and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels used by the inbound and outbound counters.
const (
	OutcomeStored   = "stored"
	OutcomeFailed   = "failed"
	OutcomeSent     = "sent"
	OutcomeRejected = "rejected"
)

// unmatchedEndpoint labels requests served by the fallback route.
const unmatchedEndpoint = "unmatched"

// Metrics is a set of collectors registered on one registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	inboundMessages  *prometheus.CounterVec
	outboundMessages *prometheus.CounterVec
	outboundLatency  *prometheus.HistogramVec

	activeRESTConnections prometheus.Gauge
	restRequests          *prometheus.CounterVec
	restResponseTime      *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		inboundMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailroom_inbound_messages_total",
			Help: "The total number of inbound messages handled, by outcome",
		}, []string{"outcome"}),

		outboundMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailroom_outbound_messages_total",
			Help: "The total number of outbound messages dispatched, by provider and outcome",
		}, []string{"provider", "outcome"}),

		outboundLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailroom_outbound_latency_milliseconds",
			Help:    "Latency of outbound provider calls",
			Buckets: prometheus.LinearBuckets(1, 100, 10),
		}, []string{"provider"}),

		activeRESTConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mailroom_active_rest_connections",
			Help: "Number of active REST API connections",
		}),

		restRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailroom_rest_requests_processed_total",
			Help: "The total number of processed REST requests",
		}, []string{"method", "endpoint", "status"}),

		restResponseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailroom_restapi_response_time_milliseconds",
			Help:    "REST API response time distributions",
			Buckets: []float64{1, 10, 50, 100, 200, 300, 400, 500},
		}, []string{"method", "endpoint"}),
	}

	m.registry.MustRegister(
		m.inboundMessages,
		m.outboundMessages,
		m.outboundLatency,
		m.activeRESTConnections,
		m.restRequests,
		m.restResponseTime,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// InboundHandled counts one inbound message with the given outcome.
func (m *Metrics) InboundHandled(outcome string) {
	if m == nil {
		return
	}
	m.inboundMessages.WithLabelValues(outcome).Inc()
}

// OutboundDispatched counts one provider call and observes its latency.
func (m *Metrics) OutboundDispatched(provider, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.outboundMessages.WithLabelValues(provider, outcome).Inc()
	m.outboundLatency.WithLabelValues(provider).Observe(float64(latency.Milliseconds()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and response times for gin routes.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()

		m.activeRESTConnections.Inc()
		defer m.activeRESTConnections.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = unmatchedEndpoint
		}
		method := c.Request.Method

		m.restRequests.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.restResponseTime.WithLabelValues(method, endpoint).Observe(float64(time.Since(start).Milliseconds()))
	}
}
