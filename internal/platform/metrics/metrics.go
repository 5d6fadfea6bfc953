// Package metrics exposes Prometheus collectors for the HTTP server, the
// mail dispatcher and the rate limiter.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer    prometheus.Gatherer
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	emails      *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emails_total",
			Help: "Transactional emails by kind and outcome.",
		}, []string{"kind", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by a rate limit policy.",
		}, []string{"policy"}),
	}
	reg.MustRegister(
		m.requests, m.latency, m.emails, m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records one sample per request, labelled by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveEmail counts a send attempt. outcome is "sent" or "failed".
func (m *Metrics) ObserveEmail(kind, outcome string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(normalizeLabel(kind), outcome).Inc()
}

// IncRateLimited counts a rejected request.
func (m *Metrics) IncRateLimited(policy string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(normalizeLabel(policy)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
