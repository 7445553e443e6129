// Package metrics exposes Prometheus instruments for the engine.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	quotaDecisions  *prometheus.CounterVec
	usageRecorded   *prometheus.CounterVec
	remoteFailures  *prometheus.CounterVec
	rateLimitDenied *prometheus.CounterVec
}

// New registers the engine instruments on the given registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "venturebridge_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "venturebridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		quotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "venturebridge_quota_decisions_total",
			Help: "Entitlement gate decisions by metric and outcome.",
		}, []string{"metric", "outcome"}),
		usageRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "venturebridge_usage_recorded_total",
			Help: "Usage records accepted by kind.",
		}, []string{"kind"}),
		remoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "venturebridge_remote_failures_total",
			Help: "Connection engine remote call failures by operation.",
		}, []string{"operation"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "venturebridge_rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}

	collectors := []prometheus.Collector{
		m.httpRequests,
		m.httpDuration,
		m.quotaDecisions,
		m.usageRecorded,
		m.remoteFailures,
		m.rateLimitDenied,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordQuotaDecision increments gate decision counts.
func (m *Metrics) RecordQuotaDecision(metric, outcome string) {
	if m == nil {
		return
	}
	m.quotaDecisions.WithLabelValues(strings.TrimSpace(metric), strings.TrimSpace(outcome)).Inc()
}

// RecordUsage increments accepted usage record counts.
func (m *Metrics) RecordUsage(kind string) {
	if m == nil {
		return
	}
	m.usageRecorded.WithLabelValues(strings.TrimSpace(kind)).Inc()
}

// RecordRemoteFailure increments remote call failure counts.
func (m *Metrics) RecordRemoteFailure(operation string) {
	if m == nil {
		return
	}
	m.remoteFailures.WithLabelValues(strings.TrimSpace(operation)).Inc()
}

// RecordRateLimitDenied increments rate limit rejection counts.
func (m *Metrics) RecordRateLimitDenied(route string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(strings.TrimSpace(route)).Inc()
}

// GinMiddleware records per-request counters and latency.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
