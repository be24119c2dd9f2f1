package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	guardianEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_events_total",
		Help: "Total honeypot events ingested by honeypot type.",
	}, []string{"honeypot_type"})

	guardianVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_verdicts_total",
		Help: "Total classification verdicts by threat level.",
	}, []string{"threat_level"})

	guardianIndicatorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_indicators_total",
		Help: "Total rule indicators fired during classification.",
	}, []string{"indicator"})

	guardianGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_generations_total",
		Help: "Total deception content generations by outcome.",
	}, []string{"outcome"})

	guardianPersistFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_persist_failures_total",
		Help: "Total storage failures swallowed during ingest, by table.",
	}, []string{"table"})

	guardianRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardian_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	guardianRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guardian_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		guardianRequestsTotal.WithLabelValues(method, path, status).Inc()
		guardianRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordEvent counts an ingested event by honeypot type.
func RecordEvent(honeypotType string) {
	guardianEventsTotal.WithLabelValues(honeypotType).Inc()
}

// RecordVerdict counts a classification outcome.
func RecordVerdict(threatLevel string, indicators []string) {
	guardianVerdictsTotal.WithLabelValues(threatLevel).Inc()
	for _, ind := range indicators {
		guardianIndicatorsTotal.WithLabelValues(ind).Inc()
	}
}

// RecordGeneration counts a deception generation outcome ("generated" or
// "fallback").
func RecordGeneration(outcome string) {
	guardianGenerationsTotal.WithLabelValues(outcome).Inc()
}

// RecordPersistFailure counts a swallowed storage failure for a table.
func RecordPersistFailure(table string) {
	guardianPersistFailuresTotal.WithLabelValues(table).Inc()
}
