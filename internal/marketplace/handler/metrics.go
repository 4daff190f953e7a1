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
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillswap_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	swapTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_swap_transitions_total",
		Help: "Swap status transition requests by target status and outcome.",
	}, []string{"to", "result"})

	progressUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillswap_swap_progress_updates_total",
		Help: "Total applied swap progress updates.",
	})

	ratingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillswap_ratings_total",
		Help: "Total ratings submitted.",
	})

	webhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_webhook_deliveries_total",
		Help: "Total webhook delivery attempts by success status.",
	}, []string{"status"})

	mailSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_mail_sent_total",
		Help: "Notice emails by kind and success status.",
	}, []string{"kind", "status"})

	maintenanceJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_maintenance_jobs_total",
		Help: "Scheduled maintenance job runs by job and success status.",
	}, []string{"job", "status"})

	healthChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_health_checks_total",
		Help: "Dependency health probes by dependency and success status.",
	}, []string{"dependency", "status"})
)

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

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
			path = "unmatched"
		}

		requestsTotal.WithLabelValues(method, path, status).Inc()
		requestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func recordSwapTransition(to string, changed bool) {
	result := "applied"
	if !changed {
		result = "unchanged"
	}
	swapTransitionsTotal.WithLabelValues(to, result).Inc()
}

// RecordWebhookDelivery records a webhook delivery attempt.
func RecordWebhookDelivery(success bool) {
	webhookDeliveriesTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordMailSent records a notice email send attempt.
func RecordMailSent(kind string, success bool) {
	mailSentTotal.WithLabelValues(kind, statusLabel(success)).Inc()
}

// RecordMaintenanceJob records a scheduled job run.
func RecordMaintenanceJob(job string, success bool) {
	maintenanceJobsTotal.WithLabelValues(job, statusLabel(success)).Inc()
}

// RecordHealthCheck records a dependency health probe.
func RecordHealthCheck(dependency string, success bool) {
	healthChecksTotal.WithLabelValues(dependency, statusLabel(success)).Inc()
}
