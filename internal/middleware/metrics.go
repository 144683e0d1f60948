package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coaching_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coaching_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Domain metrics
	plansCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coaching_plans_created_total",
			Help: "Total number of plans stored, by source",
		},
		[]string{"source"},
	)

	chatRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coaching_chat_replies_total",
			Help: "Total chat replies by kind (plan, reply, fallback)",
		},
		[]string{"kind"},
	)
)

// Metrics records request count and latency. The path label is the route
// template, so plan ids do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordPlanCreated counts a stored plan. source is "api" or "chat".
func RecordPlanCreated(source string) {
	plansCreatedTotal.WithLabelValues(source).Inc()
}

// RecordChatReply counts a chat answer by kind.
func RecordChatReply(kind string) {
	chatRepliesTotal.WithLabelValues(kind).Inc()
}
