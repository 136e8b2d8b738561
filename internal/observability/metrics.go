package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_http_requests_total",
			Help: "Total number of HTTP requests processed by the group order service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "group_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	sessionsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_sessions_created_total",
			Help: "Total number of group sessions created.",
		},
	)
	sessionJoinsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_session_joins_total",
			Help: "Total number of successful participant joins.",
		},
	)
	sessionLeavesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_session_leaves_total",
			Help: "Total number of participant departures.",
		},
	)
	sessionsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_sessions_swept_total",
			Help: "Total number of sessions evicted by the expiry sweep.",
		},
	)
	storeConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_store_version_conflicts_total",
			Help: "Total number of optimistic-concurrency conflicts on session writes.",
		},
	)
	sessionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_session_events_total",
			Help: "Total number of session change events emitted.",
		},
		[]string{"type"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		sessionsCreatedTotal,
		sessionJoinsTotal,
		sessionLeavesTotal,
		sessionsSweptTotal,
		storeConflictsTotal,
		sessionEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncSessionCreated() {
	sessionsCreatedTotal.Inc()
}

func IncSessionJoin() {
	sessionJoinsTotal.Inc()
}

func IncSessionLeave() {
	sessionLeavesTotal.Inc()
}

func AddSessionsSwept(count int) {
	sessionsSweptTotal.Add(float64(count))
}

func IncStoreConflict() {
	storeConflictsTotal.Inc()
}

func IncSessionEvent(eventType string) {
	sessionEventsTotal.WithLabelValues(eventType).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
