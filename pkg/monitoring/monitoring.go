package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testgen_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	AuditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testgen_audit_writes_total",
			Help: "Audit log rows written",
		},
		[]string{"table", "operation"},
	)

	DocumentsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testgen_documents_enqueued_total",
			Help: "Generation tasks pushed to the queue",
		},
		[]string{"result"},
	)

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testgen_sessions_finished_total",
			Help: "Test sessions that left in_progress",
		},
		[]string{"status", "passed"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(LoginCounter)
		prometheus.MustRegister(AuditWrites)
		prometheus.MustRegister(DocumentsEnqueued)
		prometheus.MustRegister(SessionsFinished)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
