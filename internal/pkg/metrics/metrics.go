// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildinspect",
		Name:      "request_transitions_total",
		Help:      "Inspection request status transitions.",
	}, []string{"from", "to"})

	ReportsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildinspect",
		Name:      "reports_issued_total",
		Help:      "Inspection reports issued, by decision.",
	}, []string{"decision"})

	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildinspect",
		Name:      "payments_recorded_total",
		Help:      "Payments appended to the ledger.",
	})

	PaymentAmount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildinspect",
		Name:      "payment_amount_total",
		Help:      "Sum of recorded payment amounts.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildinspect",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "buildinspect",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Middleware records request counts and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
