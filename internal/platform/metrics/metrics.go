package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	SupabaseCalls    *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "oahelper",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "oahelper",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "oahelper",
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		SupabaseCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "oahelper",
				Subsystem: "supabase",
				Name:      "requests_total",
				Help:      "REST calls made to the hosted database",
			},
			[]string{"method", "table", "outcome"},
		),
		EmailsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "oahelper",
				Subsystem: "mail",
				Name:      "emails_total",
				Help:      "Transactional emails by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		gatherer: reg,
	}
}

// Middleware records request counts, latency and in-flight requests per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

func (m *Metrics) ObserveSupabase(method, table string, ok bool) {
	if m == nil {
		return
	}
	m.SupabaseCalls.WithLabelValues(method, table, outcome(ok)).Inc()
}

func (m *Metrics) ObserveEmail(kind string, ok bool) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(kind, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
