package middleware

import (
	"strconv"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsPath    = "/metrics"
	unmatchedRoute = "unmatched"
	// routeKey is where drift's router stores the matched route pattern.
	routeKey = "_fullPath"
)

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler counts requests by route pattern, so /clients/:id is one series.
func (m *Metrics) Handler() drift.HandlerFunc {
	return func(c *drift.Context) {
		if c.Path() == metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		rec := recordStatus(c)

		c.Next()

		path := unmatchedRoute
		if _, ok := c.Get(routeKey); ok {
			path = c.FullPath()
		}

		m.requests.WithLabelValues(c.Method(), path, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
	}
}

// Endpoint serves the registry in the Prometheus text format.
func Endpoint(g prometheus.Gatherer) drift.HandlerFunc {
	h := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return func(c *drift.Context) {
		h.ServeHTTP(c.Response, c.Request)
	}
}
