// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the document store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "userservice"

// Metrics holds the service collectors
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeUp         prometheus.Gauge
}

// New registers the collectors on reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		storeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_up",
			Help:      "Whether the last store health check succeeded (1) or failed (0)",
		}),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.storeUp)
	return m
}

// Middleware records request counts and latency by route template
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.requestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// SetStoreUp records the outcome of a store health check
func (m *Metrics) SetStoreUp(up bool) {
	if up {
		m.storeUp.Set(1)
		return
	}
	m.storeUp.Set(0)
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
