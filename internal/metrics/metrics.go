// Package metrics provides Prometheus metrics for the quote service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "makerquote"

// Collector holds all quote service metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	QuotesCalculated *prometheus.CounterVec
	QuoteRejections  *prometheus.CounterVec
	QuoteTotalCAD    prometheus.Histogram

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a collector with every metric registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		QuotesCalculated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quotes_calculated_total",
				Help:      "Total number of quotes priced by the engine",
			},
			[]string{"material", "delivery_speed"},
		),
		QuoteRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_rejections_total",
				Help:      "Total number of quote requests rejected before pricing",
			},
			[]string{"reason"},
		),
		QuoteTotalCAD: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quote_total_cad",
				Help:      "Distribution of quote totals in CAD",
				Buckets:   []float64{18, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.QuotesCalculated,
		c.QuoteRejections,
		c.QuoteTotalCAD,
		c.RequestsTotal,
		c.RequestDuration,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordQuote counts a priced quote.
func (c *Collector) RecordQuote(material, deliverySpeed string, total float64) {
	c.QuotesCalculated.WithLabelValues(material, deliverySpeed).Inc()
	c.QuoteTotalCAD.Observe(total)
}

// RecordRejection counts a request rejected before pricing.
func (c *Collector) RecordRejection(reason string) {
	c.QuoteRejections.WithLabelValues(reason).Inc()
}

const unmatchedRoute = "unmatched"

// Middleware records request counts and latency. Labels use the chi route
// pattern; requests that match no route share the "unmatched" label.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		c.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
