// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvoicesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasinvoice_invoices_ingested_total",
			Help: "Invoices added to a month bucket",
		},
		[]string{"month"},
	)

	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasinvoice_rows_dropped_total",
			Help: "CSV rows discarded by the row classifier",
		},
		[]string{"reason"},
	)

	ValuesDefaulted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasinvoice_values_defaulted_total",
			Help: "Line item fields that fell back to a default value",
		},
		[]string{"field"},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasinvoice_persist_failures_total",
			Help: "Month saves the storage backend rejected",
		},
		[]string{"backend"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlasinvoice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware records request durations labelled by the chi route pattern, so
// month names and ids do not blow up label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
