package http

import (
	"net/http"

	"atlasinvoice/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	AllowedOrigins      []string
	UploadRatePerSecond float64
	UploadBurst         int
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	var uploadLimiter *rate.Limiter
	if cfg.UploadRatePerSecond > 0 && cfg.UploadBurst > 0 {
		uploadLimiter = rate.NewLimiter(rate.Limit(cfg.UploadRatePerSecond), cfg.UploadBurst)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(metrics.Middleware)
	r.Use(Timeout)
	r.Use(CORS(cfg.AllowedOrigins))

	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/months", handler.ListMonths)
		r.Get("/months/{month}", handler.GetMonth)
		r.Delete("/months/{month}", handler.ClearMonth)
		r.With(RateLimit(uploadLimiter)).Post("/months/{month}/invoices", handler.UploadInvoice)
		r.Delete("/months/{month}/invoices/{id}", handler.DeleteInvoice)
		r.Get("/months/{month}/export", handler.ExportMonth)

		r.Get("/dashboard", handler.Dashboard)
		r.Get("/search", handler.Search)
	})

	return r
}
