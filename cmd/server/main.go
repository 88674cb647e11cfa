package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"atlasinvoice/internal/app"
	"atlasinvoice/internal/config"
	httpapi "atlasinvoice/internal/http"
	"atlasinvoice/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Amounts go out as JSON numbers, as the dashboard page expects.
	decimal.MarshalJSONWithoutQuotes = true

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	st, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer closeStore()

	svc := service.New(st, logger, cfg.Currency)
	handler := httpapi.NewHandler(svc, st.BackendName(), cfg.MaxUploadBytes)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		AllowedOrigins:      cfg.AllowedOrigins,
		UploadRatePerSecond: cfg.UploadRatePerSecond,
		UploadBurst:         cfg.UploadBurst,
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("atlasinvoice listening on %s (backend %s)", server.Addr, st.BackendName())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil {
			log.Printf("force close failed: %v", closeErr)
		}
	}
}
