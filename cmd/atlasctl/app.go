package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"atlasinvoice/internal/app"
	"atlasinvoice/internal/config"
	"atlasinvoice/internal/domain"
	"atlasinvoice/internal/service"
)

// A CLI run is short lived, so the global flags are package variables.
var (
	envFile = flag.String("env", ".env", "Path to the .env file with the store settings")
	verbose = flag.Bool("v", false, "Log store activity to stderr")
)

func openService(ctx context.Context) (*service.Service, func(), error) {
	cfg, err := config.LoadFrom(*envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	st, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return service.New(st, logger, cfg.Currency), closeStore, nil
}

// monthFlag returns the flag value, or the current month when empty.
func monthFlag(value string) (string, error) {
	if value == "" {
		return domain.MonthOf(time.Now()), nil
	}
	month, ok := domain.ParseMonth(value)
	if !ok {
		return "", fmt.Errorf("unknown month %q", value)
	}
	return month, nil
}
