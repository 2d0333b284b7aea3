package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/datastore"
	"storefront/internal/listener"
	"storefront/internal/media"
	"storefront/internal/pipeline"
	"storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("DATASTORE_URL", cfg.DatastoreURL))

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	db, err := storage.OpenFromConfig(cfg.DatabaseURL, cfg.DBPath)
	must(err)
	defer db.Close()

	resolve, err := media.FromConfig(cfg, logger)
	must(err)

	svc := listener.NewService(db, datastore.NewSyncService(db, cfg, logger), pipeline.NewProcessingService(db, cfg, resolve, logger), cfg, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
