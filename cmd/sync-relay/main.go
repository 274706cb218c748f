package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jengamate/backend/internal/config"
	"jengamate/backend/internal/domain/orderwebhook"
	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"
	"jengamate/backend/internal/supabase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "sync-relay"}).Error(ctx, "config load failed", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{ServiceName: "sync-relay", Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	sender := orderwebhook.NewHTTPForwarder(cfg.ForwardURL, cfg.ForwardSecret, cfg.ForwardTimeout, logg)
	if !sender.Configured() {
		logg.Warn(ctx, "FIREBASE_SYNC_URL is required for the relay")
		os.Exit(1)
	}

	db, err := supabase.Open(ctx, cfg.Supabase, logg)
	if err != nil {
		logg.Error(ctx, "supabase database init failed", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(ctx); err != nil {
		logg.Error(ctx, "supabase database unreachable", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = metricsSrv.ListenAndServe() }()
	defer metricsSrv.Close()

	relay, err := orderwebhook.NewRelay(orderwebhook.RelayParams{
		Outbox:       orderwebhook.NewOutboxRepo(db.DB()),
		Sender:       sender,
		Logger:       logg,
		Metrics:      metrics.NewSyncMetrics(reg),
		BatchSize:    cfg.Relay.BatchSize,
		PollInterval: cfg.Relay.PollInterval,
		MaxAttempts:  cfg.Relay.MaxAttempts,
	})
	if err != nil {
		logg.Error(ctx, "relay init failed", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync relay started")
	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync relay failed", err)
		os.Exit(1)
	}
}
