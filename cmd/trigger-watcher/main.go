package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jengamate/backend/internal/config"
	"jengamate/backend/internal/domain/claims"
	"jengamate/backend/internal/domain/orderlock"
	"jengamate/backend/internal/firebase"
	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"
	"jengamate/backend/internal/triggers"

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
		logger.New(logger.Options{ServiceName: "trigger-watcher"}).Error(ctx, "config load failed", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{ServiceName: "trigger-watcher", Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	reg := prometheus.NewRegistry()
	m := metrics.NewSyncMetrics(reg)
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = metricsSrv.ListenAndServe() }()
	defer metricsSrv.Close()

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "firebase init failed", err)
		os.Exit(1)
	}
	defer clients.Close()

	w := triggers.NewWatcher(
		clients.Firestore,
		claims.NewService(claims.NewFirebaseProvider(clients.Auth), logg, m),
		orderlock.NewService(firebase.NewDocuments(clients.Firestore), logg, m),
		logg,
	)
	logg.Info(ctx, "watching users and orders")
	if err := w.Run(ctx); err != nil {
		logg.Error(ctx, "watcher stopped", err)
		os.Exit(1)
	}
	logg.Info(ctx, "watcher stopped")
}
