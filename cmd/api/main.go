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
	"jengamate/backend/internal/domain/claims"
	"jengamate/backend/internal/domain/orderlock"
	"jengamate/backend/internal/domain/orderwebhook"
	"jengamate/backend/internal/domain/storesync"
	"jengamate/backend/internal/domain/tokenexchange"
	"jengamate/backend/internal/firebase"
	apihttp "jengamate/backend/internal/http"
	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"
	"jengamate/backend/internal/supabase"
	"jengamate/backend/internal/triggers"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "api"}).Error(ctx, "config load failed", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewSyncMetrics(reg)

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "firebase init failed", err)
		os.Exit(1)
	}
	defer clients.Close()

	var db *supabase.Client
	if cfg.HasDatabase() {
		db, err = supabase.Open(ctx, cfg.Supabase, logg)
		if err != nil {
			logg.Error(ctx, "supabase database init failed", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		logg.Warn(ctx, "SUPABASE_DB_URL not set, order webhook disabled")
	}

	deps := apihttp.RouterDeps{
		Cfg:     cfg,
		Logger:  logg,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}

	// Supabase -> Firestore
	var refs storesync.ExternalOrders
	if db != nil {
		refs = storesync.NewOrderRefRepo(db.DB())
	}
	syncSvc := storesync.NewService(storesync.NewFirestoreStore(clients.Firestore), refs, cfg.DefaultCurrency, logg, m)
	deps.SyncHandler = storesync.NewHandler(syncSvc, cfg.SyncSecret)
	if cfg.SyncSecret == "" {
		logg.Warn(ctx, "SUPABASE_SYNC_SECRET not set, every sync request will be rejected")
	}

	if db != nil {
		var fwd orderwebhook.Forwarder
		switch cfg.ForwardMode {
		case config.ForwardModeOutbox:
			fwd = orderwebhook.NewOutboxForwarder(orderwebhook.NewOutboxRepo(db.DB()))
		default:
			direct := orderwebhook.NewHTTPForwarder(cfg.ForwardURL, cfg.ForwardSecret, cfg.ForwardTimeout, logg)
			if direct.Configured() {
				fwd = direct
			} else {
				logg.Warn(ctx, "FIREBASE_SYNC_URL not set, payments will not be forwarded")
			}
		}
		webhookSvc := orderwebhook.NewService(orderwebhook.NewRepo(db), fwd, logg, m)
		deps.WebhookHandler = orderwebhook.NewHandler(webhookSvc)
	}

	if cfg.HasAuthAdmin() {
		admin := supabase.NewAuthAdmin(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, &http.Client{Timeout: 15 * time.Second})
		deps.TokenHandler = tokenexchange.NewHandler(tokenexchange.NewService(clients.Auth, admin, logg))
	} else {
		logg.Warn(ctx, "SUPABASE_URL or SUPABASE_SERVICE_ROLE_KEY not set, token exchange disabled")
	}

	claimsSvc := claims.NewService(claims.NewFirebaseProvider(clients.Auth), logg, m)
	lockSvc := orderlock.NewService(firebase.NewDocuments(clients.Firestore), logg, m)
	deps.TriggerHandlers = triggers.NewHTTP(claimsSvc, lockSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apihttp.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// graceful shutdown
	go func() {
		lctx := logg.WithFields(ctx, map[string]any{"port": cfg.Port, "project": cfg.ProjectID, "forward_mode": cfg.ForwardMode})
		logg.Info(lctx, "api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "listen failed", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info(ctx, "shutting down")
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logg.Error(ctx, "shutdown failed", err)
	}
}
