package http

import (
	"net/http"
	"time"

	"jengamate/backend/internal/config"
	"jengamate/backend/internal/httpjson"
	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/middleware"
	"jengamate/backend/internal/triggers"

	"github.com/go-chi/chi/v5"
)

// RouterDeps carries the handlers built in main. Any handler left nil keeps
// its route unmounted, so a process can run with a partial configuration.
type RouterDeps struct {
	Cfg     config.Config
	Logger  *logger.Logger
	Metrics http.Handler

	SyncHandler     http.Handler
	WebhookHandler  http.Handler
	TokenHandler    http.Handler
	TriggerHandlers *triggers.HTTP
}

func NewRouter(d RouterDeps) http.Handler {
	logg := d.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		Fail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// Supabase -> Firestore. The handler checks the shared secret itself so
	// the 401 body stays plain text.
	if d.SyncHandler != nil {
		r.Method(http.MethodPost, "/supabaseSync", d.SyncHandler)
	}

	// Supabase-side edge endpoints. A bare OPTIONS without preflight headers
	// still answers "ok".
	if d.WebhookHandler != nil {
		r.With(middleware.RequireCaller(d.Cfg.SyncSecret, d.Cfg.Supabase.ServiceRoleKey)).
			Method(http.MethodPost, "/order-webhook", d.WebhookHandler)
		r.Options("/order-webhook", optionsOK)
	}
	if d.TokenHandler != nil {
		r.Method(http.MethodPost, "/exchange-firebase-token", d.TokenHandler)
		r.Options("/exchange-firebase-token", optionsOK)
	}

	if d.TriggerHandlers != nil {
		r.Route("/v1/triggers", func(tr chi.Router) {
			tr.Use(middleware.RequireSyncSecret(d.Cfg.SyncSecret))
			d.TriggerHandlers.Routes(tr)
		})
	}

	return r
}

func optionsOK(w http.ResponseWriter, _ *http.Request) {
	httpjson.Text(w, http.StatusOK, "ok")
}
