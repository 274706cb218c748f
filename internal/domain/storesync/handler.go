package storesync

import (
	"net/http"

	"jengamate/backend/internal/httpjson"
	"jengamate/backend/internal/middleware"
)

// Handler serves POST /supabaseSync.
type Handler struct {
	svc    *Service
	secret string
}

func NewHandler(svc *Service, secret string) *Handler {
	return &Handler{svc: svc, secret: secret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !middleware.ValidSyncSecret(r, h.secret) {
		h.svc.metrics.IncSyncEvent("", "unauthorized")
		httpjson.Text(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var env Envelope
	if err := httpjson.Read(w, r, &env); err != nil {
		httpjson.Text(w, http.StatusBadRequest, ErrInvalidJSON.Error())
		return
	}

	if err := h.svc.Handle(r.Context(), env); err != nil {
		if IsErrBadRequest(err) {
			httpjson.Text(w, http.StatusBadRequest, err.Error())
			return
		}
		h.svc.logg.Error(r.Context(), "supabaseSync error", err)
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"success": true})
}
