package tokenexchange

import (
	"errors"
	"net/http"

	"jengamate/backend/internal/httpjson"
)

// Handler serves POST /exchange-firebase-token.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in Request
	if err := httpjson.Read(w, r, &in); err != nil {
		fail(w, "invalid JSON body", err)
		return
	}

	out, err := h.svc.Exchange(r.Context(), in)
	if err != nil {
		h.svc.logg.Error(r.Context(), "error in exchange-firebase-token", err)
		fail(w, err.Error(), errors.Unwrap(err))
		return
	}
	httpjson.Write(w, http.StatusOK, out)
}

func fail(w http.ResponseWriter, msg string, cause error) {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	httpjson.Write(w, http.StatusBadRequest, map[string]any{"error": msg, "details": details})
}
