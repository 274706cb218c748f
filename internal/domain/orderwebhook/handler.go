package orderwebhook

import (
	"errors"
	"net/http"

	"jengamate/backend/internal/httpjson"
)

// Handler serves POST /order-webhook. CORS preflight is answered by the
// router middleware.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpjson.Read(w, r, &req); err != nil {
		fail(w, "invalid JSON body", err)
		return
	}

	msg, err := h.svc.Dispatch(r.Context(), req)
	if err != nil {
		h.svc.logg.Error(r.Context(), "error in order webhook", err)
		fail(w, err.Error(), errors.Unwrap(err))
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msg,
	})
}

func fail(w http.ResponseWriter, msg string, cause error) {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	httpjson.Write(w, http.StatusBadRequest, map[string]any{
		"error":   msg,
		"details": details,
	})
}
