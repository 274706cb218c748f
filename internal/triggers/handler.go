package triggers

import (
	"context"
	"net/http"
	"strings"

	"jengamate/backend/internal/domain/claims"
	"jengamate/backend/internal/domain/orderlock"
	"jengamate/backend/internal/httpjson"

	"github.com/go-chi/chi/v5"
)

type UserTrigger interface {
	OnUserUpdated(ctx context.Context, uid string, before, after map[string]any) claims.Outcome
}

type OrderTrigger interface {
	OnOrderUpdated(ctx context.Context, orderID string, before, after map[string]any) orderlock.Outcome
}

// Change is the document update pushed by the event bus.
type Change struct {
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
}

// HTTP receives pushed document updates. Either trigger may be nil, in which
// case its route acknowledges and does nothing.
type HTTP struct {
	users  UserTrigger
	orders OrderTrigger
}

func NewHTTP(users UserTrigger, orders OrderTrigger) *HTTP {
	return &HTTP{users: users, orders: orders}
}

// Routes mounts the trigger endpoints; the caller guards them with the sync secret.
func (h *HTTP) Routes(r chi.Router) {
	r.Post("/users/{userId}", h.UserUpdated)
	r.Post("/orders/{orderId}", h.OrderUpdated)
}

func (h *HTTP) UserUpdated(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(chi.URLParam(r, "userId"))
	var in Change
	if !decode(w, r, uid, &in) {
		return
	}
	if h.users != nil {
		h.users.OnUserUpdated(r.Context(), uid, in.Before, in.After)
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTP) OrderUpdated(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	var in Change
	if !decode(w, r, orderID, &in) {
		return
	}
	if h.orders != nil {
		h.orders.OnOrderUpdated(r.Context(), orderID, in.Before, in.After)
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"success": true})
}

func decode(w http.ResponseWriter, r *http.Request, id string, in *Change) bool {
	if id == "" {
		httpjson.Error(w, http.StatusBadRequest, "document id is required")
		return false
	}
	if err := httpjson.Read(w, r, in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
