package orderwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"
	"jengamate/backend/internal/supabase"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"gorm.io/datatypes"
)

type Service struct {
	store   Store
	forward Forwarder
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	now     func() time.Time
}

// NewService wires the dispatcher. forward may be nil, in which case payment
// events are not sent to Firestore.
func NewService(store Store, forward Forwarder, logg *logger.Logger, m *metrics.SyncMetrics) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{store: store, forward: forward, logg: logg, metrics: m, now: time.Now}
}

// Dispatch loads the order and runs the handler for the event type. Only a
// missing order or malformed request fails; individual step failures are
// logged and the event still counts as processed.
func (s *Service) Dispatch(ctx context.Context, req Request) (string, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.EventType = strings.TrimSpace(req.EventType)
	if req.OrderID == "" || req.EventType == "" {
		return "", fmt.Errorf("%w: orderId and eventType are required", ErrBadRequest)
	}
	if req.Metadata == nil {
		req.Metadata = map[string]any{}
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":   req.OrderID,
		"event_type": req.EventType,
	})

	order, err := s.store.LoadOrder(ctx, req.OrderID)
	if err != nil {
		s.metrics.IncDispatch(req.EventType, "not_found")
		return "", err
	}

	switch req.EventType {
	case EventOrderCreated:
		s.orderCreated(ctx, order)
	case EventOrderUpdated:
		s.orderUpdated(ctx, order, req.Metadata)
	case EventPaymentReceived:
		s.paymentReceived(ctx, order, req.Metadata)
	case EventOrderShipped:
		s.orderShipped(ctx, order)
	case EventOrderDelivered:
		s.orderDelivered(ctx, order)
	default:
		s.logg.Warn(ctx, "unhandled event type")
		s.metrics.IncDispatch(req.EventType, "ignored")
		return processedMessage(req.EventType), nil
	}

	s.metrics.IncDispatch(req.EventType, "ok")
	return processedMessage(req.EventType), nil
}

func processedMessage(eventType string) string {
	return "Order webhook processed for event: " + eventType
}

func (s *Service) orderCreated(ctx context.Context, o *supabase.Order) {
	s.audit(ctx, o.CustomerID, "create", o, nil, orderValues(o))

	customerName := ""
	if o.Customer != nil {
		customerName = o.Customer.FirstName
	}
	s.notify(ctx, o.SupplierID, "New Order Received",
		fmt.Sprintf("You have received a new order #%s from %s", o.OrderNumber, customerName),
		"order", map[string]any{"order_id": o.ID})
	s.notify(ctx, o.CustomerID, "Order Placed Successfully",
		fmt.Sprintf("Your order #%s has been placed successfully", o.OrderNumber),
		"order", map[string]any{"order_id": o.ID})

	if o.Status == StatusPending {
		s.update(ctx, o, map[string]any{"status": StatusProcessing})
	}
}

func (s *Service) orderUpdated(ctx context.Context, o *supabase.Order, meta map[string]any) {
	actor := o.CustomerID
	if id, err := uuid.Parse(cast.ToString(meta["updated_by"])); err == nil {
		actor = id
	}
	oldValues := cast.ToStringMap(meta["old_values"])
	newValues := cast.ToStringMap(meta["new_values"])
	s.audit(ctx, actor, "update", o, meta["old_values"], meta["new_values"])

	if cast.ToString(oldValues["status"]) == cast.ToString(newValues["status"]) {
		return
	}
	msg, ok := statusMessages[o.Status]
	if !ok {
		return
	}
	s.notify(ctx, o.CustomerID, "Order Status Updated", msg,
		"order_update", map[string]any{"order_id": o.ID, "new_status": o.Status})
}

func (s *Service) paymentReceived(ctx context.Context, o *supabase.Order, meta map[string]any) {
	newStatus := o.Status
	if o.Status == StatusPending {
		newStatus = StatusProcessing
	}
	s.audit(ctx, o.CustomerID, "payment_received", o,
		map[string]any{"payment_status": o.PaymentStatus, "status": o.Status},
		map[string]any{"payment_status": PaymentStatusPaid, "status": newStatus})

	updates := map[string]any{"payment_status": PaymentStatusPaid, "status": newStatus}
	txRow := &supabase.FinancialTransaction{
		UserID:      o.CustomerID,
		Type:        "payment",
		Amount:      o.TotalAmount,
		Currency:    o.Currency,
		Description: fmt.Sprintf("Payment for order #%s", o.OrderNumber),
		ReferenceID: o.ID.String(),
		OrderID:     o.ID,
		CreatedAt:   s.now().UTC(),
	}
	ev, hasEvent := s.paymentEvent(ctx, o, meta)

	txf, outbox := s.forward.(TxForwarder)
	if outbox {
		// order, ledger, and outbox row commit together
		err := s.store.RunInTx(ctx, func(tx Store) error {
			if err := tx.UpdateOrder(ctx, o.ID, updates); err != nil {
				return fmt.Errorf("update order: %w", err)
			}
			if err := tx.InsertTransaction(ctx, txRow); err != nil {
				return fmt.Errorf("insert financial transaction: %w", err)
			}
			if hasEvent {
				if err := txf.ForwardIn(ctx, tx, ev); err != nil {
					return fmt.Errorf("enqueue payment event: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			s.logg.Error(ctx, "payment writes rolled back", err)
		}
	} else {
		s.update(ctx, o, updates)
		if err := s.store.InsertTransaction(ctx, txRow); err != nil {
			s.logg.Error(ctx, "failed to insert financial transaction", err)
		}
	}

	amount := o.TotalAmount.String()
	s.notify(ctx, o.CustomerID, "Payment Confirmed",
		fmt.Sprintf("Payment of %s %s for order #%s has been confirmed", o.Currency, amount, o.OrderNumber),
		"payment", map[string]any{"order_id": o.ID, "amount": o.TotalAmount})
	s.notify(ctx, o.SupplierID, "Payment Received",
		fmt.Sprintf("Payment of %s %s received for order #%s", o.Currency, amount, o.OrderNumber),
		"payment", map[string]any{"order_id": o.ID, "amount": o.TotalAmount})

	if hasEvent && !outbox {
		if err := s.forward.Forward(ctx, ev); err != nil {
			s.logg.Error(ctx, "failed to post payment event to Firebase", err)
		}
	}
}

// paymentEvent builds the event that tells the Firestore side about the
// payment so the order's running balance there stays current.
func (s *Service) paymentEvent(ctx context.Context, o *supabase.Order, meta map[string]any) (Event, bool) {
	if s.forward == nil {
		return Event{}, false
	}

	paymentID := firstString(meta, "payment_id", "paymentId")
	if paymentID == "" {
		s.logg.Warn(ctx, "payment_received without payment id, not forwarded")
		return Event{}, false
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	payload := map[string]any{
		"id":                paymentID,
		"order_id":          o.ID.String(),
		"orderId":           o.ID.String(),
		"amount":            firstValue(meta["amount"], o.TotalAmount.InexactFloat64()),
		"payment_method":    firstValue(meta["payment_method"], "unknown"),
		"status":            firstValue(meta["status"], "completed"),
		"payment_proof_url": meta["payment_proof_url"],
		"created_at":        now,
		"updated_at":        now,
		"metadata":          meta,
	}
	return Event{Resource: "payment", EventType: "created", Payload: payload}, true
}

func (s *Service) orderShipped(ctx context.Context, o *supabase.Order) {
	s.audit(ctx, o.CustomerID, "ship", o, nil, map[string]any{"status": o.Status, "tracking_number": o.TrackingNumber})

	msg := fmt.Sprintf("Your order #%s has been shipped", o.OrderNumber)
	if o.TrackingNumber != nil && *o.TrackingNumber != "" {
		msg += " with tracking number: " + *o.TrackingNumber
	}
	s.notify(ctx, o.CustomerID, "Order Shipped", msg,
		"shipping", map[string]any{"order_id": o.ID, "tracking_number": o.TrackingNumber})
}

func (s *Service) orderDelivered(ctx context.Context, o *supabase.Order) {
	s.audit(ctx, o.CustomerID, "deliver", o, nil, map[string]any{"status": o.Status})
	s.notify(ctx, o.CustomerID, "Order Delivered",
		fmt.Sprintf("Your order #%s has been delivered successfully", o.OrderNumber),
		"delivery", map[string]any{"order_id": o.ID})

	role := ""
	if o.Supplier != nil {
		role = o.Supplier.Role
	}
	amount := Commission(o.TotalAmount, role)
	if !amount.IsPositive() {
		return
	}
	if err := s.store.InsertCommission(ctx, &supabase.UserCommission{
		UserID:    o.SupplierID,
		OrderID:   o.ID,
		Amount:    amount,
		Status:    CommissionPending,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		s.logg.Error(ctx, "failed to insert commission", err)
	}
}

func (s *Service) audit(ctx context.Context, userID uuid.UUID, action string, o *supabase.Order, oldValues, newValues any) {
	row := &supabase.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: "order",
		ResourceID:   o.ID.String(),
		OldValues:    toJSON(oldValues),
		NewValues:    toJSON(newValues),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.InsertAudit(ctx, row); err != nil {
		s.logg.Error(ctx, "failed to insert audit log", err)
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message, typ string, data map[string]any) {
	row := &supabase.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Data:      toJSON(data),
		Read:      false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertNotification(ctx, row); err != nil {
		s.logg.Error(ctx, "failed to insert notification: "+title, err)
	}
}

func (s *Service) update(ctx context.Context, o *supabase.Order, updates map[string]any) {
	if err := s.store.UpdateOrder(ctx, o.ID, updates); err != nil {
		s.logg.Error(ctx, "failed to update order", err)
	}
}

func orderValues(o *supabase.Order) map[string]any {
	return map[string]any{
		"id":             o.ID,
		"order_number":   o.OrderNumber,
		"customer_id":    o.CustomerID,
		"supplier_id":    o.SupplierID,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"total_amount":   o.TotalAmount,
		"currency":       o.Currency,
		"item_count":     len(o.Items),
	}
}

// toJSON returns nil for nil input so the column stays NULL.
func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(cast.ToString(m[k])); s != "" {
			return s
		}
	}
	return ""
}

func firstValue(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
