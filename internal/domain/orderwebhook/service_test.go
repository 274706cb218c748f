package orderwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/supabase"
	"jengamate/backend/internal/supabase/supabasetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 7, 1, 8, 30, 0, 0, time.UTC)

type fakeForwarder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *fakeForwarder) Forward(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type fixture struct {
	db       *gorm.DB
	order    supabase.Order
	customer supabase.Profile
	supplier supabase.Profile
}

func seedOrder(t *testing.T, status, supplierRole string, total string) fixture {
	t.Helper()
	db := supabasetest.Open(t)

	customer := supabase.Profile{ID: uuid.New(), FirstName: "Amina", Email: "amina@example.com", Role: "engineer"}
	supplier := supabase.Profile{ID: uuid.New(), FirstName: "Baraka", Email: "baraka@example.com", Role: supplierRole}
	product := supabase.Product{ID: uuid.New(), Name: "Cement 50kg", Price: decimal.RequireFromString("500")}
	require.NoError(t, db.Create(&customer).Error)
	require.NoError(t, db.Create(&supplier).Error)
	require.NoError(t, db.Create(&product).Error)

	tracking := "TRK-42"
	order := supabase.Order{
		ID:             uuid.New(),
		OrderNumber:    "JM-1001",
		CustomerID:     customer.ID,
		SupplierID:     supplier.ID,
		Status:         status,
		PaymentStatus:  "unpaid",
		TotalAmount:    decimal.RequireFromString(total),
		Currency:       "TSh",
		TrackingNumber: &tracking,
	}
	require.NoError(t, db.Omit("Customer", "Supplier", "Items").Create(&order).Error)
	require.NoError(t, db.Create(&supabase.OrderItem{
		ID: uuid.New(), OrderID: order.ID, ProductID: product.ID, Quantity: 3, UnitPrice: product.Price,
	}).Error)

	return fixture{db: db, order: order, customer: customer, supplier: supplier}
}

func newTestService(store Store, fwd Forwarder) *Service {
	svc := NewService(store, fwd, logger.Nop(), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func notifications(t *testing.T, db *gorm.DB) []supabase.Notification {
	t.Helper()
	var rows []supabase.Notification
	require.NoError(t, db.Order("created_at, title").Find(&rows).Error)
	return rows
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) supabase.Order {
	t.Helper()
	var o supabase.Order
	require.NoError(t, db.First(&o, "id = ?", id).Error)
	return o
}

func TestPaymentReceived(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1500")
	fwd := &fakeForwarder{}
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), fwd)

	msg, err := svc.Dispatch(context.Background(), Request{
		OrderID:   fx.order.ID.String(),
		EventType: EventPaymentReceived,
		Metadata:  map[string]any{"payment_id": "pay-77", "payment_method": "mpesa"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Order webhook processed for event: payment_received", msg)

	assert.EqualValues(t, 1, count(t, fx.db, &supabase.AuditLog{}))

	notes := notifications(t, fx.db)
	require.Len(t, notes, 2)
	byTitle := map[string]supabase.Notification{}
	for _, n := range notes {
		byTitle[n.Title] = n
	}
	assert.Equal(t, fx.customer.ID, byTitle["Payment Confirmed"].UserID)
	assert.Equal(t, "Payment of TSh 1500 for order #JM-1001 has been confirmed", byTitle["Payment Confirmed"].Message)
	assert.Equal(t, fx.supplier.ID, byTitle["Payment Received"].UserID)
	assert.Equal(t, "payment", byTitle["Payment Received"].Type)
	assert.False(t, byTitle["Payment Received"].Read)

	var tx supabase.FinancialTransaction
	require.NoError(t, fx.db.First(&tx).Error)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "Payment for order #JM-1001", tx.Description)
	assert.Equal(t, fx.order.ID.String(), tx.ReferenceID)

	o := reload(t, fx.db, fx.order.ID)
	assert.Equal(t, "paid", o.PaymentStatus)
	assert.Equal(t, "processing", o.Status)

	require.Len(t, fwd.events, 1)
	ev := fwd.events[0]
	assert.Equal(t, "payment", ev.Resource)
	assert.Equal(t, "created", ev.EventType)
	assert.Equal(t, "pay-77", ev.Payload["id"])
	assert.Equal(t, fx.order.ID.String(), ev.Payload["order_id"])
	assert.Equal(t, 1500.0, ev.Payload["amount"])
	assert.Equal(t, "mpesa", ev.Payload["payment_method"])
	assert.Equal(t, "completed", ev.Payload["status"])
}

func TestPaymentReceivedWithoutPaymentIDIsNotForwarded(t *testing.T) {
	fx := seedOrder(t, "processing", "supplier", "10")
	fwd := &fakeForwarder{}
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), fwd)

	_, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: EventPaymentReceived})
	require.NoError(t, err)
	assert.Empty(t, fwd.events)
	assert.Equal(t, "processing", reload(t, fx.db, fx.order.ID).Status)
}

func TestPaymentForwardFailureDoesNotFailRequest(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "10")
	fwd := &fakeForwarder{err: &DeliveryError{Status: 503, Body: "unavailable"}}
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), fwd)

	_, err := svc.Dispatch(context.Background(), Request{
		OrderID: fx.order.ID.String(), EventType: EventPaymentReceived, Metadata: map[string]any{"paymentId": "p1"},
	})
	require.NoError(t, err)
	assert.Len(t, fwd.events, 1)
}

func TestOrderCreated(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1500")
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)

	_, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: EventOrderCreated})
	require.NoError(t, err)

	var audit supabase.AuditLog
	require.NoError(t, fx.db.First(&audit).Error)
	assert.Equal(t, "create", audit.Action)
	assert.Equal(t, fx.customer.ID, audit.UserID)
	assert.Nil(t, audit.OldValues)

	var newValues map[string]any
	require.NoError(t, json.Unmarshal(audit.NewValues, &newValues))
	assert.Equal(t, "JM-1001", newValues["order_number"])

	notes := notifications(t, fx.db)
	require.Len(t, notes, 2)
	msgs := []string{notes[0].Message, notes[1].Message}
	assert.Contains(t, msgs, "You have received a new order #JM-1001 from Amina")
	assert.Contains(t, msgs, "Your order #JM-1001 has been placed successfully")

	assert.Equal(t, "processing", reload(t, fx.db, fx.order.ID).Status)
}

func TestOrderUpdated(t *testing.T) {
	fx := seedOrder(t, "shipped", "supplier", "1500")
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)
	admin := uuid.New()

	_, err := svc.Dispatch(context.Background(), Request{
		OrderID:   fx.order.ID.String(),
		EventType: EventOrderUpdated,
		Metadata: map[string]any{
			"updated_by": admin.String(),
			"old_values": map[string]any{"status": "processing"},
			"new_values": map[string]any{"status": "shipped"},
		},
	})
	require.NoError(t, err)

	var audit supabase.AuditLog
	require.NoError(t, fx.db.First(&audit).Error)
	assert.Equal(t, admin, audit.UserID)
	assert.JSONEq(t, `{"status":"processing"}`, string(audit.OldValues))

	notes := notifications(t, fx.db)
	require.Len(t, notes, 1)
	assert.Equal(t, "Order Status Updated", notes[0].Title)
	assert.Equal(t, "Your order has been shipped", notes[0].Message)
	assert.Equal(t, "order_update", notes[0].Type)
}

func TestOrderUpdatedWithoutStatusChange(t *testing.T) {
	fx := seedOrder(t, "shipped", "supplier", "1500")
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)

	_, err := svc.Dispatch(context.Background(), Request{
		OrderID:   fx.order.ID.String(),
		EventType: EventOrderUpdated,
		Metadata: map[string]any{
			"old_values": map[string]any{"status": "shipped", "notes": "a"},
			"new_values": map[string]any{"status": "shipped", "notes": "b"},
		},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 1, count(t, fx.db, &supabase.AuditLog{}))
	assert.Empty(t, notifications(t, fx.db))
}

func TestOrderShipped(t *testing.T) {
	fx := seedOrder(t, "shipped", "supplier", "1500")
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)

	_, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: EventOrderShipped})
	require.NoError(t, err)

	notes := notifications(t, fx.db)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your order #JM-1001 has been shipped with tracking number: TRK-42", notes[0].Message)
	assert.EqualValues(t, 1, count(t, fx.db, &supabase.AuditLog{}))
}

func TestOrderDeliveredCommission(t *testing.T) {
	tests := []struct {
		role  string
		total string
		want  string
	}{
		{"supplier", "1500", "75"},
		{"engineer", "1500", "30"},
		{"engineer", "0.20", "0.004"},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.total, func(t *testing.T) {
			fx := seedOrder(t, "delivered", tt.role, tt.total)
			svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)

			_, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: EventOrderDelivered})
			require.NoError(t, err)

			var c supabase.UserCommission
			require.NoError(t, fx.db.First(&c).Error)
			assert.Equal(t, fx.supplier.ID, c.UserID)
			assert.Equal(t, "pending", c.Status)
			assert.True(t, c.Amount.Equal(decimal.RequireFromString(tt.want)), "got %s", c.Amount)

			notes := notifications(t, fx.db)
			require.Len(t, notes, 1)
			assert.Equal(t, "Order Delivered", notes[0].Title)
		})
	}
}

func TestOrderDeliveredZeroTotalSkipsCommission(t *testing.T) {
	fx := seedOrder(t, "delivered", "supplier", "0")
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)

	_, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: EventOrderDelivered})
	require.NoError(t, err)
	assert.Zero(t, count(t, fx.db, &supabase.UserCommission{}))
}

func TestUnknownEventDoesNotMutate(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1500")
	fwd := &fakeForwarder{}
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), fwd)

	msg, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: "order_teleported"})
	require.NoError(t, err)
	assert.Equal(t, "Order webhook processed for event: order_teleported", msg)

	assert.Zero(t, count(t, fx.db, &supabase.AuditLog{}))
	assert.Zero(t, count(t, fx.db, &supabase.Notification{}))
	assert.Equal(t, "pending", reload(t, fx.db, fx.order.ID).Status)
	assert.Empty(t, fwd.events)
}

func TestDispatchRejects(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1")
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), nil)
	ctx := context.Background()

	_, err := svc.Dispatch(ctx, Request{EventType: EventOrderCreated})
	assert.True(t, IsErrBadRequest(err))

	_, err = svc.Dispatch(ctx, Request{OrderID: uuid.NewString(), EventType: EventOrderCreated})
	assert.True(t, IsErrNotFound(err))

	_, err = svc.Dispatch(ctx, Request{OrderID: "not-a-uuid", EventType: EventOrderCreated})
	assert.True(t, IsErrNotFound(err))
}

// flakyStore fails notification inserts but otherwise delegates.
type flakyStore struct {
	*Repo
}

func (f flakyStore) InsertNotification(context.Context, *supabase.Notification) error {
	return errors.New("connection reset")
}

func TestStepFailuresAreSwallowed(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1500")
	svc := newTestService(flakyStore{NewRepo(supabase.Wrap(fx.db))}, nil)

	_, err := svc.Dispatch(context.Background(), Request{OrderID: fx.order.ID.String(), EventType: EventOrderCreated})
	require.NoError(t, err)

	assert.EqualValues(t, 1, count(t, fx.db, &supabase.AuditLog{}))
	assert.Zero(t, count(t, fx.db, &supabase.Notification{}))
	assert.Equal(t, "processing", reload(t, fx.db, fx.order.ID).Status)
}

func outboxRows(t *testing.T, db *gorm.DB) []supabase.SyncOutbox {
	t.Helper()
	var rows []supabase.SyncOutbox
	require.NoError(t, db.Find(&rows).Error)
	return rows
}

func TestPaymentReceivedOutboxCommitsWithOrder(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1500")
	fwd := NewOutboxForwarder(NewOutboxRepo(fx.db))
	svc := newTestService(NewRepo(supabase.Wrap(fx.db)), fwd)

	_, err := svc.Dispatch(context.Background(), Request{
		OrderID: fx.order.ID.String(), EventType: EventPaymentReceived, Metadata: map[string]any{"payment_id": "pay-9"},
	})
	require.NoError(t, err)

	o := reload(t, fx.db, fx.order.ID)
	assert.Equal(t, "paid", o.PaymentStatus)
	assert.EqualValues(t, 1, count(t, fx.db, &supabase.FinancialTransaction{}))

	rows := outboxRows(t, fx.db)
	require.Len(t, rows, 1)
	assert.Equal(t, "payment", rows[0].Resource)
	assert.Equal(t, "created", rows[0].EventType)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rows[0].Payload, &payload))
	assert.Equal(t, "pay-9", payload["id"])
	assert.Len(t, notifications(t, fx.db), 2)
}

// brokenLedger fails the financial transaction insert inside a transaction.
type brokenLedger struct {
	Store
}

func (brokenLedger) InsertTransaction(context.Context, *supabase.FinancialTransaction) error {
	return errors.New("ledger unavailable")
}

type brokenLedgerRepo struct {
	*Repo
}

func (r brokenLedgerRepo) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	return r.Repo.RunInTx(ctx, func(tx Store) error { return fn(brokenLedger{tx}) })
}

func TestPaymentReceivedOutboxRollsBackTogether(t *testing.T) {
	fx := seedOrder(t, "pending", "supplier", "1500")
	fwd := NewOutboxForwarder(NewOutboxRepo(fx.db))
	svc := newTestService(brokenLedgerRepo{NewRepo(supabase.Wrap(fx.db))}, fwd)

	_, err := svc.Dispatch(context.Background(), Request{
		OrderID: fx.order.ID.String(), EventType: EventPaymentReceived, Metadata: map[string]any{"payment_id": "pay-9"},
	})
	require.NoError(t, err)

	o := reload(t, fx.db, fx.order.ID)
	assert.Equal(t, "unpaid", o.PaymentStatus)
	assert.Equal(t, "pending", o.Status)
	assert.Zero(t, count(t, fx.db, &supabase.FinancialTransaction{}))
	assert.Empty(t, outboxRows(t, fx.db))

	// audit and notifications sit outside the transaction
	assert.EqualValues(t, 1, count(t, fx.db, &supabase.AuditLog{}))
	assert.Len(t, notifications(t, fx.db), 2)
}
