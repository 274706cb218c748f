package storesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"jengamate/backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore applies the same merge plan as FirestoreStore, serialized by a
// mutex in place of a Firestore transaction.
type memStore struct {
	mu       sync.Mutex
	payments map[string]map[string]any
	orders   map[string]map[string]any
	err      error
}

func newMemStore() *memStore {
	return &memStore{
		payments: map[string]map[string]any{},
		orders:   map[string]map[string]any{},
	}
}

func (m *memStore) ApplyPayment(_ context.Context, p Payment, now time.Time) (ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return ApplyResult{}, m.err
	}

	var order map[string]any
	if p.Accumulates() {
		order = m.orders[*p.OrderID]
	}
	payFields, orderFields, res := planPayment(p, m.payments[p.ID], order, now)
	if orderFields != nil {
		merge(m.orders, *p.OrderID, orderFields)
	}
	merge(m.payments, p.ID, payFields)
	return res, nil
}

func (m *memStore) MergeOrder(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	merge(m.orders, id, fields)
	return nil
}

func merge(coll map[string]map[string]any, id string, fields map[string]any) {
	doc, ok := coll[id]
	if !ok {
		doc = map[string]any{}
		coll[id] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
}

type fakeRefs struct {
	calls []string
	err   error
}

func (f *fakeRefs) SetExternalID(_ context.Context, orderID, externalID string) error {
	f.calls = append(f.calls, orderID+"="+externalID)
	return f.err
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store, refs ExternalOrders) *Service {
	svc := NewService(store, refs, "TSh", logger.Nop(), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func paymentEnv(payload map[string]any) Envelope {
	return Envelope{Resource: ResourcePayment, EventType: "created", Payload: payload}
}

func TestPaymentMergePreservesFieldsAndAccumulatesOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, paymentEnv(map[string]any{
		"id": "p1", "order_id": "o1", "amount": 100, "payment_method": "mpesa",
	})))
	require.NoError(t, svc.Handle(ctx, paymentEnv(map[string]any{
		"id": "p1", "status": "approved",
	})))
	// a redelivery of the original event must not double count
	require.NoError(t, svc.Handle(ctx, paymentEnv(map[string]any{
		"id": "p1", "order_id": "o1", "amount": 100,
	})))

	pay := store.payments["p1"]
	assert.Equal(t, 100.0, pay["amount"])
	assert.Equal(t, "mpesa", pay["paymentMethod"])
	assert.Equal(t, "approved", pay["status"])
	assert.Equal(t, false, pay["autoApproved"])
	assert.Equal(t, fixedNow, pay["createdAt"])
	assert.Equal(t, 100.0, pay["amountApplied"])

	assert.Equal(t, 100.0, store.orders["o1"]["amountPaid"])
}

func TestPaymentDefaultsOnCreate(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)

	require.NoError(t, svc.Handle(context.Background(), paymentEnv(map[string]any{"id": "p2"})))

	pay := store.payments["p2"]
	assert.Equal(t, 0.0, pay["amount"])
	assert.Equal(t, "unknown", pay["status"])
	assert.Equal(t, false, pay["autoApproved"])
	assert.Equal(t, fixedNow, pay["createdAt"])
	assert.Equal(t, fixedNow, pay["updatedAt"])
	assert.Empty(t, store.orders)
}

func TestPaymentAddsToExistingBalance(t *testing.T) {
	store := newMemStore()
	store.orders["o1"] = map[string]any{"amountPaid": int64(50), "totalAmount": 300.0}
	svc := newTestService(store, nil)

	require.NoError(t, svc.Handle(context.Background(), paymentEnv(map[string]any{
		"id": "p3", "orderId": "o1", "amount": 0.1,
	})))
	require.NoError(t, svc.Handle(context.Background(), paymentEnv(map[string]any{
		"id": "p4", "orderId": "o1", "amount": 0.2,
	})))

	assert.Equal(t, 50.3, store.orders["o1"]["amountPaid"])
	assert.Equal(t, 300.0, store.orders["o1"]["totalAmount"])
	assert.Equal(t, fixedNow, store.orders["o1"]["updatedAt"])
}

func TestConcurrentPaymentsOnOneOrder(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := svc.Handle(context.Background(), paymentEnv(map[string]any{
				"id": fmt.Sprintf("p%d", i), "order_id": "o1", "amount": 10,
			}))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 250.0, store.orders["o1"]["amountPaid"])
	assert.Len(t, store.payments, 25)
}

func TestOrderSyncMergesAndBackReferences(t *testing.T) {
	store := newMemStore()
	store.orders["o9"] = map[string]any{"isLocked": true}
	refs := &fakeRefs{}
	svc := newTestService(store, refs)

	require.NoError(t, svc.Handle(context.Background(), Envelope{
		Resource: ResourceOrder, EventType: "updated",
		Payload: map[string]any{"id": "o9", "total_amount": 500, "status": "processing", "order_number": "JM-9"},
	}))

	doc := store.orders["o9"]
	assert.Equal(t, true, doc["isLocked"])
	assert.Equal(t, 500.0, doc["totalAmount"])
	assert.Equal(t, "TSh", doc["currency"])
	assert.Equal(t, "JM-9", doc["orderNumber"])
	assert.NotContains(t, doc, "amountPaid")
	assert.Equal(t, []string{"o9=o9"}, refs.calls)
}

func TestOrderSyncIgnoresBackReferenceFailure(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeRefs{err: errors.New("invalid input syntax for type uuid")})

	err := svc.Handle(context.Background(), Envelope{
		Resource: ResourceOrder, EventType: "created", Payload: map[string]any{"id": "fs-id"},
	})
	require.NoError(t, err)
	assert.Contains(t, store.orders, "fs-id")
}

func TestHandleRejects(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Handle(ctx, Envelope{Resource: "payment", Payload: map[string]any{}}), ErrMissingFields)
	assert.ErrorIs(t, svc.Handle(ctx, Envelope{Resource: "payment", EventType: "created"}), ErrMissingFields)
	assert.ErrorIs(t, svc.Handle(ctx, paymentEnv(map[string]any{"amount": 1})), ErrMissingPaymentID)
	assert.ErrorIs(t, svc.Handle(ctx, Envelope{Resource: "order", EventType: "x", Payload: map[string]any{}}), ErrMissingOrderID)
	assert.ErrorIs(t, svc.Handle(ctx, Envelope{Resource: "invoice", EventType: "x", Payload: map[string]any{}}), ErrUnsupportedResource)
}
