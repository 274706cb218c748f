package storesync

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store persists synced documents on the Firestore side.
type Store interface {
	ApplyPayment(ctx context.Context, p Payment, now time.Time) (ApplyResult, error)
	MergeOrder(ctx context.Context, id string, fields map[string]any) error
}

type FirestoreStore struct {
	fs *firestore.Client
}

func NewFirestoreStore(fs *firestore.Client) *FirestoreStore {
	return &FirestoreStore{fs: fs}
}

// ApplyPayment merges the payment and, the first time a payment id carries
// an order and an amount, adds the amount to the order's amountPaid. Both
// writes commit in one transaction.
func (s *FirestoreStore) ApplyPayment(ctx context.Context, p Payment, now time.Time) (ApplyResult, error) {
	payRef := s.fs.Collection(PaymentsCollection).Doc(p.ID)
	var orderRef *firestore.DocumentRef
	if p.Accumulates() {
		orderRef = s.fs.Collection(OrdersCollection).Doc(*p.OrderID)
	}

	var res ApplyResult
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := readDoc(tx, payRef)
		if err != nil {
			return err
		}
		var order map[string]any
		if orderRef != nil {
			if order, err = readDoc(tx, orderRef); err != nil {
				return err
			}
		}

		payFields, orderFields, r := planPayment(p, existing, order, now)
		if orderFields != nil {
			if err := tx.Set(orderRef, orderFields, firestore.MergeAll); err != nil {
				return err
			}
		}
		if err := tx.Set(payRef, payFields, firestore.MergeAll); err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

func (s *FirestoreStore) MergeOrder(ctx context.Context, id string, fields map[string]any) error {
	_, err := s.fs.Collection(OrdersCollection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}

// readDoc returns nil data for a missing document.
func readDoc(tx *firestore.Transaction, ref *firestore.DocumentRef) (map[string]any, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, nil
	}
	data := snap.Data()
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// planPayment computes the merge bodies for a payment and its order.
// existing and order are nil when the documents do not exist yet.
// Defaults only fill a new payment; later merges keep stored values.
func planPayment(p Payment, existing, order map[string]any, now time.Time) (map[string]any, map[string]any, ApplyResult) {
	fields := p.Fields()
	res := ApplyResult{Created: existing == nil}

	if res.Created {
		setDefault(fields, "amount", 0.0)
		setDefault(fields, "status", "unknown")
		setDefault(fields, "autoApproved", false)
		setDefault(fields, "createdAt", now)
	}
	setDefault(fields, "updatedAt", now)

	if !p.Accumulates() {
		return fields, nil, res
	}
	if existing != nil && existing["amountApplied"] != nil {
		res.AmountPaid = cast.ToFloat64(order["amountPaid"])
		return fields, nil, res
	}

	total := decimal.NewFromFloat(cast.ToFloat64(order["amountPaid"])).
		Add(decimal.NewFromFloat(*p.Amount)).
		InexactFloat64()

	fields["amountApplied"] = *p.Amount
	res.Accumulated = true
	res.AmountPaid = total
	return fields, map[string]any{"amountPaid": total, "updatedAt": now}, res
}

func setDefault(m map[string]any, key string, v any) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}
