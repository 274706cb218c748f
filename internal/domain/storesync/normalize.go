package storesync

import (
	"fmt"
	"strings"
	"time"

	"jengamate/backend/internal/utils"

	"github.com/spf13/cast"
)

// Payload keys are read snake_case first, then camelCase; the first
// non-null value wins. Payment status additionally falls back to "state".

func NormalizePayment(payload map[string]any) (Payment, error) {
	id := idOf(payload)
	if id == "" {
		return Payment{}, ErrMissingPaymentID
	}

	p := Payment{ID: id}
	var err error
	if p.OrderID, err = stringField(payload, "order_id", "orderId"); err != nil {
		return Payment{}, err
	}
	if p.UserID, err = stringField(payload, "user_id", "userId"); err != nil {
		return Payment{}, err
	}
	if p.Amount, err = floatField(payload, "amount"); err != nil {
		return Payment{}, err
	}
	if p.Status, err = stringField(payload, "status", "state"); err != nil {
		return Payment{}, err
	}
	if p.PaymentMethod, err = stringField(payload, "payment_method", "paymentMethod"); err != nil {
		return Payment{}, err
	}
	if p.TransactionID, err = stringField(payload, "transaction_id", "transactionId"); err != nil {
		return Payment{}, err
	}
	if p.PaymentProofURL, err = stringField(payload, "payment_proof_url", "paymentProofUrl"); err != nil {
		return Payment{}, err
	}
	if p.AutoApproved, err = boolField(payload, "auto_approved", "autoApproved"); err != nil {
		return Payment{}, err
	}
	if p.CreatedAt, err = timeField(payload, "created_at", "createdAt"); err != nil {
		return Payment{}, err
	}
	if p.UpdatedAt, err = timeField(payload, "updated_at", "updatedAt"); err != nil {
		return Payment{}, err
	}
	if v, ok := first(payload, "metadata"); ok {
		m, err := cast.ToStringMapE(v)
		if err != nil {
			return Payment{}, badRequest("Invalid metadata")
		}
		p.Metadata = m
	}
	return p, nil
}

func NormalizeOrder(payload map[string]any, defaultCurrency string, now time.Time) (Order, error) {
	id := idOf(payload)
	if id == "" {
		return Order{}, ErrMissingOrderID
	}

	o := Order{ID: id, Currency: defaultCurrency, UpdatedAt: now}
	var err error
	if o.TotalAmount, err = floatField(payload, "total_amount", "totalAmount"); err != nil {
		return Order{}, err
	}
	if o.Status, err = stringField(payload, "status"); err != nil {
		return Order{}, err
	}
	if o.OrderNumber, err = stringField(payload, "order_number", "orderNumber"); err != nil {
		return Order{}, err
	}
	if o.AmountPaid, err = floatField(payload, "amount_paid", "amountPaid"); err != nil {
		return Order{}, err
	}
	cur, err := stringField(payload, "currency")
	if err != nil {
		return Order{}, err
	}
	if cur != nil && *cur != "" {
		o.Currency = *cur
	}
	ts, err := timeField(payload, "updated_at", "updatedAt")
	if err != nil {
		return Order{}, err
	}
	if ts != nil {
		o.UpdatedAt = *ts
	}
	return o, nil
}

func idOf(payload map[string]any) string {
	v, ok := first(payload, "id")
	if !ok {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// first returns the value of the first key present with a non-null value.
func first(payload map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(payload map[string]any, keys ...string) (*string, error) {
	v, ok := first(payload, keys...)
	if !ok {
		return nil, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("Invalid %s", keys[0]))
	}
	return &s, nil
}

func floatField(payload map[string]any, keys ...string) (*float64, error) {
	v, ok := first(payload, keys...)
	if !ok {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("Invalid %s", keys[0]))
	}
	return &f, nil
}

func boolField(payload map[string]any, keys ...string) (*bool, error) {
	v, ok := first(payload, keys...)
	if !ok {
		return nil, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("Invalid %s", keys[0]))
	}
	return &b, nil
}

func timeField(payload map[string]any, keys ...string) (*time.Time, error) {
	v, ok := first(payload, keys...)
	if !ok {
		return nil, nil
	}
	var (
		t   time.Time
		err error
	)
	switch x := v.(type) {
	case string:
		t, err = utils.ParseTime(x)
	case float64:
		// epoch milliseconds, the shape JS clients send
		t = time.UnixMilli(int64(x))
	default:
		t, err = cast.ToTimeE(v)
	}
	if err != nil {
		return nil, badRequest(fmt.Sprintf("Invalid %s", keys[0]))
	}
	t = t.UTC()
	return &t, nil
}
