package storesync

import "time"

const (
	ResourcePayment = "payment"
	ResourceOrder   = "order"

	PaymentsCollection = "payments"
	OrdersCollection   = "orders"
)

// Envelope is the body posted to the sync endpoint.
type Envelope struct {
	Resource  string         `json:"resource"`
	EventType string         `json:"eventType"`
	Payload   map[string]any `json:"payload"`
}

// Payment is a normalized payment payload. Nil fields were absent and are
// left untouched by the merge.
type Payment struct {
	ID              string
	OrderID         *string
	UserID          *string
	Amount          *float64
	Status          *string
	PaymentMethod   *string
	TransactionID   *string
	PaymentProofURL *string
	Metadata        map[string]any
	AutoApproved    *bool
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// Fields is the merge-write body for payments/{id}.
func (p Payment) Fields() map[string]any {
	out := map[string]any{}
	putString(out, "orderId", p.OrderID)
	putString(out, "userId", p.UserID)
	if p.Amount != nil {
		out["amount"] = *p.Amount
	}
	putString(out, "status", p.Status)
	putString(out, "paymentMethod", p.PaymentMethod)
	putString(out, "transactionId", p.TransactionID)
	putString(out, "paymentProofUrl", p.PaymentProofURL)
	if p.Metadata != nil {
		out["metadata"] = p.Metadata
	}
	if p.AutoApproved != nil {
		out["autoApproved"] = *p.AutoApproved
	}
	if p.CreatedAt != nil {
		out["createdAt"] = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		out["updatedAt"] = *p.UpdatedAt
	}
	return out
}

// Accumulates reports whether the payment feeds its order's running balance.
func (p Payment) Accumulates() bool {
	return p.OrderID != nil && *p.OrderID != "" && p.Amount != nil
}

// Order is a normalized order payload.
type Order struct {
	ID          string
	TotalAmount *float64
	Status      *string
	OrderNumber *string
	Currency    string
	AmountPaid  *float64
	UpdatedAt   time.Time
}

func (o Order) Fields() map[string]any {
	out := map[string]any{
		"currency":  o.Currency,
		"updatedAt": o.UpdatedAt,
	}
	if o.TotalAmount != nil {
		out["totalAmount"] = *o.TotalAmount
	}
	putString(out, "status", o.Status)
	putString(out, "orderNumber", o.OrderNumber)
	if o.AmountPaid != nil {
		out["amountPaid"] = *o.AmountPaid
	}
	return out
}

// ApplyResult describes what a payment merge did.
type ApplyResult struct {
	Created     bool
	Accumulated bool
	AmountPaid  float64
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}
