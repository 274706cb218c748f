package orderwebhook

// Request is the body posted to /order-webhook.
type Request struct {
	OrderID   string         `json:"orderId"`
	EventType string         `json:"eventType"`
	Metadata  map[string]any `json:"metadata"`
}

const (
	EventOrderCreated    = "order_created"
	EventOrderUpdated    = "order_updated"
	EventPaymentReceived = "payment_received"
	EventOrderShipped    = "order_shipped"
	EventOrderDelivered  = "order_delivered"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"

	PaymentStatusPaid = "paid"

	CommissionPending = "pending"
)

// statusMessages are the customer notices for status changes worth a push.
var statusMessages = map[string]string{
	"shipped":   "Your order has been shipped",
	"delivered": "Your order has been delivered",
	"cancelled": "Your order has been cancelled",
	"refunded":  "Your order has been refunded",
}

// Event is a cross-store envelope sent to the sync endpoint.
type Event struct {
	Resource  string         `json:"resource"`
	EventType string         `json:"eventType"`
	Payload   map[string]any `json:"payload"`
}
