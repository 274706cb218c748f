package supabase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Row ids are generated client side so the same models work against sqlite.

type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Email     string    `gorm:"column:email"`
	Role      string    `gorm:"column:role"`
}

func (Profile) TableName() string { return "profiles" }

type Product struct {
	ID    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name  string          `gorm:"column:name"`
	Price decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
}

func (Product) TableName() string { return "products" }

type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid"`
	Quantity  int             `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	Product   *Product        `gorm:"foreignKey:ProductID;references:ID"`
}

func (OrderItem) TableName() string { return "order_items" }

type Order struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber    string          `gorm:"column:order_number"`
	CustomerID     uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	SupplierID     uuid.UUID       `gorm:"column:supplier_id;type:uuid"`
	Status         string          `gorm:"column:status"`
	PaymentStatus  string          `gorm:"column:payment_status"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2)"`
	AmountPaid     decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2)"`
	Currency       string          `gorm:"column:currency"`
	TrackingNumber *string         `gorm:"column:tracking_number"`
	ExternalID     *string         `gorm:"column:external_id"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`

	Customer *Profile    `gorm:"foreignKey:CustomerID;references:ID"`
	Supplier *Profile    `gorm:"foreignKey:SupplierID;references:ID"`
	Items    []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

type AuditLog struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid"`
	Action       string         `gorm:"column:action"`
	ResourceType string         `gorm:"column:resource_type"`
	ResourceID   string         `gorm:"column:resource_id"`
	OldValues    datatypes.JSON `gorm:"column:old_values;type:jsonb"`
	NewValues    datatypes.JSON `gorm:"column:new_values;type:jsonb"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Notification struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid"`
	Title     string         `gorm:"column:title"`
	Message   string         `gorm:"column:message"`
	Type      string         `gorm:"column:type"`
	Data      datatypes.JSON `gorm:"column:data;type:jsonb"`
	Read      bool           `gorm:"column:read"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type FinancialTransaction struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid"`
	Type        string          `gorm:"column:type"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Currency    string          `gorm:"column:currency"`
	Description string          `gorm:"column:description"`
	ReferenceID string          `gorm:"column:reference_id"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (FinancialTransaction) TableName() string { return "financial_transactions" }

func (f *FinancialTransaction) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type UserCommission struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Status    string          `gorm:"column:status"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (UserCommission) TableName() string { return "user_commissions" }

func (c *UserCommission) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SyncOutbox holds cross-store events waiting for the relay.
type SyncOutbox struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Resource      string         `gorm:"column:resource"`
	EventType     string         `gorm:"column:event_type"`
	Payload       datatypes.JSON `gorm:"column:payload;type:jsonb"`
	AttemptCount  int            `gorm:"column:attempt_count"`
	LastError     *string        `gorm:"column:last_error"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	NextAttemptAt *time.Time     `gorm:"column:next_attempt_at"`
	DeliveredAt   *time.Time     `gorm:"column:delivered_at"`
}

func (SyncOutbox) TableName() string { return "sync_outbox" }

func (o *SyncOutbox) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return nil
}
