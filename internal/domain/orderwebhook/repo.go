package orderwebhook

import (
	"context"
	"errors"
	"fmt"

	"jengamate/backend/internal/supabase"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the Supabase side of the dispatcher.
type Store interface {
	LoadOrder(ctx context.Context, id string) (*supabase.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	InsertAudit(ctx context.Context, row *supabase.AuditLog) error
	InsertNotification(ctx context.Context, row *supabase.Notification) error
	InsertTransaction(ctx context.Context, row *supabase.FinancialTransaction) error
	InsertCommission(ctx context.Context, row *supabase.UserCommission) error
	EnqueueSync(ctx context.Context, row *supabase.SyncOutbox) error

	// RunInTx runs fn against a Store bound to one transaction. An error
	// from fn rolls every write back.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}

type Repo struct {
	db     *gorm.DB
	client *supabase.Client
}

func NewRepo(client *supabase.Client) *Repo {
	return &Repo{db: client.DB(), client: client}
}

func (r *Repo) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if r.client == nil {
		// already inside a transaction
		return fn(r)
	}
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(&Repo{db: tx})
	})
}

func (r *Repo) EnqueueSync(ctx context.Context, row *supabase.SyncOutbox) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// LoadOrder fetches an order with its customer, supplier, and items.
func (r *Repo) LoadOrder(ctx context.Context, id string) (*supabase.Order, error) {
	oid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid order id %q", ErrNotFound, id)
	}

	var order supabase.Order
	err = r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Supplier").
		Preload("Items.Product").
		First(&order, "id = ?", oid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&supabase.Order{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repo) InsertAudit(ctx context.Context, row *supabase.AuditLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repo) InsertNotification(ctx context.Context, row *supabase.Notification) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repo) InsertTransaction(ctx context.Context, row *supabase.FinancialTransaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repo) InsertCommission(ctx context.Context, row *supabase.UserCommission) error {
	return r.db.WithContext(ctx).Create(row).Error
}
