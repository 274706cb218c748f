package storesync

import (
	"context"

	"jengamate/backend/internal/supabase"

	"gorm.io/gorm"
)

// ExternalOrders back-references Firestore ids on Supabase order rows.
type ExternalOrders interface {
	SetExternalID(ctx context.Context, orderID, externalID string) error
}

type OrderRefRepo struct {
	db *gorm.DB
}

func NewOrderRefRepo(db *gorm.DB) *OrderRefRepo {
	return &OrderRefRepo{db: db}
}

func (r *OrderRefRepo) SetExternalID(ctx context.Context, orderID, externalID string) error {
	return r.db.WithContext(ctx).
		Model(&supabase.Order{}).
		Where("id = ?", orderID).
		Update("external_id", externalID).Error
}
