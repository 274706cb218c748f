package orderwebhook

import (
	"context"
	"time"

	"jengamate/backend/internal/supabase"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepo(db *gorm.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

func (r *OutboxRepo) Insert(ctx context.Context, row *supabase.SyncOutbox) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// FetchPending returns undelivered rows that still have attempts left and
// whose retry time has come, oldest first.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit, maxAttempts int, now time.Time) ([]supabase.SyncOutbox, error) {
	var rows []supabase.SyncOutbox
	err := r.db.WithContext(ctx).
		Where("delivered_at IS NULL").
		Where("attempt_count < ?", maxAttempts).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now.UTC()).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *OutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&supabase.SyncOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"delivered_at": time.Now().UTC(),
		}).Error
}

// MarkFailed records a transient failure and hides the row until retryAt.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, err error, retryAt time.Time) error {
	return r.db.WithContext(ctx).Model(&supabase.SyncOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":      err.Error(),
			"attempt_count":   gorm.Expr("attempt_count + 1"),
			"next_attempt_at": retryAt.UTC(),
		}).Error
}

// MarkTerminal parks a row so it is never fetched again.
func (r *OutboxRepo) MarkTerminal(ctx context.Context, id uuid.UUID, err error, maxAttempts int) error {
	return r.db.WithContext(ctx).Model(&supabase.SyncOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": maxAttempts,
		}).Error
}
