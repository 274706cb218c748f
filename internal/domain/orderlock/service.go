package orderlock

import (
	"context"
	"time"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"

	"github.com/spf13/cast"
)

const (
	OrdersCollection = "orders"
	StatusFullyPaid  = "fullyPaid"
)

type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeLocked    Outcome = "locked"
	OutcomeFailed    Outcome = "failed"
)

// Merger merge-writes fields onto a document.
type Merger interface {
	Merge(ctx context.Context, collection, id string, data map[string]any) error
}

type Service struct {
	docs    Merger
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	now     func() time.Time
}

func NewService(docs Merger, logg *logger.Logger, m *metrics.SyncMetrics) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{docs: docs, logg: logg, metrics: m, now: time.Now}
}

// OnOrderUpdated latches isLocked when the status moves into fullyPaid.
// Nothing ever clears the latch.
func (s *Service) OnOrderUpdated(ctx context.Context, orderID string, before, after map[string]any) Outcome {
	out := s.lock(ctx, orderID, statusOf(before), statusOf(after))
	s.metrics.IncTrigger("order_lock", string(out))
	return out
}

func (s *Service) lock(ctx context.Context, orderID, oldStatus, newStatus string) Outcome {
	if newStatus != StatusFullyPaid || oldStatus == StatusFullyPaid {
		return OutcomeUnchanged
	}

	ctx = s.logg.WithField(ctx, "order_id", orderID)
	s.logg.Info(ctx, "order fully paid, locking")

	err := s.docs.Merge(ctx, OrdersCollection, orderID, map[string]any{
		"isLocked":  true,
		"updatedAt": s.now().UTC(),
	})
	if err != nil {
		s.logg.Error(ctx, "failed to lock order", err)
		return OutcomeFailed
	}
	return OutcomeLocked
}

func statusOf(doc map[string]any) string {
	if doc == nil {
		return ""
	}
	return cast.ToString(doc["status"])
}
