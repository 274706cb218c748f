package storesync

import (
	"context"
	"fmt"
	"time"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"
)

type Service struct {
	store    Store
	refs     ExternalOrders
	currency string
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
	now      func() time.Time
}

// NewService wires the sync endpoint. refs may be nil when no Supabase
// database is configured; the back-reference is then skipped.
func NewService(store Store, refs ExternalOrders, currency string, logg *logger.Logger, m *metrics.SyncMetrics) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		store:    store,
		refs:     refs,
		currency: currency,
		logg:     logg,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *Service) Handle(ctx context.Context, env Envelope) error {
	if env.Resource == "" || env.EventType == "" || env.Payload == nil {
		return ErrMissingFields
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"resource":   env.Resource,
		"event_type": env.EventType,
	})

	var err error
	switch env.Resource {
	case ResourcePayment:
		err = s.syncPayment(ctx, env.Payload)
	case ResourceOrder:
		err = s.syncOrder(ctx, env.Payload)
	default:
		err = ErrUnsupportedResource
	}

	switch {
	case err == nil:
		s.metrics.IncSyncEvent(env.Resource, "ok")
	case IsErrBadRequest(err):
		s.metrics.IncSyncEvent(env.Resource, "rejected")
	default:
		s.metrics.IncSyncEvent(env.Resource, "error")
	}
	return err
}

func (s *Service) syncPayment(ctx context.Context, payload map[string]any) error {
	p, err := NormalizePayment(payload)
	if err != nil {
		return err
	}
	ctx = s.logg.WithField(ctx, "payment_id", p.ID)

	res, err := s.store.ApplyPayment(ctx, p, s.now().UTC())
	if err != nil {
		return fmt.Errorf("sync payment %s: %w", p.ID, err)
	}

	if p.Accumulates() {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":    *p.OrderID,
			"amount_paid": res.AmountPaid,
			"accumulated": res.Accumulated,
		})
	}
	s.logg.Info(ctx, "payment synced")
	return nil
}

func (s *Service) syncOrder(ctx context.Context, payload map[string]any) error {
	o, err := NormalizeOrder(payload, s.currency, s.now().UTC())
	if err != nil {
		return err
	}
	ctx = s.logg.WithField(ctx, "order_id", o.ID)

	if err := s.store.MergeOrder(ctx, o.ID, o.Fields()); err != nil {
		return fmt.Errorf("sync order %s: %w", o.ID, err)
	}

	if s.refs != nil {
		if err := s.refs.SetExternalID(ctx, o.ID, o.ID); err != nil {
			s.logg.Error(ctx, "failed to set supabase external_id", err)
		}
	}
	s.logg.Info(ctx, "order synced")
	return nil
}
