package orderwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"
	"jengamate/backend/internal/supabase"

	"github.com/google/uuid"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 2 * time.Second
	defaultMaxAttempts = 10
	maxBackoff         = 30 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type outboxStore interface {
	FetchPending(ctx context.Context, limit, maxAttempts int, now time.Time) ([]supabase.SyncOutbox, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, err error, retryAt time.Time) error
	MarkTerminal(ctx context.Context, id uuid.UUID, err error, maxAttempts int) error
}

type RelayParams struct {
	Outbox       outboxStore
	Sender       Forwarder
	Logger       *logger.Logger
	Metrics      *metrics.SyncMetrics
	BatchSize    int
	PollInterval time.Duration
	MaxAttempts  int
}

// Relay drains sync_outbox into the sync endpoint.
type Relay struct {
	outbox       outboxStore
	sender       Forwarder
	logg         *logger.Logger
	metrics      *metrics.SyncMetrics
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	now          func() time.Time
}

func NewRelay(p RelayParams) (*Relay, error) {
	if p.Outbox == nil {
		return nil, errors.New("outbox repository is required")
	}
	if p.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.BatchSize <= 0 {
		p.BatchSize = defaultBatchSize
	}
	if p.PollInterval <= 0 {
		p.PollInterval = defaultPoll
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	return &Relay{
		outbox:       p.Outbox,
		sender:       p.Sender,
		logg:         p.Logger,
		metrics:      p.Metrics,
		batchSize:    p.BatchSize,
		pollInterval: p.PollInterval,
		maxAttempts:  p.MaxAttempts,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run polls until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	backoff := r.pollInterval
	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "sync relay stopped")
			return ctx.Err()
		default:
		}

		delivered, err := r.ProcessBatch(ctx)
		if err != nil {
			r.logg.Error(ctx, "sync relay batch error", err)
			backoff = nextBackoff(backoff, r.pollInterval, maxBackoff)
			if err := sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = r.pollInterval

		if delivered > 0 {
			continue
		}
		if err := sleep(ctx, withJitter(r.pollInterval)); err != nil {
			return err
		}
	}
}

// ProcessBatch sends one batch and returns how many rows were delivered.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	rows, err := r.outbox.FetchPending(ctx, r.batchSize, r.maxAttempts, r.now())
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}

	delivered := 0
	for _, row := range rows {
		rctx := r.logg.WithFields(ctx, map[string]any{
			"outbox_id":  row.ID.String(),
			"resource":   row.Resource,
			"event_type": row.EventType,
			"attempt":    row.AttemptCount + 1,
		})

		sendErr := r.send(rctx, row)
		switch {
		case sendErr == nil:
			if err := r.outbox.MarkDelivered(rctx, row.ID); err != nil {
				return delivered, fmt.Errorf("mark delivered: %w", err)
			}
			delivered++
			r.metrics.IncRelay("delivered")
		case isPermanent(sendErr):
			r.logg.Error(rctx, "sync event rejected, parking", sendErr)
			if err := r.outbox.MarkTerminal(rctx, row.ID, sendErr, r.maxAttempts); err != nil {
				return delivered, fmt.Errorf("mark terminal: %w", err)
			}
			r.metrics.IncRelay("rejected")
		default:
			r.logg.Warn(rctx, "sync event delivery failed: "+sendErr.Error())
			retryAt := r.now().Add(r.retryDelay(row.AttemptCount + 1))
			if err := r.outbox.MarkFailed(rctx, row.ID, sendErr, retryAt); err != nil {
				return delivered, fmt.Errorf("mark failed: %w", err)
			}
			r.metrics.IncRelay("failed")
		}
	}
	return delivered, nil
}

func (r *Relay) send(ctx context.Context, row supabase.SyncOutbox) error {
	var payload map[string]any
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return &DeliveryError{Status: 422, Body: "undecodable payload: " + err.Error()}
	}
	return r.sender.Forward(ctx, Event{Resource: row.Resource, EventType: row.EventType, Payload: payload})
}

// retryDelay doubles the poll interval per failed attempt, capped at maxBackoff.
func (r *Relay) retryDelay(attempts int) time.Duration {
	d := r.pollInterval
	for i := 0; i < attempts && d < maxBackoff; i++ {
		d = nextBackoff(d, r.pollInterval, maxBackoff)
	}
	return withJitter(d)
}

func isPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Permanent()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
