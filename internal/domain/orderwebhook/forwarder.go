package orderwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/middleware"
	"jengamate/backend/internal/supabase"
)

// Forwarder hands cross-store events to the sync endpoint, directly or
// through the outbox.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

// DeliveryError is a non-2xx answer from the sync endpoint.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sync endpoint returned %d: %s", e.Status, e.Body)
}

// Permanent reports whether retrying cannot help.
func (e *DeliveryError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests && e.Status != http.StatusRequestTimeout
}

type HTTPForwarder struct {
	url    string
	secret string
	client *http.Client
	logg   *logger.Logger
}

func NewHTTPForwarder(url, secret string, timeout time.Duration, logg *logger.Logger) *HTTPForwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &HTTPForwarder{
		url:    strings.TrimSpace(url),
		secret: secret,
		client: &http.Client{Timeout: timeout},
		logg:   logg,
	}
}

func (f *HTTPForwarder) Configured() bool { return f.url != "" }

func (f *HTTPForwarder) Forward(ctx context.Context, ev Event) error {
	if !f.Configured() {
		f.logg.Warn(ctx, "FIREBASE_SYNC_URL not configured, skipping Firebase sync")
		return nil
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SyncSecretHeader, f.secret)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s %s: %w", ev.Resource, ev.EventType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	ctx = f.logg.WithFields(ctx, map[string]any{"resource": ev.Resource, "event_type": ev.EventType})
	f.logg.Info(ctx, "posted event to Firebase sync endpoint")
	return nil
}

// TxForwarder enqueues an event inside the caller's transaction, so the
// event commits or rolls back with the writes that produced it.
type TxForwarder interface {
	Forwarder
	ForwardIn(ctx context.Context, tx Store, ev Event) error
}

// OutboxForwarder appends events to sync_outbox for the relay to deliver.
type OutboxForwarder struct {
	repo *OutboxRepo
}

func NewOutboxForwarder(repo *OutboxRepo) *OutboxForwarder {
	return &OutboxForwarder{repo: repo}
}

func (f *OutboxForwarder) Forward(ctx context.Context, ev Event) error {
	row, err := outboxRow(ev)
	if err != nil {
		return err
	}
	return f.repo.Insert(ctx, row)
}

func (f *OutboxForwarder) ForwardIn(ctx context.Context, tx Store, ev Event) error {
	row, err := outboxRow(ev)
	if err != nil {
		return err
	}
	return tx.EnqueueSync(ctx, row)
}

func outboxRow(ev Event) (*supabase.SyncOutbox, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	return &supabase.SyncOutbox{
		Resource:  ev.Resource,
		EventType: ev.EventType,
		Payload:   payload,
	}, nil
}
