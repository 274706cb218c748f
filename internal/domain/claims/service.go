package claims

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/metrics"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

const (
	bulkPageSize    = 100
	bulkConcurrency = 10
)

type Service struct {
	provider Provider
	logg     *logger.Logger
	metrics  *metrics.SyncMetrics
}

func NewService(provider Provider, logg *logger.Logger, m *metrics.SyncMetrics) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{provider: provider, logg: logg, metrics: m}
}

// OnUserUpdated pushes the user's new role into its custom claims. Provider
// failures are logged and never surface to the trigger.
func (s *Service) OnUserUpdated(ctx context.Context, uid string, before, after map[string]any) Outcome {
	ctx = s.logg.WithField(ctx, "user_id", uid)
	oldRole := roleOf(before)
	newRole := roleOf(after)

	out := s.propagate(ctx, uid, oldRole, newRole)
	s.metrics.IncTrigger("claims", string(out))
	return out
}

func (s *Service) propagate(ctx context.Context, uid, oldRole, newRole string) Outcome {
	if newRole == oldRole {
		s.logg.Info(ctx, "role unchanged")
		return OutcomeUnchanged
	}
	if newRole == "" {
		s.logg.Info(ctx, "role removed, claims left untouched")
		return OutcomeNoRole
	}

	if err := s.provider.SetCustomUserClaims(ctx, uid, map[string]interface{}{"role": newRole}); err != nil {
		s.logg.Error(ctx, "error setting custom claim", err)
		return OutcomeFailed
	}

	ctx = s.logg.WithField(ctx, "role", newRole)
	s.logg.Info(ctx, "custom claim set")
	return OutcomeSet
}

// ApplyAll stamps role on every auth account. Per-user failures are counted.
func (s *Service) ApplyAll(ctx context.Context, role string) (BulkResult, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return BulkResult{}, fmt.Errorf("%w: role is required", ErrBadRequest)
	}

	var processed, failed atomic.Int64
	token := ""
	for {
		users, next, err := s.provider.ListUsers(ctx, bulkPageSize, token)
		if err != nil {
			return BulkResult{Processed: int(processed.Load()), Failed: int(failed.Load())}, fmt.Errorf("listing users: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(bulkConcurrency)
		for _, u := range users {
			g.Go(func() error {
				uctx := s.logg.WithField(gctx, "user_id", u.UID)
				if err := s.provider.SetCustomUserClaims(uctx, u.UID, map[string]interface{}{"role": role}); err != nil {
					s.logg.Error(uctx, "failed to set claims", err)
					failed.Add(1)
					return nil
				}
				processed.Add(1)
				return nil
			})
		}
		_ = g.Wait()

		if next == "" {
			break
		}
		token = next
	}

	res := BulkResult{Processed: int(processed.Load()), Failed: int(failed.Load())}
	ctx = s.logg.WithFields(ctx, map[string]any{"processed": res.Processed, "failed": res.Failed, "role": role})
	s.logg.Info(ctx, "bulk claims run finished")
	return res, nil
}

// ApplyByEmail stamps role on the single account owning email.
func (s *Service) ApplyByEmail(ctx context.Context, email, role string) (string, error) {
	email = strings.TrimSpace(email)
	role = strings.TrimSpace(role)
	if email == "" || role == "" {
		return "", fmt.Errorf("%w: email and role are required", ErrBadRequest)
	}

	uid, err := s.provider.UIDByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.ApplyUID(ctx, uid, role); err != nil {
		return "", err
	}
	return uid, nil
}

// ApplyUID stamps role on one account.
func (s *Service) ApplyUID(ctx context.Context, uid, role string) error {
	if strings.TrimSpace(uid) == "" || strings.TrimSpace(role) == "" {
		return fmt.Errorf("%w: uid and role are required", ErrBadRequest)
	}
	if err := s.provider.SetCustomUserClaims(ctx, uid, map[string]interface{}{"role": role}); err != nil {
		return fmt.Errorf("set claims for %s: %w", uid, err)
	}
	return nil
}

func roleOf(doc map[string]any) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(doc["role"]))
}
