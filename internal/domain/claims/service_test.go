package claims

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"jengamate/backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	set     map[string]map[string]interface{}
	failFor map[string]bool
	pages   [][]AuthUser
	byEmail map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{set: map[string]map[string]interface{}{}, failFor: map[string]bool{}}
}

func (f *fakeProvider) SetCustomUserClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[uid] {
		return errors.New("quota exceeded")
	}
	f.set[uid] = claims
	return nil
}

func (f *fakeProvider) UIDByEmail(_ context.Context, email string) (string, error) {
	uid, ok := f.byEmail[email]
	if !ok {
		return "", fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
	}
	return uid, nil
}

func (f *fakeProvider) ListUsers(_ context.Context, _ int, pageToken string) ([]AuthUser, string, error) {
	idx := 0
	if pageToken != "" {
		_, _ = fmt.Sscanf(pageToken, "page-%d", &idx)
	}
	next := ""
	if idx+1 < len(f.pages) {
		next = fmt.Sprintf("page-%d", idx+1)
	}
	return f.pages[idx], next, nil
}

func TestOnUserUpdated(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]any
		after  map[string]any
		want   Outcome
		calls  int
	}{
		{"same role", map[string]any{"role": "engineer"}, map[string]any{"role": "engineer"}, OutcomeUnchanged, 0},
		{"role removed", map[string]any{"role": "engineer"}, map[string]any{"name": "x"}, OutcomeNoRole, 0},
		{"role emptied", map[string]any{"role": "engineer"}, map[string]any{"role": ""}, OutcomeNoRole, 0},
		{"role changed", map[string]any{"role": "engineer"}, map[string]any{"role": "supplier"}, OutcomeSet, 1},
		{"role added", nil, map[string]any{"role": "admin"}, OutcomeSet, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			svc := NewService(p, logger.Nop(), nil)

			got := svc.OnUserUpdated(context.Background(), "u1", tt.before, tt.after)
			assert.Equal(t, tt.want, got)
			assert.Len(t, p.set, tt.calls)
			if tt.calls == 1 {
				assert.Equal(t, map[string]interface{}{"role": tt.after["role"]}, p.set["u1"])
			}
		})
	}
}

func TestOnUserUpdatedSwallowsProviderFailure(t *testing.T) {
	p := newFakeProvider()
	p.failFor["u1"] = true
	svc := NewService(p, logger.Nop(), nil)

	got := svc.OnUserUpdated(context.Background(), "u1", map[string]any{"role": "a"}, map[string]any{"role": "b"})
	assert.Equal(t, OutcomeFailed, got)
}

func TestApplyAllCountsFailures(t *testing.T) {
	p := newFakeProvider()
	p.pages = [][]AuthUser{
		{{UID: "a"}, {UID: "b"}, {UID: "c"}},
		{{UID: "d"}, {UID: "e"}},
	}
	p.failFor["d"] = true
	svc := NewService(p, logger.Nop(), nil)

	res, err := svc.ApplyAll(context.Background(), DefaultBulkRole)
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Processed: 4, Failed: 1}, res)
	assert.Equal(t, "authenticated", p.set["e"]["role"])
	assert.NotContains(t, p.set, "d")

	_, err = svc.ApplyAll(context.Background(), " ")
	assert.True(t, IsErrBadRequest(err))
}

func TestApplyByEmail(t *testing.T) {
	p := newFakeProvider()
	p.byEmail = map[string]string{"ann@example.com": "uid-ann"}
	svc := NewService(p, logger.Nop(), nil)

	uid, err := svc.ApplyByEmail(context.Background(), "ann@example.com", "authenticated")
	require.NoError(t, err)
	assert.Equal(t, "uid-ann", uid)
	assert.Equal(t, "authenticated", p.set["uid-ann"]["role"])

	_, err = svc.ApplyByEmail(context.Background(), "nobody@example.com", "authenticated")
	assert.True(t, IsErrNotFound(err))
}
