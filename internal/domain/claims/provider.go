package claims

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// Provider is the auth backend the claims are written to.
type Provider interface {
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error
	UIDByEmail(ctx context.Context, email string) (string, error)
	ListUsers(ctx context.Context, pageSize int, pageToken string) ([]AuthUser, string, error)
}

// FirebaseProvider adapts the Firebase auth client.
type FirebaseProvider struct {
	client *auth.Client
}

func NewFirebaseProvider(client *auth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

func (p *FirebaseProvider) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	return p.client.SetCustomUserClaims(ctx, uid, claims)
}

func (p *FirebaseProvider) UIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := p.client.GetUserByEmail(ctx, email)
	if auth.IsUserNotFound(err) {
		return "", fmt.Errorf("%w: no user with email %s", ErrNotFound, email)
	}
	if err != nil {
		return "", err
	}
	return u.UID, nil
}

func (p *FirebaseProvider) ListUsers(ctx context.Context, pageSize int, pageToken string) ([]AuthUser, string, error) {
	pager := iterator.NewPager(p.client.Users(ctx, ""), pageSize, pageToken)

	var records []*auth.ExportedUserRecord
	next, err := pager.NextPage(&records)
	if err != nil {
		return nil, "", err
	}

	out := make([]AuthUser, 0, len(records))
	for _, r := range records {
		out = append(out, AuthUser{UID: r.UID, Email: r.Email})
	}
	return out, next, nil
}
