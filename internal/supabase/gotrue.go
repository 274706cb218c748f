package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gotrue "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"
)

// ErrUserExists is returned by CreateUser when the email is already taken.
var ErrUserExists = errors.New("supabase auth: user already registered")

// AuthAdmin wraps the Supabase auth (GoTrue) admin API, authenticated with
// the service role key. The client library takes no context, so ctx only
// scopes logging here and the http.Client timeout bounds each call.
type AuthAdmin struct {
	client gotrue.Client
}

func NewAuthAdmin(baseURL, serviceKey string, httpClient *http.Client) *AuthAdmin {
	c := gotrue.New("", serviceKey).
		WithCustomAuthURL(strings.TrimRight(baseURL, "/") + "/auth/v1").
		WithToken(serviceKey)
	if httpClient != nil {
		c = c.WithClient(*httpClient)
	}
	return &AuthAdmin{client: c}
}

type AuthUser struct {
	ID           string
	Email        string
	Phone        string
	UserMetadata map[string]any
}

type CreateUserParams struct {
	Email        string
	EmailConfirm bool
	Phone        string
	PhoneConfirm bool
	UserMetadata map[string]any
}

type LinkType string

const (
	LinkMagic    LinkType = "magiclink"
	LinkRecovery LinkType = "recovery"
)

type GeneratedLink struct {
	ActionLink  string
	HashedToken string
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
}

// FindUserByEmail returns nil, nil when no user on the first listing page
// has exactly that email. Callers that go on to create the user must
// tolerate ErrUserExists for accounts beyond that page.
func (a *AuthAdmin) FindUserByEmail(_ context.Context, email string) (*AuthUser, error) {
	resp, err := a.client.AdminListUsers()
	if err != nil {
		return nil, fmt.Errorf("supabase auth: list users: %w", err)
	}
	for _, u := range resp.Users {
		if strings.EqualFold(u.Email, email) {
			return toAuthUser(u), nil
		}
	}
	return nil, nil
}

func (a *AuthAdmin) CreateUser(_ context.Context, p CreateUserParams) (*AuthUser, error) {
	resp, err := a.client.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        p.Email,
		EmailConfirm: p.EmailConfirm,
		Phone:        p.Phone,
		PhoneConfirm: p.PhoneConfirm,
		UserMetadata: p.UserMetadata,
	})
	if err != nil {
		if alreadyRegistered(err) {
			return nil, fmt.Errorf("%w: %v", ErrUserExists, err)
		}
		return nil, fmt.Errorf("supabase auth: create user: %w", err)
	}
	return toAuthUser(resp.User), nil
}

func (a *AuthAdmin) GenerateLink(_ context.Context, typ LinkType, email string) (*GeneratedLink, error) {
	resp, err := a.client.AdminGenerateLink(types.AdminGenerateLinkRequest{
		Type:  types.LinkType(typ),
		Email: email,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase auth: generate link: %w", err)
	}
	return &GeneratedLink{ActionLink: resp.ActionLink, HashedToken: resp.HashedToken}, nil
}

// VerifyTokenHash redeems a hashed token from GenerateLink for a session.
func (a *AuthAdmin) VerifyTokenHash(_ context.Context, typ LinkType, tokenHash string) (*Session, error) {
	resp, err := a.client.VerifyForUser(types.VerifyForUserRequest{
		Type:      types.VerificationType(typ),
		TokenHash: tokenHash,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase auth: verify: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, errors.New("supabase auth: verify returned no session")
	}
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	}, nil
}

func IsErrUserExists(err error) bool { return errors.Is(err, ErrUserExists) }

func toAuthUser(u types.User) *AuthUser {
	return &AuthUser{
		ID:           u.ID.String(),
		Email:        u.Email,
		Phone:        u.Phone,
		UserMetadata: u.UserMetadata,
	}
}

// the library reports non-2xx answers as plain errors carrying the body
func alreadyRegistered(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already been registered") ||
		strings.Contains(msg, "email_exists") ||
		strings.Contains(msg, "already registered")
}
