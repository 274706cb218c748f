package tokenexchange

import (
	"context"
	"fmt"
	"strings"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/supabase"

	"firebase.google.com/go/v4/auth"
)

// Verifier checks Firebase ID tokens.
type Verifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Directory is the Supabase auth admin surface used by the exchange.
type Directory interface {
	FindUserByEmail(ctx context.Context, email string) (*supabase.AuthUser, error)
	CreateUser(ctx context.Context, p supabase.CreateUserParams) (*supabase.AuthUser, error)
	GenerateLink(ctx context.Context, typ supabase.LinkType, email string) (*supabase.GeneratedLink, error)
	VerifyTokenHash(ctx context.Context, typ supabase.LinkType, tokenHash string) (*supabase.Session, error)
}

type Request struct {
	FirebaseIDToken string `json:"firebaseIdToken"`
}

type Response struct {
	SupabaseAccessToken  string `json:"supabaseAccessToken"`
	SupabaseRefreshToken string `json:"supabaseRefreshToken"`
}

type Service struct {
	verifier  Verifier
	directory Directory
	logg      *logger.Logger
}

func NewService(verifier Verifier, directory Directory, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{verifier: verifier, directory: directory, logg: logg}
}

// Exchange trades a Firebase ID token for a Supabase session, provisioning
// the Supabase account on first use.
func (s *Service) Exchange(ctx context.Context, in Request) (*Response, error) {
	idToken := strings.TrimSpace(in.FirebaseIDToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: Firebase ID token is required", ErrBadRequest)
	}

	tok, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	email := claimString(tok.Claims, "email")
	if email == "" {
		email = tok.UID + "@firebase.user"
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"firebase_uid": tok.UID, "email": email})

	existing, err := s.directory.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up supabase user: %w", err)
	}
	if existing == nil {
		params := supabase.CreateUserParams{
			Email:        email,
			EmailConfirm: true,
			UserMetadata: map[string]any{"firebase_uid": tok.UID},
		}
		if phone := claimString(tok.Claims, "phone_number"); phone != "" {
			params.Phone = phone
			params.PhoneConfirm = true
		}
		switch _, err := s.directory.CreateUser(ctx, params); {
		case supabase.IsErrUserExists(err):
			// listed past the first page; sign the existing account in
			s.logg.Info(ctx, "supabase user already registered")
		case err != nil:
			return nil, fmt.Errorf("creating supabase user: %w", err)
		default:
			s.logg.Info(ctx, "provisioned supabase user")
		}
	}

	link, err := s.directory.GenerateLink(ctx, supabase.LinkMagic, email)
	if err != nil {
		return nil, fmt.Errorf("generating sign-in link: %w", err)
	}
	if link.HashedToken == "" {
		return nil, fmt.Errorf("generating sign-in link: no hashed token returned")
	}

	sess, err := s.directory.VerifyTokenHash(ctx, supabase.LinkMagic, link.HashedToken)
	if err != nil {
		return nil, fmt.Errorf("redeeming sign-in link: %w", err)
	}

	return &Response{
		SupabaseAccessToken:  sess.AccessToken,
		SupabaseRefreshToken: sess.RefreshToken,
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}
