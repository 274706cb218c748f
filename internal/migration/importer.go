package migration

import (
	"context"

	"jengamate/backend/internal/logger"
	"jengamate/backend/internal/supabase"
)

// Directory is the part of the Supabase auth admin API the importer drives.
type Directory interface {
	CreateUser(ctx context.Context, p supabase.CreateUserParams) (*supabase.AuthUser, error)
	GenerateLink(ctx context.Context, typ supabase.LinkType, email string) (*supabase.GeneratedLink, error)
}

type Status string

const (
	StatusCreatedWithLink Status = "created_with_link"
	StatusCreatedNoLink   Status = "created_no_link"
	StatusError           Status = "error"
	StatusSkipped         Status = "skipped"
)

type UserResult struct {
	Email     string
	LocalID   string
	UserID    string
	Status    Status
	ResetLink string
	Error     string
}

type Summary struct {
	Created int
	Errors  int
	Skipped int
	Users   []UserResult
}

// Importer creates users through the admin API. Password hashes do not carry
// over, so each created user gets a recovery link instead.
type Importer struct {
	dir  Directory
	logg *logger.Logger
}

func NewImporter(dir Directory, logg *logger.Logger) *Importer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Importer{dir: dir, logg: logg}
}

func (im *Importer) Import(ctx context.Context, users []ExportedUser) (Summary, error) {
	var sum Summary
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r := im.importOne(ctx, u)
		switch r.Status {
		case StatusCreatedWithLink, StatusCreatedNoLink:
			sum.Created++
		case StatusError:
			sum.Errors++
		case StatusSkipped:
			sum.Skipped++
		}
		sum.Users = append(sum.Users, r)
	}

	im.logg.Info(im.logg.WithFields(ctx, map[string]any{
		"created": sum.Created,
		"errors":  sum.Errors,
		"skipped": sum.Skipped,
	}), "user import finished")
	return sum, nil
}

func (im *Importer) importOne(ctx context.Context, u ExportedUser) UserResult {
	r := UserResult{Email: u.Email, LocalID: u.LocalID}
	if u.Email == "" {
		im.logg.Warn(im.logg.WithField(ctx, "firebase_local_id", u.LocalID), "skipping user without email")
		r.Status = StatusSkipped
		return r
	}
	ctx = im.logg.WithField(ctx, "email", u.Email)

	created, err := im.dir.CreateUser(ctx, supabase.CreateUserParams{
		Email:        u.Email,
		EmailConfirm: u.EmailVerified,
		UserMetadata: map[string]any{
			"display_name":      u.DisplayName,
			"firebase_local_id": u.LocalID,
		},
	})
	if err != nil {
		im.logg.Error(ctx, "create user failed", err)
		r.Status = StatusError
		r.Error = err.Error()
		return r
	}
	r.UserID = created.ID

	link, err := im.dir.GenerateLink(ctx, supabase.LinkRecovery, u.Email)
	if err != nil {
		im.logg.Error(ctx, "generate recovery link failed", err)
		r.Status = StatusCreatedNoLink
		return r
	}
	r.Status = StatusCreatedWithLink
	r.ResetLink = link.ActionLink
	return r
}
