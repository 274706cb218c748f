package migration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"jengamate/backend/internal/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportJSON = `{"users":[
  {"localId":"f1","email":"ann@example.com","displayName":"Ann","emailVerified":true},
  {"localId":"f2","email":"o'brien@example.com","displayName":"Pat O'Brien","emailVerified":"false"},
  {"localId":"f3","phoneNumber":"+255700000000"}
]}`

func TestParseExport(t *testing.T) {
	users, err := ParseExport(strings.NewReader(exportJSON))
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, ExportedUser{LocalID: "f1", Email: "ann@example.com", DisplayName: "Ann", EmailVerified: true}, users[0])
	assert.False(t, users[1].EmailVerified)
	assert.Empty(t, users[2].Email)

	bare, err := ParseExport(strings.NewReader(`[{"localId":"x","email":" x@y.z ","emailVerified":"1"}]`))
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", bare[0].Email)
	assert.True(t, bare[0].EmailVerified)

	_, err = ParseExport(strings.NewReader(`{"users":`))
	assert.Error(t, err)
}

func TestWriteSQLEscapesQuotes(t *testing.T) {
	users, err := ParseExport(strings.NewReader(exportJSON))
	require.NoError(t, err)

	var b strings.Builder
	n, err := WriteSQL(&b, users, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sql := b.String()
	assert.Contains(t, sql, "-- Generated on 2024-01-02T03:04:05Z")
	assert.Equal(t, 2, strings.Count(sql, "ON CONFLICT (email) DO NOTHING;"))
	assert.Contains(t, sql, "'o''brien@example.com'")
	assert.Contains(t, sql, `'{"display_name":"Pat O''Brien","firebase_local_id":"f2"}'`)
	assert.Contains(t, sql, "'ann@example.com',\n  NOW(),")
	assert.Contains(t, sql, "'o''brien@example.com',\n  NULL,")
	assert.Contains(t, sql, "FROM auth.users\nORDER BY created_at DESC;")
}

type fakeDirectory struct {
	created  []supabase.CreateUserParams
	failUser string
	failLink string
}

func (f *fakeDirectory) CreateUser(_ context.Context, p supabase.CreateUserParams) (*supabase.AuthUser, error) {
	if p.Email == f.failUser {
		return nil, errors.New("User already registered")
	}
	f.created = append(f.created, p)
	return &supabase.AuthUser{ID: "sb-" + p.Email, Email: p.Email}, nil
}

func (f *fakeDirectory) GenerateLink(_ context.Context, typ supabase.LinkType, email string) (*supabase.GeneratedLink, error) {
	if email == f.failLink {
		return nil, errors.New("rate limited")
	}
	return &supabase.GeneratedLink{ActionLink: "https://auth.example/" + string(typ) + "?e=" + email}, nil
}

func TestImport(t *testing.T) {
	users := []ExportedUser{
		{LocalID: "f1", Email: "ann@example.com", DisplayName: "Ann", EmailVerified: true},
		{LocalID: "f2", Email: "dup@example.com"},
		{LocalID: "f3"},
		{LocalID: "f4", Email: "nolink@example.com"},
	}
	dir := &fakeDirectory{failUser: "dup@example.com", failLink: "nolink@example.com"}

	sum, err := NewImporter(dir, nil).Import(context.Background(), users)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 1, sum.Skipped)

	require.Len(t, sum.Users, 4)
	assert.Equal(t, StatusCreatedWithLink, sum.Users[0].Status)
	assert.Equal(t, "https://auth.example/recovery?e=ann@example.com", sum.Users[0].ResetLink)
	assert.Equal(t, StatusError, sum.Users[1].Status)
	assert.Equal(t, "User already registered", sum.Users[1].Error)
	assert.Equal(t, StatusSkipped, sum.Users[2].Status)
	assert.Equal(t, StatusCreatedNoLink, sum.Users[3].Status)

	require.Len(t, dir.created, 2)
	assert.True(t, dir.created[0].EmailConfirm)
	assert.Equal(t, "f1", dir.created[0].UserMetadata["firebase_local_id"])
}
