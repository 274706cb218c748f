package storesync

import (
	"context"
	"testing"

	"jengamate/backend/internal/supabase"
	"jengamate/backend/internal/supabase/supabasetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRefRepoSetsExternalID(t *testing.T) {
	db := supabasetest.Open(t)
	id := uuid.New()
	require.NoError(t, db.Create(&supabase.Order{ID: id, OrderNumber: "JM-1", Status: "pending"}).Error)

	repo := NewOrderRefRepo(db)
	require.NoError(t, repo.SetExternalID(context.Background(), id.String(), id.String()))

	var got supabase.Order
	require.NoError(t, db.First(&got, "id = ?", id).Error)
	require.NotNil(t, got.ExternalID)
	assert.Equal(t, id.String(), *got.ExternalID)
}
