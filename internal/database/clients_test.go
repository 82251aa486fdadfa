package database

import (
	"context"
	"testing"

	"zapis/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateAndGetByPhone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	client := &models.Client{Name: models.ProvisionalClientName, Phone: "+79001234567"}
	require.NoError(t, db.CreateClient(ctx, client))
	assert.NotZero(t, client.ID)

	got, err := db.GetClientByPhone(ctx, "+79001234567")
	require.NoError(t, err)
	assert.Equal(t, client.ID, got.ID)
	assert.Equal(t, models.ProvisionalClientName, got.Name)
}

func TestGetClientByPhone_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetClientByPhone(context.Background(), "+79990000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateClient_DuplicatePhone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateClient(ctx, &models.Client{Name: "Иван", Phone: "+79001234567"}))

	err := db.CreateClient(ctx, &models.Client{Name: "Пётр", Phone: "+79001234567"})
	assert.Error(t, err)
}

func TestUpdateClientName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	client := &models.Client{Name: models.ProvisionalClientName, Phone: "+79001234567"}
	require.NoError(t, db.CreateClient(ctx, client))

	require.NoError(t, db.UpdateClientName(ctx, client.ID, "Иван Петров"))

	got, err := db.GetClientByPhone(ctx, "+79001234567")
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", got.Name)
}
