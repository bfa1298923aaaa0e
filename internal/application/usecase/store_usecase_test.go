package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

func TestStoreUseCase(t *testing.T) {
	db, err := memory.NewDB()
	require.NoError(t, err)
	uc := usecase.NewStoreUseCase(memory.NewStoreRepository(db))
	ctx := context.Background()

	norte, err := uc.Create(ctx, dto.CreateStoreRequest{Name: "Norte", City: "Bogotá"})
	require.NoError(t, err)
	assert.True(t, norte.IsActive)

	inactive := false
	_, err = uc.Create(ctx, dto.CreateStoreRequest{Name: "Centro", City: "Cali", IsActive: &inactive})
	require.NoError(t, err)

	_, err = uc.Create(ctx, dto.CreateStoreRequest{Name: "Norte", City: "Medellín"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.Create(ctx, dto.CreateStoreRequest{Name: "Sur"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Centro", list.Items[0].Name)
	assert.False(t, list.Items[0].IsActive)

	got, err := uc.GetByID(ctx, norte.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bogotá", got.City)
	_, err = uc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
