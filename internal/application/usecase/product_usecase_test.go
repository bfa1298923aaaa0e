package usecase_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

func newProductUseCase(t *testing.T) (*usecase.ProductUseCase, *memory.DB) {
	t.Helper()
	db, err := memory.NewDB()
	require.NoError(t, err)
	return usecase.NewProductUseCase(
		memory.NewProductRepository(db),
		memory.NewInventoryRepository(db),
		memory.NewMovementRepository(db),
	), db
}

func TestGenerateSKU(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-ZÁÉÍÓÚÑ0-9]{1,3}-\d{6}$`)
	assert.Regexp(t, pattern, usecase.GenerateSKU("electrónica"))
	assert.Regexp(t, `^ELE-\d{6}$`, usecase.GenerateSKU("electrónica"))
	assert.Regexp(t, `^TV-\d{6}$`, usecase.GenerateSKU("tv"))
	assert.Regexp(t, `^GEN-\d{6}$`, usecase.GenerateSKU("  "))
}

func TestProductUseCase_CreateGeneraSKU(t *testing.T) {
	uc, _ := newProductUseCase(t)
	out, err := uc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Cable USB", Category: "Electrónica", Price: decimal.RequireFromString("12.345"),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^ELE-\d{6}$`, out.SKU)
	assert.True(t, out.Price.Equal(decimal.RequireFromString("12.35")))
	assert.NotEmpty(t, out.ID)
}

func TestProductUseCase_Validaciones(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Category: "Ropa"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "Camisa", Category: "Ropa", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "A", Category: "Ropa", SKU: "ROP-1"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateProductRequest{Name: "B", Category: "Ropa", SKU: "ROP-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_UpdateParcial(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Camisa", Category: "Ropa", Price: decimal.NewFromInt(30), SKU: "ROP-1"})
	require.NoError(t, err)

	price := decimal.NewFromInt(45)
	updated, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Camisa", updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "ROP-1", updated.SKU)
}

func TestProductUseCase_ListPaginaPorDefecto(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := uc.Create(ctx, dto.CreateProductRequest{Name: string(rune('a' + i)), Category: "Ropa"})
		require.NoError(t, err)
	}
	out, err := uc.List(ctx, repository.ProductFilter{}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, out.Items, dto.DefaultPageLimit)
	assert.Equal(t, 12, out.Page.Total)
	assert.Equal(t, "a", out.Items[0].Name)

	lo, hi := decimal.NewFromInt(5), decimal.NewFromInt(1)
	_, err = uc.List(ctx, repository.ProductFilter{PriceMin: &lo, PriceMax: &hi}, dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_DeleteConHistorialEsConflicto(t *testing.T) {
	uc, db := newProductUseCase(t)
	ctx := context.Background()
	p, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Camisa", Category: "Ropa"})
	require.NoError(t, err)
	require.NoError(t, memory.NewMovementRepository(db).Append(ctx, &entity.Movement{
		ProductID: p.ID, TargetStoreID: "s1", Quantity: 1, Type: entity.MovementTypeIN,
	}))
	assert.ErrorIs(t, uc.Delete(ctx, p.ID), domain.ErrConflict)

	free, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Libre", Category: "Ropa"})
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, free.ID))
	_, err = uc.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
