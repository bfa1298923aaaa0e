package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InventoryRepository es el ledger de celdas (producto, tienda).
// Las mutaciones solo deben ocurrir dentro de la unidad de trabajo del motor de inventario.
type InventoryRepository interface {
	// GetCell devuelve nil, nil si la celda no existe.
	GetCell(ctx context.Context, productID, storeID string) (*entity.InventoryCell, error)

	// LockCells lee y bloquea las celdas existentes de un producto en el orden global
	// (inventory.LockOrder). Las celdas ausentes no aparecen en el mapa (clave: storeID).
	LockCells(ctx context.Context, productID string, storeIDs ...string) (map[string]*entity.InventoryCell, error)

	// UpsertCell crea la celda con quantity = max(0, delta) y min_stock = defaultMinStock si no existe;
	// si existe suma delta con una actualización aritmética en el almacenamiento.
	// Devuelve NegativeQuantityError si el resultado sobre una celda existente sería negativo.
	UpsertCell(ctx context.Context, productID, storeID string, delta, defaultMinStock int) (*entity.InventoryCell, error)

	// SetMinStock configura el umbral, creando una celda vacía si no existe.
	SetMinStock(ctx context.Context, productID, storeID string, minStock int) (*entity.InventoryCell, error)

	ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryCell, error)

	// ListLowStock celdas con quantity < min_stock (estricto).
	ListLowStock(ctx context.Context) ([]*entity.InventoryCell, error)

	CountByProduct(ctx context.Context, productID string) (int, error)
}
