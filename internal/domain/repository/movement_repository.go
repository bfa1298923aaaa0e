package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// MovementFilter filtros del listado de movimientos. StoreID coincide con origen o destino.
type MovementFilter struct {
	ProductID string
	StoreID   string
	Type      string
}

// MovementRepository log de movimientos, solo inserción: nunca actualiza ni borra.
type MovementRepository interface {
	// Append asigna ID (si viene vacío) y Timestamp de commit, y persiste el registro.
	Append(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// List devuelve los movimientos más recientes primero.
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.Movement, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
