package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StoreRepository define el puerto de persistencia para Store (DIP).
type StoreRepository interface {
	Create(ctx context.Context, store *entity.Store) error
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	GetByName(ctx context.Context, name string) (*entity.Store, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Store, int, error)
}
