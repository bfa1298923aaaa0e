package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ProductFilter filtros del listado de catálogo. Campos nil/vacíos no filtran.
type ProductFilter struct {
	Search   string           // contiene, sin distinguir mayúsculas, sobre el nombre
	Category string           // igualdad sin distinguir mayúsculas
	PriceMin *decimal.Decimal // price >= PriceMin
	PriceMax *decimal.Decimal // price <= PriceMax
	HasStock *bool            // true: alguna celda con cantidad > 0; false: ninguna
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// List devuelve la página pedida ordenada por nombre y el total que cumple el filtro.
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int, error)
	Delete(ctx context.Context, id string) error
}
