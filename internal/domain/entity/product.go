package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El motor de inventario nunca lo modifica;
// las cantidades viven en InventoryCell, una por tienda.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal // NUMERIC(10,2)
	SKU         string          // único en todo el catálogo
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
