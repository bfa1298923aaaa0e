package entity

import "time"

// InventoryCell es la celda del ledger: cantidad actual de un producto en una tienda.
// Existe a lo sumo una por (ProductID, StoreID) y Quantity nunca es negativa.
type InventoryCell struct {
	ProductID string
	StoreID   string
	Quantity  int
	MinStock  int // umbral de alerta; 0 = sin alerta
	UpdatedAt time.Time
}

// IsLowStock indica si la celda está estrictamente por debajo de su umbral.
// Una celda con Quantity == MinStock no está en alerta.
func (c *InventoryCell) IsLowStock() bool {
	return c.Quantity < c.MinStock
}
