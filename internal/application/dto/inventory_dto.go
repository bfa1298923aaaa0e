package dto

import "time"

// TransferRequest body para POST /api/inventory/transfer.
type TransferRequest struct {
	ProductID     string `json:"product_id"`
	SourceStoreID string `json:"source_store_id"`
	TargetStoreID string `json:"target_store_id"`
	Quantity      int    `json:"quantity"`
}

// RegisterMovementRequest body para POST /api/inventory/movements.
// IN: product_id, target_store_id (o store_id), quantity, min_stock opcional.
// OUT: product_id, source_store_id (o store_id), quantity.
// TRANSFER: product_id, source_store_id, target_store_id, quantity.
type RegisterMovementRequest struct {
	Type          string `json:"type"`
	ProductID     string `json:"product_id"`
	StoreID       string `json:"store_id,omitempty"`
	SourceStoreID string `json:"source_store_id,omitempty"`
	TargetStoreID string `json:"target_store_id,omitempty"`
	Quantity      int    `json:"quantity"`
	MinStock      *int   `json:"min_stock,omitempty"`
}

// SetMinStockRequest body para PUT /api/inventory/min-stock.
type SetMinStockRequest struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
	MinStock  int    `json:"min_stock"`
}

// InventoryCellResponse salida de una celda del ledger.
type InventoryCellResponse struct {
	ProductID string    `json:"product_id"`
	StoreID   string    `json:"store_id"`
	Quantity  int       `json:"quantity"`
	MinStock  int       `json:"min_stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MovementResponse salida de un movimiento del ledger.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	SourceStoreID *string   `json:"source_store_id"`
	TargetStoreID *string   `json:"target_store_id"`
	Quantity      int       `json:"quantity"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// MovementListResponse página de movimientos, más recientes primero.
type MovementListResponse struct {
	Items  []MovementResponse `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// LowStockLine fila del reporte de bajo stock con nombres resueltos.
type LowStockLine struct {
	ProductID   string
	ProductName string
	SKU         string
	StoreID     string
	StoreName   string
	City        string
	Quantity    int
	MinStock    int
}
