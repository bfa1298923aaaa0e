package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

const cellColumns = `product_id, store_id, quantity, min_stock, updated_at`

// InventoryRepo ledger de celdas sobre la tabla stock (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

func scanCell(row pgx.Row) (*entity.InventoryCell, error) {
	var c entity.InventoryCell
	if err := row.Scan(&c.ProductID, &c.StoreID, &c.Quantity, &c.MinStock, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCells(rows pgx.Rows) ([]*entity.InventoryCell, error) {
	defer rows.Close()
	var list []*entity.InventoryCell
	for rows.Next() {
		c, err := scanCell(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetCell devuelve nil, nil si la celda no existe.
func (r *InventoryRepo) GetCell(ctx context.Context, productID, storeID string) (*entity.InventoryCell, error) {
	if !validID(productID) || !validID(storeID) {
		return nil, nil
	}
	c, err := scanCell(r.q.QueryRow(ctx,
		`SELECT `+cellColumns+` FROM stock WHERE product_id = $1 AND store_id = $2`,
		productID, storeID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get cell", err)
	}
	return c, nil
}

// LockCells bloquea las filas existentes (SELECT FOR UPDATE) en el orden global de bloqueo.
func (r *InventoryRepo) LockCells(ctx context.Context, productID string, storeIDs ...string) (map[string]*entity.InventoryCell, error) {
	ordered := inventory.LockOrder(storeIDs...)
	rows, err := r.q.Query(ctx,
		`SELECT `+cellColumns+` FROM stock
		 WHERE product_id = $1 AND store_id = ANY($2::uuid[])
		 ORDER BY product_id, store_id
		 FOR UPDATE`,
		productID, ordered,
	)
	if err != nil {
		return nil, classify("lock cells", err)
	}
	list, err := collectCells(rows)
	if err != nil {
		return nil, classify("lock cells", err)
	}
	out := make(map[string]*entity.InventoryCell, len(list))
	for _, c := range list {
		out[c.StoreID] = c
	}
	return out, nil
}

// UpsertCell suma delta en una sola sentencia. Postgres evalúa el CHECK (quantity >= 0) sobre la
// fila propuesta antes de resolver el conflicto: esa fila lleva GREATEST(delta, 0) y el delta real
// va en $5, donde la guarda del WHERE rechaza el resultado negativo en celdas existentes.
func (r *InventoryRepo) UpsertCell(ctx context.Context, productID, storeID string, delta, defaultMinStock int) (*entity.InventoryCell, error) {
	c, err := scanCell(r.q.QueryRow(ctx,
		`INSERT INTO stock (product_id, store_id, quantity, min_stock, updated_at)
		 VALUES ($1, $2, GREATEST($3::int, 0), $4, now())
		 ON CONFLICT (product_id, store_id)
		 DO UPDATE SET quantity = stock.quantity + $5::int, updated_at = now()
		 WHERE stock.quantity + $5::int >= 0
		 RETURNING `+cellColumns,
		productID, storeID, delta, defaultMinStock, delta,
	))
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		current, getErr := r.GetCell(ctx, productID, storeID)
		if getErr != nil {
			return nil, getErr
		}
		qty := 0
		if current != nil {
			qty = current.Quantity
		}
		return nil, &domain.NegativeQuantityError{ProductID: productID, StoreID: storeID, Quantity: qty, Delta: delta}
	default:
		return nil, classify("upsert cell", err)
	}
}

// SetMinStock configura el umbral; crea la celda vacía si no existe.
func (r *InventoryRepo) SetMinStock(ctx context.Context, productID, storeID string, minStock int) (*entity.InventoryCell, error) {
	c, err := scanCell(r.q.QueryRow(ctx,
		`INSERT INTO stock (product_id, store_id, quantity, min_stock, updated_at)
		 VALUES ($1, $2, 0, $3, now())
		 ON CONFLICT (product_id, store_id)
		 DO UPDATE SET min_stock = EXCLUDED.min_stock, updated_at = now()
		 RETURNING `+cellColumns,
		productID, storeID, minStock,
	))
	if err != nil {
		return nil, classify("set min stock", err)
	}
	return c, nil
}

// ListByStore celdas de una tienda ordenadas por producto.
func (r *InventoryRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryCell, error) {
	if !validID(storeID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+cellColumns+` FROM stock WHERE store_id = $1 ORDER BY product_id`,
		storeID,
	)
	if err != nil {
		return nil, classify("list cells by store", err)
	}
	list, err := collectCells(rows)
	if err != nil {
		return nil, classify("list cells by store", err)
	}
	return list, nil
}

// ListLowStock celdas con quantity < min_stock (usa el índice parcial idx_stock_low).
func (r *InventoryRepo) ListLowStock(ctx context.Context) ([]*entity.InventoryCell, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+cellColumns+` FROM stock WHERE quantity < min_stock ORDER BY store_id, product_id`,
	)
	if err != nil {
		return nil, classify("list low stock", err)
	}
	list, err := collectCells(rows)
	if err != nil {
		return nil, classify("list low stock", err)
	}
	return list, nil
}

// CountByProduct número de celdas del producto.
func (r *InventoryRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	if !validID(productID) {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, classify("count cells", err)
	}
	return n, nil
}
