package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo ledger de celdas en memdb. Guarda copias: nada de lo devuelto apunta al almacenamiento.
type InventoryRepo struct {
	s scope
}

// NewInventoryRepository repo fuera de unidad de trabajo (cada llamada es su propia transacción).
func NewInventoryRepository(db *DB) *InventoryRepo {
	return &InventoryRepo{s: scope{db: db}}
}

func getCell(txn *memdb.Txn, productID, storeID string) (*entity.InventoryCell, error) {
	raw, err := txn.First(tableStock, "id", productID, storeID)
	if err != nil {
		return nil, storageErr("get cell", err)
	}
	if raw == nil {
		return nil, nil
	}
	c := *raw.(*entity.InventoryCell)
	return &c, nil
}

func putCell(txn *memdb.Txn, c entity.InventoryCell) (*entity.InventoryCell, error) {
	stored := c
	if err := txn.Insert(tableStock, &stored); err != nil {
		return nil, storageErr("put cell", err)
	}
	return &c, nil
}

func collectCells(it memdb.ResultIterator, keep func(*entity.InventoryCell) bool) []*entity.InventoryCell {
	var list []*entity.InventoryCell
	for raw := it.Next(); raw != nil; raw = it.Next() {
		c := *raw.(*entity.InventoryCell)
		if keep == nil || keep(&c) {
			list = append(list, &c)
		}
	}
	return list
}

func (r *InventoryRepo) GetCell(_ context.Context, productID, storeID string) (*entity.InventoryCell, error) {
	return getCell(r.s.read(), productID, storeID)
}

// LockCells lee las celdas existentes. La transacción de escritura ya es exclusiva;
// se respeta igualmente el orden global para que el resultado sea el mismo que en Postgres.
func (r *InventoryRepo) LockCells(_ context.Context, productID string, storeIDs ...string) (map[string]*entity.InventoryCell, error) {
	txn := r.s.read()
	out := make(map[string]*entity.InventoryCell, len(storeIDs))
	for _, storeID := range inventory.LockOrder(storeIDs...) {
		c, err := getCell(txn, productID, storeID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out[storeID] = c
		}
	}
	return out, nil
}

// UpsertCell una celda nueva arranca en max(0, delta).
func (r *InventoryRepo) UpsertCell(_ context.Context, productID, storeID string, delta, defaultMinStock int) (*entity.InventoryCell, error) {
	var out *entity.InventoryCell
	err := r.s.write(func(txn *memdb.Txn) error {
		current, err := getCell(txn, productID, storeID)
		if err != nil {
			return err
		}
		if current == nil {
			current = &entity.InventoryCell{ProductID: productID, StoreID: storeID, MinStock: defaultMinStock, Quantity: max(0, delta)}
		} else {
			next, err := inventory.ApplyDelta(productID, storeID, current.Quantity, delta)
			if err != nil {
				return err
			}
			current.Quantity = next
		}
		current.UpdatedAt = time.Now().UTC()
		out, err = putCell(txn, *current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InventoryRepo) SetMinStock(_ context.Context, productID, storeID string, minStock int) (*entity.InventoryCell, error) {
	var out *entity.InventoryCell
	err := r.s.write(func(txn *memdb.Txn) error {
		current, err := getCell(txn, productID, storeID)
		if err != nil {
			return err
		}
		if current == nil {
			current = &entity.InventoryCell{ProductID: productID, StoreID: storeID}
		}
		current.MinStock = minStock
		current.UpdatedAt = time.Now().UTC()
		out, err = putCell(txn, *current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InventoryRepo) ListByStore(_ context.Context, storeID string) ([]*entity.InventoryCell, error) {
	it, err := r.s.read().Get(tableStock, "store", storeID)
	if err != nil {
		return nil, storageErr("list cells by store", err)
	}
	list := collectCells(it, nil)
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r *InventoryRepo) ListLowStock(_ context.Context) ([]*entity.InventoryCell, error) {
	it, err := r.s.read().Get(tableStock, "id")
	if err != nil {
		return nil, storageErr("list low stock", err)
	}
	list := collectCells(it, func(c *entity.InventoryCell) bool {
		return inventory.IsLowStock(c.Quantity, c.MinStock)
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].StoreID != list[j].StoreID {
			return list[i].StoreID < list[j].StoreID
		}
		return list[i].ProductID < list[j].ProductID
	})
	return list, nil
}

func (r *InventoryRepo) CountByProduct(_ context.Context, productID string) (int, error) {
	it, err := r.s.read().Get(tableStock, "product", productID)
	if err != nil {
		return 0, storageErr("count cells", err)
	}
	return len(collectCells(it, nil)), nil
}
