package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner abre una transacción de escritura de memdb por unidad de trabajo.
type TxRunner struct {
	db *DB
}

// NewTxRunner construye el runner sobre la base en memoria.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run ejecuta fn con repos atados a la transacción. Commit solo si fn termina sin error
// y el contexto sigue vivo; en cualquier otro caso Abort descarta los cambios.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.InventoryRepository,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := r.db.mem.Txn(true)
	defer txn.Abort()

	s := scope{db: r.db, txn: txn}
	if err := fn(&InventoryRepo{s: s}, &MovementRepo{s: s}, &ProductRepo{s: s}, &StoreRepo{s: s}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
