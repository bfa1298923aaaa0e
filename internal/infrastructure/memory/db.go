// Package memory implementa los puertos de persistencia sobre go-memdb.
// Una transacción de escritura de memdb es exclusiva, así que la unidad de trabajo
// del motor queda serializada sin bloqueos por fila; Abort descarta todo lo escrito.
package memory

import (
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

const (
	tableProducts  = "products"
	tableStores    = "stores"
	tableStock     = "stock"
	tableMovements = "movements"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableProducts: {
				Name: tableProducts,
				Indexes: map[string]*memdb.IndexSchema{
					"id":  {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"sku": {Name: "sku", Unique: true, AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "SKU"}},
				},
			},
			tableStores: {
				Name: tableStores,
				Indexes: map[string]*memdb.IndexSchema{
					"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"name": {Name: "name", Unique: true, AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "Name"}},
				},
			},
			tableStock: {
				Name: tableStock,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:   "id",
						Unique: true,
						Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "ProductID"},
							&memdb.StringFieldIndex{Field: "StoreID"},
						}},
					},
					"product": {Name: "product", Indexer: &memdb.StringFieldIndex{Field: "ProductID"}},
					"store":   {Name: "store", Indexer: &memdb.StringFieldIndex{Field: "StoreID"}},
				},
			},
			tableMovements: {
				Name: tableMovements,
				Indexes: map[string]*memdb.IndexSchema{
					"id":      {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"product": {Name: "product", Indexer: &memdb.StringFieldIndex{Field: "ProductID"}},
				},
			},
		},
	}
}

// DB base de datos en memoria compartida por los repositorios y el TxRunner.
type DB struct {
	mem *memdb.MemDB
	seq atomic.Uint64 // orden de inserción de movimientos
}

// NewDB crea la base con el esquema del ledger.
func NewDB() (*DB, error) {
	mem, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, &domain.StorageError{Op: "memdb schema", Err: err}
	}
	return &DB{mem: mem}, nil
}

// scope decide si un repo trabaja con su propia transacción o con la de la unidad de trabajo.
type scope struct {
	db  *DB
	txn *memdb.Txn // no nil dentro de TxRunner.Run
}

func (s scope) read() *memdb.Txn {
	if s.txn != nil {
		return s.txn
	}
	return s.db.mem.Txn(false)
}

func (s scope) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.mem.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}
