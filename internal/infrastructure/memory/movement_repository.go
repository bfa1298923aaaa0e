package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// movementRow fila del log; Seq desempata movimientos con el mismo timestamp.
type movementRow struct {
	ID        string
	ProductID string
	Seq       uint64
	Movement  entity.Movement
}

// MovementRepo log de movimientos en memdb, solo inserción.
type MovementRepo struct {
	s scope
}

// NewMovementRepository repo fuera de unidad de trabajo.
func NewMovementRepository(db *DB) *MovementRepo {
	return &MovementRepo{s: scope{db: db}}
}

func (r *MovementRepo) Append(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.Timestamp = time.Now().UTC()
	row := &movementRow{ID: m.ID, ProductID: m.ProductID, Seq: r.s.db.seq.Add(1), Movement: *m}
	return r.s.write(func(txn *memdb.Txn) error {
		if err := txn.Insert(tableMovements, row); err != nil {
			return storageErr("append movement", err)
		}
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	raw, err := r.s.read().First(tableMovements, "id", id)
	if err != nil {
		return nil, storageErr("get movement", err)
	}
	if raw == nil {
		return nil, nil
	}
	m := raw.(*movementRow).Movement
	return &m, nil
}

func matches(m *entity.Movement, f repository.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.StoreID != "" && m.SourceStoreID != f.StoreID && m.TargetStoreID != f.StoreID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	return true
}

// List más recientes primero.
func (r *MovementRepo) List(_ context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.Movement, error) {
	it, err := r.s.read().Get(tableMovements, "id")
	if err != nil {
		return nil, storageErr("list movements", err)
	}
	var rows []*movementRow
	for raw := it.Next(); raw != nil; raw = it.Next() {
		row := raw.(*movementRow)
		if matches(&row.Movement, filter) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq > rows[j].Seq })

	list := make([]*entity.Movement, 0, limit)
	for i := offset; i < len(rows) && len(list) < limit; i++ {
		m := rows[i].Movement
		list = append(list, &m)
	}
	return list, nil
}

func (r *MovementRepo) CountByProduct(_ context.Context, productID string) (int, error) {
	it, err := r.s.read().Get(tableMovements, "product", productID)
	if err != nil {
		return 0, storageErr("count movements", err)
	}
	n := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n, nil
}
