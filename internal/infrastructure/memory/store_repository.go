package memory

import (
	"context"
	"sort"

	"github.com/hashicorp/go-memdb"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo tiendas en memdb.
type StoreRepo struct {
	s scope
}

// NewStoreRepository repo fuera de unidad de trabajo.
func NewStoreRepository(db *DB) *StoreRepo {
	return &StoreRepo{s: scope{db: db}}
}

func firstStore(txn *memdb.Txn, index, arg string) (*entity.Store, error) {
	raw, err := txn.First(tableStores, index, arg)
	if err != nil {
		return nil, storageErr("get store", err)
	}
	if raw == nil {
		return nil, nil
	}
	s := *raw.(*entity.Store)
	return &s, nil
}

func (r *StoreRepo) Create(_ context.Context, s *entity.Store) error {
	return r.s.write(func(txn *memdb.Txn) error {
		for index, arg := range map[string]string{"id": s.ID, "name": s.Name} {
			existing, err := firstStore(txn, index, arg)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrDuplicate
			}
		}
		stored := *s
		if err := txn.Insert(tableStores, &stored); err != nil {
			return storageErr("insert store", err)
		}
		return nil
	})
}

func (r *StoreRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	return firstStore(r.s.read(), "id", id)
}

func (r *StoreRepo) GetByName(_ context.Context, name string) (*entity.Store, error) {
	return firstStore(r.s.read(), "name", name)
}

// List ordenado por nombre.
func (r *StoreRepo) List(_ context.Context, limit, offset int) ([]*entity.Store, int, error) {
	it, err := r.s.read().Get(tableStores, "id")
	if err != nil {
		return nil, 0, storageErr("list stores", err)
	}
	var all []*entity.Store
	for raw := it.Next(); raw != nil; raw = it.Next() {
		s := *raw.(*entity.Store)
		all = append(all, &s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), len(all), nil
}
