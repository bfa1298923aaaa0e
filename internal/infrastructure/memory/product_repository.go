package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/go-memdb"
	"golang.org/x/text/cases"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo en memdb.
type ProductRepo struct {
	s scope
}

// NewProductRepository repo fuera de unidad de trabajo.
func NewProductRepository(db *DB) *ProductRepo {
	return &ProductRepo{s: scope{db: db}}
}

func firstProduct(txn *memdb.Txn, index, arg string) (*entity.Product, error) {
	raw, err := txn.First(tableProducts, index, arg)
	if err != nil {
		return nil, storageErr("get product", err)
	}
	if raw == nil {
		return nil, nil
	}
	p := *raw.(*entity.Product)
	return &p, nil
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.s.write(func(txn *memdb.Txn) error {
		if existing, err := firstProduct(txn, "id", p.ID); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrDuplicate
		}
		if existing, err := firstProduct(txn, "sku", p.SKU); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrDuplicate
		}
		stored := *p
		if err := txn.Insert(tableProducts, &stored); err != nil {
			return storageErr("insert product", err)
		}
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return firstProduct(r.s.read(), "id", id)
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	return firstProduct(r.s.read(), "sku", sku)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.s.write(func(txn *memdb.Txn) error {
		current, err := firstProduct(txn, "id", p.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return &domain.NotFoundError{Entity: "product", ID: p.ID}
		}
		if other, err := firstProduct(txn, "sku", p.SKU); err != nil {
			return err
		} else if other != nil && other.ID != p.ID {
			return domain.ErrDuplicate
		}
		stored := *p
		if err := txn.Insert(tableProducts, &stored); err != nil {
			return storageErr("update product", err)
		}
		return nil
	})
}

func hasStock(txn *memdb.Txn, productID string) (bool, error) {
	it, err := txn.Get(tableStock, "product", productID)
	if err != nil {
		return false, storageErr("has stock", err)
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		if raw.(*entity.InventoryCell).Quantity > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	txn := r.s.read()
	it, err := txn.Get(tableProducts, "id")
	if err != nil {
		return nil, 0, storageErr("list products", err)
	}
	fold := cases.Fold()
	search := fold.String(f.Search)
	category := fold.String(f.Category)

	var all []*entity.Product
	for raw := it.Next(); raw != nil; raw = it.Next() {
		p := *raw.(*entity.Product)
		if search != "" && !strings.Contains(fold.String(p.Name), search) {
			continue
		}
		if category != "" && fold.String(p.Category) != category {
			continue
		}
		if f.PriceMin != nil && p.Price.LessThan(*f.PriceMin) {
			continue
		}
		if f.PriceMax != nil && p.Price.GreaterThan(*f.PriceMax) {
			continue
		}
		if f.HasStock != nil {
			ok, err := hasStock(txn, p.ID)
			if err != nil {
				return nil, 0, err
			}
			if ok != *f.HasStock {
				continue
			}
		}
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), len(all), nil
}

// Delete respeta la misma restricción que las FK RESTRICT de Postgres.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableProducts, "id", id)
		if err != nil {
			return storageErr("delete product", err)
		}
		if raw == nil {
			return &domain.NotFoundError{Entity: "product", ID: id}
		}
		for _, table := range []string{tableStock, tableMovements} {
			ref, err := txn.First(table, "product", id)
			if err != nil {
				return storageErr("delete product", err)
			}
			if ref != nil {
				return domain.ErrConflict
			}
		}
		if err := txn.Delete(tableProducts, raw); err != nil {
			return storageErr("delete product", err)
		}
		return nil
	})
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
