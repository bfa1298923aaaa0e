package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

const storeColumns = `id, name, address, city, is_active, created_at, updated_at`

// StoreRepo implementación de StoreRepository sobre PostgreSQL (usable con pool o tx).
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador de tiendas. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

func scanStore(row pgx.Row) (*entity.Store, error) {
	var s entity.Store
	if err := row.Scan(&s.ID, &s.Name, &s.Address, &s.City, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste una tienda nueva.
func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO stores (`+storeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, s.Address, s.City, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return classify("insert store", err)
	}
	return nil
}

func (r *StoreRepo) getOne(ctx context.Context, op, where, arg string) (*entity.Store, error) {
	s, err := scanStore(r.q.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return s, nil
}

// GetByID obtiene una tienda por ID; nil, nil si no existe.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get store", "id = $1", id)
}

// GetByName obtiene una tienda por nombre exacto; nil, nil si no existe.
func (r *StoreRepo) GetByName(ctx context.Context, name string) (*entity.Store, error) {
	return r.getOne(ctx, "get store by name", "name = $1", name)
}

// List lista tiendas por nombre con paginación; devuelve también el total.
func (r *StoreRepo) List(ctx context.Context, limit, offset int) ([]*entity.Store, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stores`).Scan(&total); err != nil {
		return nil, 0, classify("count stores", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+storeColumns+` FROM stores ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, classify("list stores", err)
	}
	defer rows.Close()
	var list []*entity.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, 0, classify("scan store", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("list stores", err)
	}
	return list, total, nil
}
