package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, description, category, price, sku, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.SKU, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.SKU, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return classify("insert product", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, op, where string, arg string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return p, nil
}

// GetByID obtiene un producto por ID; nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get product", "id = $1", id)
}

// GetBySKU obtiene un producto por SKU; nil, nil si no existe.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by sku", "sku = $1", sku)
}

// Update actualiza los datos de catálogo. Las cantidades viven en stock y no se tocan aquí.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET name = $2, description = $3, category = $4, price = $5, sku = $6, updated_at = $7
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.SKU, p.UpdatedAt,
	)
	if err != nil {
		return classify("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "product", ID: p.ID}
	}
	return nil
}

// productWhere arma el WHERE del listado a partir del filtro.
func productWhere(f repository.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Search != "" {
		add("strpos(lower(p.name), lower($%d)) > 0", f.Search)
	}
	if f.Category != "" {
		add("lower(p.category) = lower($%d)", f.Category)
	}
	if f.PriceMin != nil {
		add("p.price >= $%d", *f.PriceMin)
	}
	if f.PriceMax != nil {
		add("p.price <= $%d", *f.PriceMax)
	}
	if f.HasStock != nil {
		exists := "EXISTS (SELECT 1 FROM stock s WHERE s.product_id = p.id AND s.quantity > 0)"
		if *f.HasStock {
			conds = append(conds, exists)
		} else {
			conds = append(conds, "NOT "+exists)
		}
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List lista productos por nombre con filtros y paginación; devuelve también el total.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int, error) {
	where, args := productWhere(filter)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, classify("count products", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT p.id, p.name, p.description, p.category, p.price, p.sku, p.created_at, p.updated_at
		FROM products p%s ORDER BY p.name, p.id LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, classify("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, classify("scan product", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("list products", err)
	}
	return list, total, nil
}

// Delete elimina un producto por ID. Las FK RESTRICT impiden borrar productos con historial.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return &domain.NotFoundError{Entity: "product", ID: id}
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return classify("delete product", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "product", ID: id}
	}
	return nil
}
