package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, source_store_id, target_store_id, quantity, type, timestamp`

// MovementRepo log de movimientos sobre la tabla movements. Solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador del log. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var source, target *string
	if err := row.Scan(&m.ID, &m.ProductID, &source, &target, &m.Quantity, &m.Type, &m.Timestamp); err != nil {
		return nil, err
	}
	m.SourceStoreID = deref(source)
	m.TargetStoreID = deref(target)
	return &m, nil
}

// Append inserta el movimiento; el timestamp lo fija clock_timestamp() dentro de la tx.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO movements (id, product_id, source_store_id, target_store_id, quantity, type, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp())
		 RETURNING timestamp`,
		m.ID, m.ProductID, nullable(m.SourceStoreID), nullable(m.TargetStoreID), m.Quantity, m.Type,
	).Scan(&m.Timestamp)
	if err != nil {
		return classify("append movement", err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	if !validID(id) {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get movement", err)
	}
	return m, nil
}

// List movimientos más recientes primero.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit, offset int) ([]*entity.Movement, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ProductID != "" {
		if !validID(filter.ProductID) {
			return nil, nil
		}
		args = append(args, filter.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.StoreID != "" {
		if !validID(filter.StoreID) {
			return nil, nil
		}
		args = append(args, filter.StoreID)
		conds = append(conds, fmt.Sprintf("(source_store_id = $%d OR target_store_id = $%d)", len(args), len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT ` + movementColumns + ` FROM movements`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY timestamp DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list movements", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, classify("scan movement", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list movements", err)
	}
	return list, nil
}

// CountByProduct número de movimientos del producto.
func (r *MovementRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	if !validID(productID) {
		return 0, nil
	}
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movements WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, classify("count movements", err)
	}
	return n, nil
}
