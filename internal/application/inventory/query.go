package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// QueryUseCase lecturas del ledger: inventario por tienda, alertas y movimientos.
// No abre unidades de trabajo; cada lectura ve un estado confirmado.
type QueryUseCase struct {
	stockRepo    repository.InventoryRepository
	movementRepo repository.MovementRepository
	productRepo  repository.ProductRepository
	storeRepo    repository.StoreRepository
	report       LowStockReportGenerator
}

// NewQueryUseCase construye el caso de uso. report puede ser nil si no se exponen reportes.
func NewQueryUseCase(
	stockRepo repository.InventoryRepository,
	movementRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	report LowStockReportGenerator,
) *QueryUseCase {
	return &QueryUseCase{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		productRepo:  productRepo,
		storeRepo:    storeRepo,
		report:       report,
	}
}

// ListByStore celdas de la tienda. NotFoundError si la tienda no existe.
func (uc *QueryUseCase) ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryCell, error) {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, &domain.NotFoundError{Entity: "store", ID: storeID}
	}
	return uc.stockRepo.ListByStore(ctx, storeID)
}

// ListLowStock celdas con cantidad estrictamente menor a su umbral.
func (uc *QueryUseCase) ListLowStock(ctx context.Context) ([]*entity.InventoryCell, error) {
	return uc.stockRepo.ListLowStock(ctx)
}

// ListMovements movimientos más recientes primero.
func (uc *QueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter, page dto.PageRequest) ([]*entity.Movement, error) {
	filter.Type = strings.ToUpper(strings.TrimSpace(filter.Type))
	if filter.Type != "" && !entity.ValidMovementType(filter.Type) {
		return nil, &domain.ValidationError{Field: "type", Reason: "debe ser IN, OUT o TRANSFER"}
	}
	page.DefaultPage()
	return uc.movementRepo.List(ctx, filter, page.Limit, page.Offset)
}

// LowStockLines alertas con nombres de producto y tienda resueltos.
func (uc *QueryUseCase) LowStockLines(ctx context.Context) ([]dto.LowStockLine, error) {
	cells, err := uc.stockRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	products := map[string]*entity.Product{}
	stores := map[string]*entity.Store{}
	lines := make([]dto.LowStockLine, 0, len(cells))
	for _, c := range cells {
		p, ok := products[c.ProductID]
		if !ok {
			if p, err = uc.productRepo.GetByID(ctx, c.ProductID); err != nil {
				return nil, err
			}
			products[c.ProductID] = p
		}
		s, ok := stores[c.StoreID]
		if !ok {
			if s, err = uc.storeRepo.GetByID(ctx, c.StoreID); err != nil {
				return nil, err
			}
			stores[c.StoreID] = s
		}
		line := dto.LowStockLine{
			ProductID: c.ProductID,
			StoreID:   c.StoreID,
			Quantity:  c.Quantity,
			MinStock:  c.MinStock,
		}
		if p != nil {
			line.ProductName, line.SKU = p.Name, p.SKU
		}
		if s != nil {
			line.StoreName, line.City = s.Name, s.City
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LowStockReport PDF con las alertas vigentes.
func (uc *QueryUseCase) LowStockReport(ctx context.Context) ([]byte, error) {
	if uc.report == nil {
		return nil, errors.New("generador de reportes no configurado")
	}
	lines, err := uc.LowStockLines(ctx)
	if err != nil {
		return nil, err
	}
	return uc.report.GenerateLowStockReport(lines, time.Now())
}
