package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const skuAttempts = 5

// ProductUseCase casos de uso CRUD para productos. Las cantidades se manejan vía el motor de inventario.
type ProductUseCase struct {
	repo         repository.ProductRepository
	stockRepo    repository.InventoryRepository
	movementRepo repository.MovementRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	stockRepo repository.InventoryRepository,
	movementRepo repository.MovementRepository,
) *ProductUseCase {
	return &ProductUseCase{repo: repo, stockRepo: stockRepo, movementRepo: movementRepo}
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return &domain.ValidationError{Field: "price", Reason: "no puede ser negativo"}
	}
	return nil
}

// Create crea un nuevo producto. Si no llega SKU se genera a partir de la categoría.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "es obligatorio"}
	}
	if in.Category == "" {
		return nil, &domain.ValidationError{Field: "category", Reason: "es obligatorio"}
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price.Round(2),
		SKU:         strings.TrimSpace(in.SKU),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.SKU != "" {
		if err := uc.repo.Create(ctx, product); err != nil {
			return nil, err
		}
		return toProductResponse(product), nil
	}

	// SKU generado: reintentar ante colisión del sufijo aleatorio.
	for attempt := 0; attempt < skuAttempts; attempt++ {
		product.SKU = GenerateSKU(product.Category)
		err := uc.repo.Create(ctx, product)
		if err == nil {
			return toProductResponse(product), nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("generar sku para %q: %w", product.Category, domain.ErrDuplicate)
}

// GenerateSKU prefijo de tres letras de la categoría en mayúsculas, guion y seis dígitos.
func GenerateSKU(category string) string {
	prefix := make([]rune, 0, 3)
	for _, r := range category {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix = append(prefix, r)
		}
		if len(prefix) == 3 {
			break
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("GEN")
	}
	upper := cases.Upper(language.Und).String(string(prefix))
	return fmt.Sprintf("%s-%06d", upper, rand.IntN(1_000_000))
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

func (uc *ProductUseCase) get(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "product", ID: id}
	}
	return product, nil
}

// Update actualiza los campos enviados. No toca cantidades (se manejan vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, &domain.ValidationError{Field: "name", Reason: "es obligatorio"}
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		if strings.TrimSpace(*in.Category) == "" {
			return nil, &domain.ValidationError{Field: "category", Reason: "es obligatorio"}
		}
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		product.Price = in.Price.Round(2)
	}
	if in.SKU != nil {
		if strings.TrimSpace(*in.SKU) == "" {
			return nil, &domain.ValidationError{Field: "sku", Reason: "no puede quedar vacío"}
		}
		product.SKU = strings.TrimSpace(*in.SKU)
	}
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con filtros, ordenados por nombre.
func (uc *ProductUseCase) List(ctx context.Context, filter repository.ProductFilter, page dto.PageRequest) (*dto.ProductListResponse, error) {
	if filter.PriceMin != nil && filter.PriceMax != nil && filter.PriceMin.GreaterThan(*filter.PriceMax) {
		return nil, &domain.ValidationError{Field: "price_min", Reason: "no puede ser mayor que price_max"}
	}
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// Delete elimina un producto sin historial. Con celdas o movimientos responde conflicto:
// el log de movimientos no se puede perder.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	cells, err := uc.stockRepo.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	moves, err := uc.movementRepo.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if cells > 0 || moves > 0 {
		return fmt.Errorf("producto %s con %d celdas y %d movimientos: %w", id, cells, moves, domain.ErrConflict)
	}
	return uc.repo.Delete(ctx, id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		SKU:         p.SKU,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
