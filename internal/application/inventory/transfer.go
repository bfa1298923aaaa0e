package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const (
	tracerName     = "github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	publishTimeout = 3 * time.Second
)

// EngineConfig parámetros del motor. MaxAttempts incluye el primer intento.
type EngineConfig struct {
	MaxAttempts  int
	Timeout      time.Duration // 0 = sin tope propio, solo el del ctx del caller
	RetryBackoff time.Duration
}

// TransferInput entrada de un traslado entre tiendas.
type TransferInput struct {
	ProductID     string
	SourceStoreID string
	TargetStoreID string
	Quantity      int
}

// AdjustmentInput entrada de una entrada (IN) o salida (OUT) directa en una tienda.
// MinStock solo se usa si la celda se crea en esta operación.
type AdjustmentInput struct {
	ProductID string
	StoreID   string
	Quantity  int
	MinStock  *int
}

// TransferEngine motor de inventario: único punto que modifica cantidades del ledger.
// Cada operación es una unidad de trabajo: valida, bloquea celdas en orden global,
// debita/acredita y registra un movimiento, o no deja rastro.
type TransferEngine struct {
	tx        TxRunner
	publisher MovementPublisher
	cfg       EngineConfig
	log       zerolog.Logger
	tracer    trace.Tracer
}

// NewTransferEngine construye el motor. publisher puede ser nil.
func NewTransferEngine(tx TxRunner, publisher MovementPublisher, cfg EngineConfig, log zerolog.Logger) *TransferEngine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &TransferEngine{
		tx:        tx,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "inventory_engine").Logger(),
		tracer:    otel.Tracer(tracerName),
	}
}

// repos repositorios atados a la unidad de trabajo en curso.
type repos struct {
	stock     repository.InventoryRepository
	movements repository.MovementRepository
	products  repository.ProductRepository
	stores    repository.StoreRepository
}

func required(field, value string) error {
	if value == "" {
		return &domain.ValidationError{Field: field, Reason: "es obligatorio"}
	}
	return nil
}

func (in TransferInput) validate() error {
	if err := errors.Join(
		required("product_id", in.ProductID),
		required("source_store_id", in.SourceStoreID),
		required("target_store_id", in.TargetStoreID),
	); err != nil {
		return err
	}
	if in.SourceStoreID == in.TargetStoreID {
		return domain.ErrSameStore
	}
	if in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func (in AdjustmentInput) validate() error {
	if err := errors.Join(required("product_id", in.ProductID), required("store_id", in.StoreID)); err != nil {
		return err
	}
	if in.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if in.MinStock != nil && *in.MinStock < 0 {
		return &domain.ValidationError{Field: "min_stock", Reason: "no puede ser negativo"}
	}
	return nil
}

// Transfer mueve quantity unidades de un producto de la tienda origen a la destino.
// La validación de entrada ocurre antes de tocar el almacenamiento.
func (e *TransferEngine) Transfer(ctx context.Context, in TransferInput) (*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	attrs := []attribute.KeyValue{
		attribute.String("product.id", in.ProductID),
		attribute.String("store.source", in.SourceStoreID),
		attribute.String("store.target", in.TargetStoreID),
		attribute.Int("quantity", in.Quantity),
	}
	mov, err := execute(ctx, e, "inventory.transfer", attrs, func(ctx context.Context, r repos) (*entity.Movement, error) {
		if err := resolveProduct(ctx, r, in.ProductID); err != nil {
			return nil, err
		}
		if err := resolveStore(ctx, r, "source store", in.SourceStoreID); err != nil {
			return nil, err
		}
		if err := resolveStore(ctx, r, "target store", in.TargetStoreID); err != nil {
			return nil, err
		}

		cells, err := r.stock.LockCells(ctx, in.ProductID, in.SourceStoreID, in.TargetStoreID)
		if err != nil {
			return nil, err
		}
		if err := ensureAvailable(cells, in.ProductID, in.SourceStoreID, in.Quantity); err != nil {
			return nil, err
		}
		if _, err := r.stock.UpsertCell(ctx, in.ProductID, in.SourceStoreID, -in.Quantity, 0); err != nil {
			return nil, err
		}
		if _, err := r.stock.UpsertCell(ctx, in.ProductID, in.TargetStoreID, in.Quantity, inventory.DefaultTargetMinStock); err != nil {
			return nil, err
		}
		return appendMovement(ctx, r, &entity.Movement{
			ProductID:     in.ProductID,
			SourceStoreID: in.SourceStoreID,
			TargetStoreID: in.TargetStoreID,
			Quantity:      in.Quantity,
			Type:          entity.MovementTypeTRANSFER,
		})
	})
	if err != nil {
		return nil, err
	}
	e.committed(ctx, mov)
	return mov, nil
}

// Receive registra una entrada (IN): acredita la celda, creándola si no existe.
func (e *TransferEngine) Receive(ctx context.Context, in AdjustmentInput) (*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	minStock := 0
	if in.MinStock != nil {
		minStock = *in.MinStock
	}
	attrs := []attribute.KeyValue{
		attribute.String("product.id", in.ProductID),
		attribute.String("store.target", in.StoreID),
		attribute.Int("quantity", in.Quantity),
	}
	mov, err := execute(ctx, e, "inventory.receive", attrs, func(ctx context.Context, r repos) (*entity.Movement, error) {
		if err := resolveProduct(ctx, r, in.ProductID); err != nil {
			return nil, err
		}
		if err := resolveStore(ctx, r, "store", in.StoreID); err != nil {
			return nil, err
		}
		if _, err := r.stock.LockCells(ctx, in.ProductID, in.StoreID); err != nil {
			return nil, err
		}
		if _, err := r.stock.UpsertCell(ctx, in.ProductID, in.StoreID, in.Quantity, minStock); err != nil {
			return nil, err
		}
		return appendMovement(ctx, r, &entity.Movement{
			ProductID:     in.ProductID,
			TargetStoreID: in.StoreID,
			Quantity:      in.Quantity,
			Type:          entity.MovementTypeIN,
		})
	})
	if err != nil {
		return nil, err
	}
	e.committed(ctx, mov)
	return mov, nil
}

// Dispatch registra una salida (OUT): verifica suficiencia y debita la celda.
func (e *TransferEngine) Dispatch(ctx context.Context, in AdjustmentInput) (*entity.Movement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	attrs := []attribute.KeyValue{
		attribute.String("product.id", in.ProductID),
		attribute.String("store.source", in.StoreID),
		attribute.Int("quantity", in.Quantity),
	}
	mov, err := execute(ctx, e, "inventory.dispatch", attrs, func(ctx context.Context, r repos) (*entity.Movement, error) {
		if err := resolveProduct(ctx, r, in.ProductID); err != nil {
			return nil, err
		}
		if err := resolveStore(ctx, r, "store", in.StoreID); err != nil {
			return nil, err
		}
		cells, err := r.stock.LockCells(ctx, in.ProductID, in.StoreID)
		if err != nil {
			return nil, err
		}
		if err := ensureAvailable(cells, in.ProductID, in.StoreID, in.Quantity); err != nil {
			return nil, err
		}
		if _, err := r.stock.UpsertCell(ctx, in.ProductID, in.StoreID, -in.Quantity, 0); err != nil {
			return nil, err
		}
		return appendMovement(ctx, r, &entity.Movement{
			ProductID:     in.ProductID,
			SourceStoreID: in.StoreID,
			Quantity:      in.Quantity,
			Type:          entity.MovementTypeOUT,
		})
	})
	if err != nil {
		return nil, err
	}
	e.committed(ctx, mov)
	return mov, nil
}

// SetMinStock configura el umbral de alerta de una celda. No genera movimiento.
func (e *TransferEngine) SetMinStock(ctx context.Context, productID, storeID string, minStock int) (*entity.InventoryCell, error) {
	if err := errors.Join(required("product_id", productID), required("store_id", storeID)); err != nil {
		return nil, err
	}
	if minStock < 0 {
		return nil, &domain.ValidationError{Field: "min_stock", Reason: "no puede ser negativo"}
	}
	attrs := []attribute.KeyValue{
		attribute.String("product.id", productID),
		attribute.String("store.id", storeID),
		attribute.Int("min_stock", minStock),
	}
	cell, err := execute(ctx, e, "inventory.set_min_stock", attrs, func(ctx context.Context, r repos) (*entity.InventoryCell, error) {
		if err := resolveProduct(ctx, r, productID); err != nil {
			return nil, err
		}
		if err := resolveStore(ctx, r, "store", storeID); err != nil {
			return nil, err
		}
		if _, err := r.stock.LockCells(ctx, productID, storeID); err != nil {
			return nil, err
		}
		return r.stock.SetMinStock(ctx, productID, storeID, minStock)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Str("product_id", productID).
		Str("store_id", storeID).
		Int("min_stock", minStock).
		Msg("umbral de stock actualizado")
	return cell, nil
}

// execute corre work en una unidad de trabajo dentro de un span, reintentando ante
// conflictos de concurrencia. Todos los intentos comparten el mismo timeout.
func execute[T any](
	ctx context.Context,
	e *TransferEngine,
	spanName string,
	attrs []attribute.KeyValue,
	work func(context.Context, repos) (T, error),
) (T, error) {
	ctx, span := e.tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
	defer span.End()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var zero T
	for attempt := 1; ; attempt++ {
		var out T
		err := e.tx.Run(ctx, func(
			stockRepo repository.InventoryRepository,
			movRepo repository.MovementRepository,
			productRepo repository.ProductRepository,
			storeRepo repository.StoreRepository,
		) error {
			var err error
			out, err = work(ctx, repos{stock: stockRepo, movements: movRepo, products: productRepo, stores: storeRepo})
			return err
		})
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return out, nil
		}

		if errors.Is(err, domain.ErrConcurrencyConflict) && attempt < e.cfg.MaxAttempts {
			e.log.Warn().Err(err).Str("operation", spanName).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando")
			span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
			if werr := wait(ctx, time.Duration(attempt)*e.cfg.RetryBackoff); werr != nil {
				err = werr
			} else {
				continue
			}
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func resolveProduct(ctx context.Context, r repos, id string) error {
	p, err := r.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &domain.NotFoundError{Entity: "product", ID: id}
	}
	return nil
}

func resolveStore(ctx context.Context, r repos, entityName, id string) error {
	s, err := r.stores.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return &domain.NotFoundError{Entity: entityName, ID: id}
	}
	return nil
}

// ensureAvailable una celda ausente cuenta como cantidad 0.
func ensureAvailable(cells map[string]*entity.InventoryCell, productID, storeID string, requested int) error {
	available := 0
	if c := cells[storeID]; c != nil {
		available = c.Quantity
	}
	if available < requested {
		return &domain.InsufficientStockError{
			ProductID: productID,
			StoreID:   storeID,
			Available: available,
			Requested: requested,
		}
	}
	return nil
}

func appendMovement(ctx context.Context, r repos, m *entity.Movement) (*entity.Movement, error) {
	if err := r.movements.Append(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// committed registra y publica un movimiento ya confirmado. Un fallo al publicar
// no deshace nada: el ledger es la fuente de verdad.
func (e *TransferEngine) committed(ctx context.Context, m *entity.Movement) {
	e.log.Info().
		Str("movement_id", m.ID).
		Str("type", m.Type).
		Str("product_id", m.ProductID).
		Str("source_store_id", m.SourceStoreID).
		Str("target_store_id", m.TargetStoreID).
		Int("quantity", m.Quantity).
		Msg("movimiento registrado")

	if e.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, m); err != nil {
		e.log.Error().Err(err).Str("movement_id", m.ID).Msg("no se pudo publicar el movimiento")
	}
}
