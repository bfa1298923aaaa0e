package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

type fixture struct {
	db        *memory.DB
	stock     *memory.InventoryRepo
	movements *memory.MovementRepo
	runner    *memory.TxRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := memory.NewDB()
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, memory.NewProductRepository(db).Create(ctx, &entity.Product{
		ID: "p1", Name: "Cable", Category: "Electrónica", SKU: "ELE-000001", Price: decimal.NewFromInt(10), CreatedAt: now, UpdatedAt: now,
	}))
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, memory.NewStoreRepository(db).Create(ctx, &entity.Store{ID: id, Name: "Tienda " + id, City: "Bogotá", IsActive: true}))
	}
	return &fixture{
		db:        db,
		stock:     memory.NewInventoryRepository(db),
		movements: memory.NewMovementRepository(db),
		runner:    memory.NewTxRunner(db),
	}
}

func (f *fixture) seed(t *testing.T, storeID string, qty, minStock int) {
	t.Helper()
	_, err := f.stock.UpsertCell(context.Background(), "p1", storeID, qty, minStock)
	require.NoError(t, err)
}

func (f *fixture) qty(t *testing.T, storeID string) int {
	t.Helper()
	c, err := f.stock.GetCell(context.Background(), "p1", storeID)
	require.NoError(t, err)
	if c == nil {
		return 0
	}
	return c.Quantity
}

func (f *fixture) movementCount(t *testing.T) int {
	t.Helper()
	n, err := f.movements.CountByProduct(context.Background(), "p1")
	require.NoError(t, err)
	return n
}

func engineCfg() inventory.EngineConfig {
	return inventory.EngineConfig{MaxAttempts: 3, Timeout: time.Second, RetryBackoff: time.Millisecond}
}

func newEngine(runner inventory.TxRunner, pub inventory.MovementPublisher) *inventory.TransferEngine {
	return inventory.NewTransferEngine(runner, pub, engineCfg(), zerolog.Nop())
}

type recordingPublisher struct {
	mu    sync.Mutex
	moves []*entity.Movement
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, m *entity.Movement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moves = append(p.moves, m)
	return p.err
}

func TestTransfer_MueveStockYRegistraMovimiento(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 2)
	pub := &recordingPublisher{}

	mov, err := newEngine(f.runner, pub).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, f.qty(t, "s1"))
	assert.Equal(t, 4, f.qty(t, "s2"))
	target, err := f.stock.GetCell(context.Background(), "p1", "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, target.MinStock, "la celda destino nueva arranca sin umbral")

	assert.Equal(t, entity.MovementTypeTRANSFER, mov.Type)
	assert.Equal(t, "s1", mov.SourceStoreID)
	assert.Equal(t, "s2", mov.TargetStoreID)
	assert.Equal(t, 4, mov.Quantity)
	assert.NotEmpty(t, mov.ID)
	assert.False(t, mov.Timestamp.IsZero())
	assert.Equal(t, 1, f.movementCount(t))
	require.Len(t, pub.moves, 1)
	assert.Equal(t, mov.ID, pub.moves[0].ID)
}

func TestTransfer_StockInsuficienteNoCambiaNada(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 3, 0)
	f.seed(t, "s2", 1, 0)
	pub := &recordingPublisher{}

	_, err := newEngine(f.runner, pub).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 5,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 3, f.qty(t, "s1"))
	assert.Equal(t, 1, f.qty(t, "s2"))
	assert.Zero(t, f.movementCount(t))
	assert.Empty(t, pub.moves)
}

func TestTransfer_OrigenSinCeldaCuentaComoCero(t *testing.T) {
	f := newFixture(t)
	_, err := newEngine(f.runner, nil).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 1,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Zero(t, insufficient.Available)

	c, err := f.stock.GetCell(context.Background(), "p1", "s2")
	require.NoError(t, err)
	assert.Nil(t, c, "un traslado fallido no crea la celda destino")
}

func TestTransfer_TodoElStockDejaOrigenEnCero(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 5, 0)
	_, err := newEngine(f.runner, nil).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.qty(t, "s1"))
	assert.Equal(t, 5, f.qty(t, "s2"))
}

// countingRunner cuenta aperturas de unidad de trabajo para verificar que la validación no toca almacenamiento.
type countingRunner struct {
	inner inventory.TxRunner
	calls int
}

func (r *countingRunner) Run(ctx context.Context, fn func(repository.InventoryRepository, repository.MovementRepository, repository.ProductRepository, repository.StoreRepository) error) error {
	r.calls++
	return r.inner.Run(ctx, fn)
}

func TestTransfer_ValidacionAntesDelAlmacenamiento(t *testing.T) {
	f := newFixture(t)
	runner := &countingRunner{inner: f.runner}
	engine := newEngine(runner, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.TransferInput
		want error
	}{
		{"misma tienda", inventory.TransferInput{ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s1", Quantity: 1}, domain.ErrSameStore},
		{"misma tienda inexistente", inventory.TransferInput{ProductID: "p1", SourceStoreID: "nope", TargetStoreID: "nope", Quantity: 1}, domain.ErrSameStore},
		{"cantidad cero", inventory.TransferInput{ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 0}, domain.ErrInvalidQuantity},
		{"cantidad negativa", inventory.TransferInput{ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: -3}, domain.ErrInvalidQuantity},
		{"misma tienda gana a cantidad", inventory.TransferInput{ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s1", Quantity: 0}, domain.ErrSameStore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Transfer(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := engine.Transfer(ctx, inventory.TransferInput{SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 1})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "product_id", verr.Field)

	assert.Zero(t, runner.calls)
}

func TestTransfer_EntidadesInexistentes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 0)
	engine := newEngine(f.runner, nil)
	ctx := context.Background()

	cases := []struct {
		in     inventory.TransferInput
		entity string
	}{
		{inventory.TransferInput{ProductID: "px", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 1}, "product"},
		{inventory.TransferInput{ProductID: "p1", SourceStoreID: "sx", TargetStoreID: "s2", Quantity: 1}, "source store"},
		{inventory.TransferInput{ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "sx", Quantity: 1}, "target store"},
	}
	for _, tc := range cases {
		_, err := engine.Transfer(ctx, tc.in)
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, tc.entity, nf.Entity)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, 10, f.qty(t, "s1"))
	assert.Zero(t, f.movementCount(t))
}

func TestTransfer_ConcurrentesNoSobregiran(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 0)
	engine := newEngine(f.runner, nil)

	const workers = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transfer(context.Background(), inventory.TransferInput{
				ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, rejected)
	assert.Equal(t, 0, f.qty(t, "s1"))
	assert.Equal(t, 10, f.qty(t, "s2"))
	assert.Equal(t, 10, f.movementCount(t))
}

func TestTransfer_SentidosOpuestosConservanTotal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 50, 0)
	f.seed(t, "s2", 50, 0)
	engine := newEngine(f.runner, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = engine.Transfer(context.Background(), inventory.TransferInput{ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 2})
		}()
		go func() {
			defer wg.Done()
			_, _ = engine.Transfer(context.Background(), inventory.TransferInput{ProductID: "p1", SourceStoreID: "s2", TargetStoreID: "s1", Quantity: 3})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, f.qty(t, "s1")+f.qty(t, "s2"))
	assert.GreaterOrEqual(t, f.qty(t, "s1"), 0)
	assert.GreaterOrEqual(t, f.qty(t, "s2"), 0)
}

// conflictRunner ejecuta la unidad de trabajo real pero la aborta con un conflicto las primeras veces.
type conflictRunner struct {
	inner    inventory.TxRunner
	failures int
	calls    int
}

func (r *conflictRunner) Run(ctx context.Context, fn func(repository.InventoryRepository, repository.MovementRepository, repository.ProductRepository, repository.StoreRepository) error) error {
	r.calls++
	if r.calls > r.failures {
		return r.inner.Run(ctx, fn)
	}
	return r.inner.Run(ctx, func(s repository.InventoryRepository, m repository.MovementRepository, p repository.ProductRepository, st repository.StoreRepository) error {
		if err := fn(s, m, p, st); err != nil {
			return err
		}
		return domain.ErrConcurrencyConflict
	})
}

func TestTransfer_ReintentaConflictos(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 0)
	runner := &conflictRunner{inner: f.runner, failures: 2}

	_, err := newEngine(runner, nil).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, 6, f.qty(t, "s1"), "los intentos abortados no dejan rastro")
	assert.Equal(t, 1, f.movementCount(t))
}

func TestTransfer_AgotaReintentos(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 0)
	runner := &conflictRunner{inner: f.runner, failures: 10}

	_, err := newEngine(runner, nil).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 4,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, 10, f.qty(t, "s1"))
	assert.Zero(t, f.movementCount(t))
}

func TestTransfer_NoReintentaOtrosErrores(t *testing.T) {
	f := newFixture(t)
	runner := &conflictRunner{inner: f.runner}
	_, err := newEngine(runner, nil).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 4,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 1, runner.calls)
}

// slowRunner completa el trabajo y espera a que venza el contexto antes de confirmar.
type slowRunner struct {
	inner inventory.TxRunner
}

func (r slowRunner) Run(ctx context.Context, fn func(repository.InventoryRepository, repository.MovementRepository, repository.ProductRepository, repository.StoreRepository) error) error {
	return r.inner.Run(ctx, func(s repository.InventoryRepository, m repository.MovementRepository, p repository.ProductRepository, st repository.StoreRepository) error {
		if err := fn(s, m, p, st); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})
}

func TestTransfer_TimeoutRevierte(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 0)
	pub := &recordingPublisher{}
	cfg := engineCfg()
	cfg.Timeout = 20 * time.Millisecond
	engine := inventory.NewTransferEngine(slowRunner{inner: f.runner}, pub, cfg, zerolog.Nop())

	_, err := engine.Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 4,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 10, f.qty(t, "s1"))
	assert.Equal(t, 0, f.qty(t, "s2"))
	assert.Zero(t, f.movementCount(t))
	assert.Empty(t, pub.moves)
}

func TestTransfer_FalloAlPublicarNoDeshaceCommit(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 10, 0)
	pub := &recordingPublisher{err: errors.New("broker caído")}

	mov, err := newEngine(f.runner, pub).Transfer(context.Background(), inventory.TransferInput{
		ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 4,
	})
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Equal(t, 6, f.qty(t, "s1"))
	assert.Len(t, pub.moves, 1)
}

func TestReceiveYDispatch(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f.runner, nil)
	ctx := context.Background()
	minStock := 5

	in, err := engine.Receive(ctx, inventory.AdjustmentInput{ProductID: "p1", StoreID: "s3", Quantity: 8, MinStock: &minStock})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeIN, in.Type)
	assert.Equal(t, "s3", in.TargetStoreID)
	assert.Empty(t, in.SourceStoreID)

	cell, err := f.stock.GetCell(ctx, "p1", "s3")
	require.NoError(t, err)
	assert.Equal(t, 8, cell.Quantity)
	assert.Equal(t, 5, cell.MinStock)

	out, err := engine.Dispatch(ctx, inventory.AdjustmentInput{ProductID: "p1", StoreID: "s3", Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeOUT, out.Type)
	assert.Equal(t, "s3", out.SourceStoreID)
	assert.Empty(t, out.TargetStoreID)
	assert.Equal(t, 2, f.qty(t, "s3"))

	_, err = engine.Dispatch(ctx, inventory.AdjustmentInput{ProductID: "p1", StoreID: "s3", Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, f.movementCount(t))

	_, err = engine.Receive(ctx, inventory.AdjustmentInput{ProductID: "p1", StoreID: "s3", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestSetMinStock(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", 4, 0)
	engine := newEngine(f.runner, nil)
	ctx := context.Background()

	cell, err := engine.SetMinStock(ctx, "p1", "s1", 5)
	require.NoError(t, err)
	assert.Equal(t, 4, cell.Quantity)
	assert.Equal(t, 5, cell.MinStock)
	assert.Zero(t, f.movementCount(t), "el umbral no es un movimiento")

	_, err = engine.SetMinStock(ctx, "p1", "s1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = engine.SetMinStock(ctx, "p1", "sx", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterMovement_DespachaPorTipo(t *testing.T) {
	f := newFixture(t)
	engine := newEngine(f.runner, nil)
	ctx := context.Background()

	_, err := engine.RegisterMovement(ctx, dto.RegisterMovementRequest{Type: "in", ProductID: "p1", StoreID: "s1", Quantity: 10})
	require.NoError(t, err)
	_, err = engine.RegisterMovement(ctx, dto.RegisterMovementRequest{Type: "TRANSFER", ProductID: "p1", SourceStoreID: "s1", TargetStoreID: "s2", Quantity: 3})
	require.NoError(t, err)
	_, err = engine.RegisterMovement(ctx, dto.RegisterMovementRequest{Type: "OUT", ProductID: "p1", SourceStoreID: "s2", Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 7, f.qty(t, "s1"))
	assert.Equal(t, 2, f.qty(t, "s2"))
	assert.Equal(t, 3, f.movementCount(t))

	_, err = engine.RegisterMovement(ctx, dto.RegisterMovementRequest{Type: "ADJUSTMENT", ProductID: "p1", StoreID: "s1", Quantity: 1})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
}
