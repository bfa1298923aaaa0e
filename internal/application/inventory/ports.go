package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una unidad de trabajo, pasando repositorios atados a ella.
// Si fn devuelve error (o el contexto expira) no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.InventoryRepository,
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
		storeRepo repository.StoreRepository,
	) error) error
}

// MovementPublisher notifica movimientos ya confirmados (Kafka en producción).
type MovementPublisher interface {
	Publish(ctx context.Context, movement *entity.Movement) error
}

// LowStockReportGenerator renderiza el reporte de alertas de bajo stock.
type LowStockReportGenerator interface {
	GenerateLowStockReport(lines []dto.LowStockLine, generatedAt time.Time) ([]byte, error)
}
