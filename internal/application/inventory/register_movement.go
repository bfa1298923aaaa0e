package inventory

import (
	"context"
	"strings"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// RegisterMovement adapta el request HTTP de movimientos al motor según el tipo (IN, OUT, TRANSFER).
// store_id sirve de atajo para la única tienda de IN/OUT.
func (e *TransferEngine) RegisterMovement(ctx context.Context, in dto.RegisterMovementRequest) (*entity.Movement, error) {
	switch strings.ToUpper(strings.TrimSpace(in.Type)) {
	case entity.MovementTypeIN:
		return e.Receive(ctx, AdjustmentInput{
			ProductID: in.ProductID,
			StoreID:   firstNonEmpty(in.TargetStoreID, in.StoreID),
			Quantity:  in.Quantity,
			MinStock:  in.MinStock,
		})
	case entity.MovementTypeOUT:
		return e.Dispatch(ctx, AdjustmentInput{
			ProductID: in.ProductID,
			StoreID:   firstNonEmpty(in.SourceStoreID, in.StoreID),
			Quantity:  in.Quantity,
		})
	case entity.MovementTypeTRANSFER:
		return e.Transfer(ctx, TransferInput{
			ProductID:     in.ProductID,
			SourceStoreID: in.SourceStoreID,
			TargetStoreID: in.TargetStoreID,
			Quantity:      in.Quantity,
		})
	}
	return nil, &domain.ValidationError{Field: "type", Reason: "debe ser IN, OUT o TRANSFER"}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
