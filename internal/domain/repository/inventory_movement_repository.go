package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// InventoryMovementRepository puerto de persistencia para movimientos de inventario.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
}
