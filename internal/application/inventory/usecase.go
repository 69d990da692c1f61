package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos manuales (IN, OUT, ADJUSTMENT, TRANSFER)
// y consulta existencias e historial.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	stockRepo     repository.StockRepository
	movementRepo  repository.InventoryMovementRepository
	audit         ports.AuditRecorder
}

func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.InventoryMovementRepository,
	auditRec ports.AuditRecorder,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		audit:         auditRec,
	}
}

// RegisterMovement valida pertenencia de producto y bodegas y aplica el movimiento en una transacción.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, companyID, userID string, in dto.RegisterMovementRequest) ([]dto.MovementResponse, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	whs := []string{in.WarehouseID}
	if in.Type == entity.MovementTypeTRANSFER {
		whs = []string{in.FromWarehouseID, in.ToWarehouseID}
	}
	for _, id := range whs {
		if err := uc.checkWarehouse(ctx, companyID, id); err != nil {
			return nil, err
		}
	}

	m := Move{
		Type:            in.Type,
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		TransactionID:   uuid.New().String(),
		Reference:       in.Reference,
		UserID:          userID,
		At:              time.Now(),
	}
	var movs []*entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(r Repos) error {
		var err error
		movs, err = Apply(ctx, r, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "inventory_movement", m.TransactionID,
		fmt.Sprintf("%s %s x %s", in.Type, product.SKU, in.Quantity.String()), nil, in))

	out := make([]dto.MovementResponse, 0, len(movs))
	for _, mv := range movs {
		out = append(out, toMovementResponse(mv))
	}
	return out, nil
}

func validateMovement(in dto.RegisterMovementRequest) error {
	switch in.Type {
	case entity.MovementTypeIN, entity.MovementTypeOUT:
		if in.WarehouseID == "" || !in.Quantity.IsPositive() {
			return fmt.Errorf("%w: bodega y cantidad positiva requeridas", domain.ErrInvalidInput)
		}
		if in.Type == entity.MovementTypeIN && (in.UnitCost == nil || in.UnitCost.IsNegative()) {
			return fmt.Errorf("%w: costo unitario requerido en entradas", domain.ErrInvalidInput)
		}
	case entity.MovementTypeADJUSTMENT:
		if in.WarehouseID == "" || in.Quantity.IsZero() {
			return fmt.Errorf("%w: bodega y cantidad distinta de cero requeridas", domain.ErrInvalidInput)
		}
	case entity.MovementTypeTRANSFER:
		if in.FromWarehouseID == "" || in.ToWarehouseID == "" || in.FromWarehouseID == in.ToWarehouseID {
			return fmt.Errorf("%w: bodegas de origen y destino distintas requeridas", domain.ErrInvalidInput)
		}
		if !in.Quantity.IsPositive() {
			return fmt.Errorf("%w: cantidad positiva requerida", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, in.Type)
	}
	return nil
}

func (uc *RegisterMovementUseCase) checkWarehouse(ctx context.Context, companyID, id string) error {
	wh, err := uc.warehouseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wh == nil || wh.CompanyID != companyID {
		return fmt.Errorf("bodega %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetStock existencias del producto por bodega.
func (uc *RegisterMovementUseCase) GetStock(ctx context.Context, companyID, productID string) ([]dto.StockResponse, error) {
	if err := uc.ownProduct(ctx, companyID, productID); err != nil {
		return nil, err
	}
	list, err := uc.stockRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.StockResponse{
			ProductID:   s.ProductID,
			WarehouseID: s.WarehouseID,
			Quantity:    s.Quantity,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return out, nil
}

// ListMovements kardex del producto.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, companyID, productID string, from, to *time.Time, limit, offset int) ([]dto.MovementResponse, error) {
	if err := uc.ownProduct(ctx, companyID, productID); err != nil {
		return nil, err
	}
	list, err := uc.movementRepo.ListByProduct(ctx, productID, from, to, dto.NormalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out, nil
}

func (uc *RegisterMovementUseCase) ownProduct(ctx context.Context, companyID, productID string) error {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return nil
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		WarehouseID:   m.WarehouseID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		Reference:     m.Reference,
		Date:          m.Date,
		CreatedBy:     m.CreatedBy,
	}
}
