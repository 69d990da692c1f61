package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	costing "github.com/jhoicas/invorya-erp/internal/domain/inventory"
)

// Move movimiento a aplicar con repos transaccionales.
// IN/OUT/ADJUSTMENT usan WarehouseID; TRANSFER usa FromWarehouseID y ToWarehouseID.
// UnitCost es obligatorio en IN; en OUT se usa el costo promedio vigente.
type Move struct {
	Type            string
	ProductID       string
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	TransactionID   string
	Reference       string
	UserID          string
	At              time.Time
}

// Apply bloquea las filas de stock involucradas (SELECT FOR UPDATE), actualiza existencias
// y costo promedio, y guarda los movimientos. Debe llamarse dentro de TxRunner.Run.
func Apply(ctx context.Context, r Repos, m Move) ([]*entity.InventoryMovement, error) {
	if m.At.IsZero() {
		m.At = time.Now()
	}
	product, err := r.Products.GetByID(ctx, m.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", m.ProductID, domain.ErrNotFound)
	}

	switch m.Type {
	case entity.MovementTypeIN:
		mov, err := moveIn(ctx, r, product, m)
		return one(mov, err)
	case entity.MovementTypeOUT:
		mov, err := moveOut(ctx, r, product, m)
		return one(mov, err)
	case entity.MovementTypeADJUSTMENT:
		mov, err := adjust(ctx, r, product, m)
		return one(mov, err)
	case entity.MovementTypeTRANSFER:
		return transfer(ctx, r, product, m)
	}
	return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, m.Type)
}

func one(mov *entity.InventoryMovement, err error) ([]*entity.InventoryMovement, error) {
	if err != nil {
		return nil, err
	}
	return []*entity.InventoryMovement{mov}, nil
}

// moveIn recalcula el costo promedio ponderado y suma existencias.
func moveIn(ctx context.Context, r Repos, product *entity.Product, m Move) (*entity.InventoryMovement, error) {
	if m.UnitCost == nil || m.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario requerido en entradas", domain.ErrInvalidInput)
	}
	stock, err := r.Stock.GetForUpdate(ctx, m.ProductID, m.WarehouseID)
	if err != nil {
		return nil, err
	}
	total, err := totalStock(ctx, r, m.ProductID)
	if err != nil {
		return nil, err
	}
	newCost := costing.WeightedAverageCost(total, product.Cost, m.Quantity, *m.UnitCost)
	if !newCost.Equal(product.Cost) {
		if err := r.Products.UpdateCost(ctx, m.ProductID, newCost); err != nil {
			return nil, err
		}
		product.Cost = newCost
	}
	stock.Quantity = stock.Quantity.Add(m.Quantity)
	stock.UpdatedAt = m.At
	if err := r.Stock.Upsert(ctx, stock); err != nil {
		return nil, err
	}
	return record(ctx, r, m, m.WarehouseID, entity.MovementTypeIN, m.Quantity, *m.UnitCost)
}

// moveOut verifica existencias suficientes y descuenta al costo promedio actual.
func moveOut(ctx context.Context, r Repos, product *entity.Product, m Move) (*entity.InventoryMovement, error) {
	stock, err := r.Stock.GetForUpdate(ctx, m.ProductID, m.WarehouseID)
	if err != nil {
		return nil, err
	}
	if stock.Quantity.LessThan(m.Quantity) {
		return nil, fmt.Errorf("%w: %s tiene %s, se piden %s", domain.ErrInsufficientStock,
			product.SKU, stock.Quantity.String(), m.Quantity.String())
	}
	stock.Quantity = stock.Quantity.Sub(m.Quantity)
	stock.UpdatedAt = m.At
	if err := r.Stock.Upsert(ctx, stock); err != nil {
		return nil, err
	}
	return record(ctx, r, m, m.WarehouseID, entity.MovementTypeOUT, m.Quantity.Neg(), product.Cost)
}

// adjust: positivo entra (costo opcional, por defecto el promedio), negativo sale.
func adjust(ctx context.Context, r Repos, product *entity.Product, m Move) (*entity.InventoryMovement, error) {
	var (
		mov *entity.InventoryMovement
		err error
	)
	if m.Quantity.IsPositive() {
		if m.UnitCost == nil {
			c := product.Cost
			m.UnitCost = &c
		}
		mov, err = moveIn(ctx, r, product, m)
	} else {
		m.Quantity = m.Quantity.Neg()
		mov, err = moveOut(ctx, r, product, m)
	}
	if err != nil {
		return nil, err
	}
	mov.Type = entity.MovementTypeADJUSTMENT
	return mov, nil
}

// transfer resta en origen y suma en destino; deja dos movimientos con el mismo TransactionID.
func transfer(ctx context.Context, r Repos, product *entity.Product, m Move) ([]*entity.InventoryMovement, error) {
	origin, err := r.Stock.GetForUpdate(ctx, m.ProductID, m.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	if origin.Quantity.LessThan(m.Quantity) {
		return nil, fmt.Errorf("%w: %s tiene %s en origen", domain.ErrInsufficientStock, product.SKU, origin.Quantity.String())
	}
	dest, err := r.Stock.GetForUpdate(ctx, m.ProductID, m.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	origin.Quantity = origin.Quantity.Sub(m.Quantity)
	dest.Quantity = dest.Quantity.Add(m.Quantity)
	origin.UpdatedAt, dest.UpdatedAt = m.At, m.At
	if err := r.Stock.Upsert(ctx, origin); err != nil {
		return nil, err
	}
	if err := r.Stock.Upsert(ctx, dest); err != nil {
		return nil, err
	}
	out, err := record(ctx, r, m, m.FromWarehouseID, entity.MovementTypeTRANSFER, m.Quantity.Neg(), product.Cost)
	if err != nil {
		return nil, err
	}
	in, err := record(ctx, r, m, m.ToWarehouseID, entity.MovementTypeTRANSFER, m.Quantity, product.Cost)
	if err != nil {
		return nil, err
	}
	return []*entity.InventoryMovement{out, in}, nil
}

func record(ctx context.Context, r Repos, m Move, warehouseID, typ string, qty, unitCost decimal.Decimal) (*entity.InventoryMovement, error) {
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		WarehouseID:   warehouseID,
		Type:          typ,
		Quantity:      qty,
		UnitCost:      unitCost,
		TotalCost:     costing.MovementTotal(qty, unitCost),
		Reference:     m.Reference,
		Date:          m.At,
		CreatedAt:     m.At,
		CreatedBy:     m.UserID,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// totalStock existencias del producto en todas las bodegas (base del costo promedio).
func totalStock(ctx context.Context, r Repos, productID string) (decimal.Decimal, error) {
	list, err := r.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range list {
		total = total.Add(s.Quantity)
	}
	return total, nil
}
