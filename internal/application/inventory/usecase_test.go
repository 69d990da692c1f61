package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store     *memstore.Store
	uc        *inventory.RegisterMovementUseCase
	companyID string
	whID      string
	userID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	companyID, whID, userID := s.SeedCompany("900123456")
	uc := inventory.NewRegisterMovementUseCase(s, s.Products(), s.Warehouses(), s.Stock(), s.Movements(), s.Recorder())
	return &fixture{store: s, uc: uc, companyID: companyID, whID: whID, userID: userID}
}

func TestRegisterMovement_EntradaRecalculaCostoPromedio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.store.SeedProduct(f.companyID, f.whID, "A1", dec("20000"), dec("10000"), dec("19"), dec("10"))

	cost := dec("13000")
	movs, err := f.uc.RegisterMovement(ctx, f.companyID, f.userID, dto.RegisterMovementRequest{
		ProductID: pid, WarehouseID: f.whID, Type: entity.MovementTypeIN, Quantity: dec("5"), UnitCost: &cost,
	})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].TotalCost.Equal(dec("65000")))

	p, _ := f.store.Products().GetByID(ctx, pid)
	assert.True(t, p.Cost.Equal(dec("11000")), p.Cost.String())
	assert.True(t, f.store.StockOf(pid, f.whID).Equal(dec("15")))
	assert.Len(t, f.store.AuditEntries(), 1)
}

func TestRegisterMovement_SalidaSinStock(t *testing.T) {
	f := newFixture(t)
	pid := f.store.SeedProduct(f.companyID, f.whID, "A1", dec("100"), dec("50"), dec("0"), dec("2"))

	_, err := f.uc.RegisterMovement(context.Background(), f.companyID, f.userID, dto.RegisterMovementRequest{
		ProductID: pid, WarehouseID: f.whID, Type: entity.MovementTypeOUT, Quantity: dec("3"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.store.StockOf(pid, f.whID).Equal(dec("2")))
	assert.Empty(t, f.store.MovementsOf(pid))
}

func TestRegisterMovement_AjusteNegativo(t *testing.T) {
	f := newFixture(t)
	pid := f.store.SeedProduct(f.companyID, f.whID, "A1", dec("100"), dec("50"), dec("0"), dec("5"))

	movs, err := f.uc.RegisterMovement(context.Background(), f.companyID, f.userID, dto.RegisterMovementRequest{
		ProductID: pid, WarehouseID: f.whID, Type: entity.MovementTypeADJUSTMENT, Quantity: dec("-2"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeADJUSTMENT, movs[0].Type)
	assert.True(t, movs[0].Quantity.Equal(dec("-2")))
	assert.True(t, f.store.StockOf(pid, f.whID).Equal(dec("3")))
}

func TestRegisterMovement_Traslado(t *testing.T) {
	f := newFixture(t)
	other := f.store.AddWarehouse(f.companyID, "Norte", 0)
	pid := f.store.SeedProduct(f.companyID, f.whID, "A1", dec("100"), dec("50"), dec("0"), dec("5"))

	movs, err := f.uc.RegisterMovement(context.Background(), f.companyID, f.userID, dto.RegisterMovementRequest{
		ProductID: pid, FromWarehouseID: f.whID, ToWarehouseID: other, Type: entity.MovementTypeTRANSFER, Quantity: dec("4"),
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, movs[0].TransactionID, movs[1].TransactionID)
	assert.True(t, f.store.StockOf(pid, f.whID).Equal(dec("1")))
	assert.True(t, f.store.StockOf(pid, other).Equal(dec("4")))
}

func TestRegisterMovement_Validaciones(t *testing.T) {
	f := newFixture(t)
	pid := f.store.SeedProduct(f.companyID, f.whID, "A1", dec("100"), dec("50"), dec("0"), dec("5"))
	otherCompany, otherWh, _ := f.store.SeedCompany("800987654")
	foreign := f.store.SeedProduct(otherCompany, otherWh, "B1", dec("1"), dec("1"), dec("0"), dec("1"))

	cases := map[string]struct {
		req  dto.RegisterMovementRequest
		want error
	}{
		"entrada sin costo":    {dto.RegisterMovementRequest{ProductID: pid, WarehouseID: f.whID, Type: "IN", Quantity: dec("1")}, domain.ErrInvalidInput},
		"tipo desconocido":     {dto.RegisterMovementRequest{ProductID: pid, WarehouseID: f.whID, Type: "LOAN", Quantity: dec("1")}, domain.ErrInvalidInput},
		"traslado misma":       {dto.RegisterMovementRequest{ProductID: pid, FromWarehouseID: f.whID, ToWarehouseID: f.whID, Type: "TRANSFER", Quantity: dec("1")}, domain.ErrInvalidInput},
		"producto ajeno":       {dto.RegisterMovementRequest{ProductID: foreign, WarehouseID: f.whID, Type: "OUT", Quantity: dec("1")}, domain.ErrForbidden},
		"bodega de otra firma": {dto.RegisterMovementRequest{ProductID: pid, WarehouseID: otherWh, Type: "OUT", Quantity: dec("1")}, domain.ErrNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.RegisterMovement(context.Background(), f.companyID, f.userID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGetStockYKardex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pid := f.store.SeedProduct(f.companyID, f.whID, "A1", dec("100"), dec("50"), dec("0"), dec("5"))
	_, err := f.uc.RegisterMovement(ctx, f.companyID, f.userID, dto.RegisterMovementRequest{
		ProductID: pid, WarehouseID: f.whID, Type: "OUT", Quantity: dec("1"),
	})
	require.NoError(t, err)

	stock, err := f.uc.GetStock(ctx, f.companyID, pid)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.True(t, stock[0].Quantity.Equal(dec("4")))

	movs, err := f.uc.ListMovements(ctx, f.companyID, pid, nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].TotalCost.Equal(dec("50")))
}
