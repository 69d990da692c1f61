package parking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

func TestUpsertTariff_ReemplazaLaActiva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.tariffs.ListTariffs(ctx, f.companyID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].RoundingStep.Equal(dec("100")), "redondeo por defecto")

	updated, err := f.tariffs.UpsertTariff(ctx, f.companyID, f.userID, dto.UpsertTariffRequest{
		VehicleType: entity.VehicleCar, Name: "Carro", Unit: "hora", UnitPrice: dec("3500"), RoundingStep: decp("50"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, list[0].ID, updated.ID)
	assert.True(t, updated.RoundingStep.Equal(dec("50")))

	list, err = f.tariffs.ListTariffs(ctx, f.companyID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	active := 0
	for _, tr := range list {
		if tr.Active {
			active++
			assert.Equal(t, updated.ID, tr.ID)
		}
	}
	assert.Equal(t, 1, active)

	var actions []string
	for _, e := range f.store.AuditEntries() {
		if e.EntityType == "parking_tariff" {
			actions = append(actions, e.Action)
		}
	}
	assert.Equal(t, []string{entity.AuditCreate, entity.AuditUpdate}, actions)
}

func TestUpsertTariff_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   dto.UpsertTariffRequest
	}{
		{"vehículo desconocido", dto.UpsertTariffRequest{VehicleType: "bus", Unit: "hour", UnitPrice: dec("1")}},
		{"unidad desconocida", dto.UpsertTariffRequest{VehicleType: entity.VehicleCar, Unit: "quincena", UnitPrice: dec("1")}},
		{"precio negativo", dto.UpsertTariffRequest{VehicleType: entity.VehicleCar, Unit: "hour", UnitPrice: dec("-1")}},
		{"tolerancia de una hora", dto.UpsertTariffRequest{VehicleType: entity.VehicleCar, Unit: "hour", UnitPrice: dec("1"), ToleranceMinutes: 60}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tariffs.UpsertTariff(ctx, f.companyID, f.userID, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDeactivateTariff_BloqueaEntradas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	list, err := f.tariffs.ListTariffs(ctx, f.companyID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.tariffs.DeactivateTariff(ctx, "otra", f.userID, list[0].ID), domain.ErrForbidden)
	require.NoError(t, f.tariffs.DeactivateTariff(ctx, f.companyID, f.userID, list[0].ID))
	require.NoError(t, f.tariffs.DeactivateTariff(ctx, f.companyID, f.userID, list[0].ID))

	_, err = f.sessions.RegisterEntry(ctx, f.companyID, f.userID, dto.RegisterEntryRequest{
		WarehouseID: f.whID, Plate: "ABC123", VehicleType: entity.VehicleCar,
	})
	assert.ErrorIs(t, err, domain.ErrTariffNotFound)
}

func TestVehicleTypes(t *testing.T) {
	f := newFixture(t)
	types := f.tariffs.VehicleTypes()
	require.Len(t, types, 4)
	assert.Equal(t, entity.VehicleBicycle, types[0].Code)
}

func TestSesionConservaTarifaDeEntrada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := time.Now().Add(-3 * time.Hour)
	s := f.enter(t, "ABC123", entry)

	_, err := f.tariffs.UpsertTariff(ctx, f.companyID, f.userID, dto.UpsertTariffRequest{
		VehicleType: entity.VehicleCar, Name: "Carro día", Unit: "day", UnitPrice: dec("25000"),
	})
	require.NoError(t, err)

	at := entry.Add(2 * time.Hour)
	q, err := f.sessions.QuoteExit(ctx, f.companyID, s.ID, &at)
	require.NoError(t, err)
	assert.Equal(t, "hour", q.Unit)
	assert.True(t, q.Total.Equal(dec("6000")), q.Total.String())
}

func TestTariff_FechasConRelojInyectado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 7, 30, 0, 0, time.UTC)
	parking.SetTariffClock(f.tariffs, func() time.Time { return at })

	tr, err := f.tariffs.UpsertTariff(ctx, f.companyID, f.userID, dto.UpsertTariffRequest{
		VehicleType: entity.VehicleTruck, Name: "Camión", Unit: "hour", UnitPrice: dec("8000"),
	})
	require.NoError(t, err)
	stored, err := f.store.Tariffs().GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, at, stored.CreatedAt)
	assert.Equal(t, at, stored.UpdatedAt)

	later := at.Add(3 * time.Hour)
	parking.SetTariffClock(f.tariffs, func() time.Time { return later })
	require.NoError(t, f.tariffs.DeactivateTariff(ctx, f.companyID, f.userID, tr.ID))
	stored, err = f.store.Tariffs().GetByID(ctx, tr.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, at, stored.CreatedAt)
	assert.Equal(t, later, stored.UpdatedAt)
}
