package parking_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
)

func TestRegisterEntry_NormalizaPlacaYNumeraTiquetes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := time.Now().Add(-time.Hour)

	s := f.enter(t, "abc-123", entry)
	assert.Equal(t, "ABC123", s.Plate)
	assert.Equal(t, "000001", s.TicketNumber)
	assert.Equal(t, entity.SessionStatusActive, s.Status)
	assert.NotEmpty(t, s.TariffID)

	_, err := f.sessions.RegisterEntry(ctx, f.companyID, f.userID, dto.RegisterEntryRequest{
		WarehouseID: f.whID, Plate: "ABC 123", VehicleType: entity.VehicleCar,
	})
	assert.ErrorIs(t, err, domain.ErrActiveSession)

	_, err = f.sessions.RegisterEntry(ctx, f.companyID, f.userID, dto.RegisterEntryRequest{
		WarehouseID: f.whID, Plate: "MOT12A", VehicleType: entity.VehicleMotorcycle,
	})
	assert.ErrorIs(t, err, domain.ErrTariffNotFound)

	s2 := f.enter(t, "XYZ789", entry)
	assert.Equal(t, "000002", s2.TicketNumber, "los intentos fallidos no consumen tiquete")

	_, err = f.sessions.RegisterEntry(ctx, f.companyID, f.userID, dto.RegisterEntryRequest{
		WarehouseID: f.whID, Plate: "QWE456", VehicleType: entity.VehicleCar,
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "la sede tiene 2 cupos")

	future := time.Now().Add(time.Hour)
	_, err = f.sessions.RegisterEntry(ctx, f.companyID, f.userID, dto.RegisterEntryRequest{
		WarehouseID: f.whID, Plate: "FUT111", VehicleType: entity.VehicleCar, EntryAt: &future,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuoteExit_NoModificaLaSesion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := time.Now().Add(-3 * time.Hour)
	s := f.enter(t, "ABC123", entry)

	at := entry.Add(150 * time.Minute)
	q, err := f.sessions.QuoteExit(ctx, f.companyID, s.ID, &at)
	require.NoError(t, err)
	assert.Equal(t, int64(150), q.DurationMinutes)
	assert.Equal(t, int64(3), q.BillableUnits)
	assert.True(t, q.Total.Equal(dec("9000")), q.Total.String())

	grace := entry.Add(8 * time.Minute)
	q, err = f.sessions.QuoteExit(ctx, f.companyID, s.ID, &grace)
	require.NoError(t, err)
	assert.True(t, q.GraceApplied)
	assert.True(t, q.Total.IsZero())

	got, err := f.sessions.GetSession(ctx, f.companyID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusActive, got.Status)
	assert.Nil(t, got.ExitAt)
}

func TestCloseSession_LiquidaConTopeDiario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := time.Now().Add(-30 * time.Hour)
	s := f.enter(t, "ABC123", entry)

	exit := entry.Add(26*time.Hour + 20*time.Minute)
	closed, err := f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10", ExitAt: &exit})
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusClosed, closed.Status)
	// día completo topado en 20.000 + 3 horas (140 min, 20 > tolerancia) = 29.000
	assert.True(t, closed.Amount.Equal(dec("29000")), closed.Amount.String())
	require.NotNil(t, closed.ExitAt)

	var q domainparking.Quote
	require.NoError(t, json.Unmarshal(closed.Breakdown, &q))
	assert.True(t, q.CapApplied)
	assert.Len(t, q.Breakdown, 2)

	_, err = f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10"})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = f.sessions.QuoteExit(ctx, f.companyID, s.ID, nil)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	// la placa puede volver a entrar
	f.enter(t, "ABC123", time.Now())
}

func TestCloseSession_Rechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := time.Now().Add(-time.Hour)
	s := f.enter(t, "ABC123", entry)

	_, err := f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "XX"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	before := entry.Add(-time.Minute)
	_, err = f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10", ExitAt: &before})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	future := time.Now().Add(time.Hour)
	_, err = f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10", ExitAt: &future})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.sessions.QuoteExit(ctx, f.companyID, s.ID, &future)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.sessions.CloseSession(ctx, "otra", f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, _ := f.sessions.GetSession(ctx, f.companyID, s.ID)
	assert.Equal(t, entity.SessionStatusActive, got.Status)
}

func TestCloseSession_AbonadoNoPaga(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, err := f.subs.CreateSubscription(ctx, f.companyID, f.userID, dto.CreateSubscriptionRequest{
		Plate: "abc123", VehicleType: entity.VehicleCar, HolderName: "Ana Pérez",
		PlanUnit: "month", Periods: 1, StartDate: timePtr(time.Now().Add(-24 * time.Hour)), Price: decp("180000"),
	})
	require.NoError(t, err)

	s := f.enter(t, "ABC-123", time.Now().Add(-2*time.Hour))
	assert.Equal(t, sub.ID, s.SubscriptionID)

	q, err := f.sessions.QuoteExit(ctx, f.companyID, s.ID, nil)
	require.NoError(t, err)
	assert.True(t, q.Covered)
	assert.True(t, q.Total.IsZero())
	assert.True(t, q.Gross.IsPositive())

	closed, err := f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10"})
	require.NoError(t, err)
	assert.True(t, closed.Amount.IsZero())
}

func TestQuoteExit_AbonoPosteriorALaEntradaCobraLoDescubierto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now().UTC()
	s := f.enter(t, "ABC123", base.Add(-5*24*time.Hour))
	assert.Empty(t, s.SubscriptionID)

	sub, err := f.subs.CreateSubscription(ctx, f.companyID, f.userID, subRequest("ABC123", base.Add(-time.Hour)))
	require.NoError(t, err)

	q, err := f.sessions.QuoteExit(ctx, f.companyID, s.ID, &base)
	require.NoError(t, err)
	// 119 h descubiertas: 4 días topados (80.000) + 23 h topadas (20.000)
	assert.False(t, q.Covered)
	assert.True(t, q.Total.Equal(dec("100000")), q.Total.String())
	assert.Equal(t, int64(60), q.CoveredMinutes)
	assert.Equal(t, sub.ID, q.SubscriptionID)
}

func TestCloseSession_AbonoVencidoDuranteLaEstadia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now().UTC()
	req := subRequest("ABC123", base.Add(-7*24*time.Hour-3*time.Hour))
	req.PlanUnit = "week"
	sub, err := f.subs.CreateSubscription(ctx, f.companyID, f.userID, req)
	require.NoError(t, err)
	require.Equal(t, base.Add(-3*time.Hour), sub.EndDate)

	s := f.enter(t, "ABC123", base.Add(-5*time.Hour))
	assert.Equal(t, sub.ID, s.SubscriptionID)

	closed, err := f.sessions.CloseSession(ctx, f.companyID, f.userID, s.ID, dto.CloseSessionRequest{PaymentMethod: "10", ExitAt: &base})
	require.NoError(t, err)
	// 2 h cubiertas, 3 h por tarifa
	assert.True(t, closed.Amount.Equal(dec("9000")), closed.Amount.String())

	var q domainparking.Quote
	require.NoError(t, json.Unmarshal(closed.Breakdown, &q))
	assert.False(t, q.Covered)
	assert.Equal(t, int64(120), q.CoveredMinutes)
}

func TestCancelSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.enter(t, "ABC123", time.Now().Add(-time.Hour))

	_, err := f.sessions.CancelSession(ctx, f.companyID, f.userID, s.ID, dto.CancelSessionRequest{Reason: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	c, err := f.sessions.CancelSession(ctx, f.companyID, f.userID, s.ID, dto.CancelSessionRequest{Reason: "placa mal digitada"})
	require.NoError(t, err)
	assert.Equal(t, entity.SessionStatusCancelled, c.Status)
	assert.True(t, c.Amount.IsZero())

	_, err = f.sessions.CancelSession(ctx, f.companyID, f.userID, s.ID, dto.CancelSessionRequest{Reason: "otra vez"})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	var cancels int
	for _, e := range f.store.AuditEntries() {
		if e.EntityType == "parking_session" && e.Action == entity.AuditCancel {
			cancels++
		}
	}
	assert.Equal(t, 1, cancels)
}

func TestListSessionsYTiquete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.enter(t, "ABC123", time.Now().Add(-2*time.Hour))
	f.enter(t, "XYZ789", time.Now().Add(-time.Hour))
	_, err := f.sessions.CloseSession(ctx, f.companyID, f.userID, a.ID, dto.CloseSessionRequest{PaymentMethod: "10"})
	require.NoError(t, err)

	list, err := f.sessions.ListSessions(ctx, f.companyID, dto.SessionFilterRequest{Plate: "abc-123"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.ID, list.Items[0].ID)

	active, err := f.sessions.ListSessions(ctx, f.companyID, dto.SessionFilterRequest{Status: entity.SessionStatusActive})
	require.NoError(t, err)
	assert.Equal(t, 1, active.Page.Total)

	data, name, err := f.sessions.TicketPDF(ctx, f.companyID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-ticket", string(data))
	assert.Equal(t, "tiquete_000001.pdf", name)
	require.NotNil(t, f.ticket.quote)
	assert.True(t, f.ticket.quote.Total.Equal(dec("6000")), f.ticket.quote.Total.String())
}

func timePtr(t time.Time) *time.Time { return &t }
