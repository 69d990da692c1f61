package parking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

func TestReport_CuentaYRecauda(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := time.Now().Add(-5 * time.Hour)

	a := f.enter(t, "ABC123", entry)
	exit := entry.Add(90 * time.Minute)
	_, err := f.sessions.CloseSession(ctx, f.companyID, f.userID, a.ID, dto.CloseSessionRequest{PaymentMethod: "10", ExitAt: &exit})
	require.NoError(t, err)

	b := f.enter(t, "XYZ789", entry)
	_, err = f.sessions.CancelSession(ctx, f.companyID, f.userID, b.ID, dto.CancelSessionRequest{Reason: "error de digitación"})
	require.NoError(t, err)

	f.enter(t, "QWE456", entry)

	from, to := time.Now().Add(-24*time.Hour), time.Now()
	r, err := f.reports.Report(ctx, f.companyID, from, to)
	require.NoError(t, err)
	assert.Len(t, r.Sessions, 3)
	assert.Equal(t, 1, r.Closed)
	assert.Equal(t, 1, r.Cancelled)
	assert.Equal(t, 1, r.Active)
	assert.True(t, r.Total.Equal(dec("6000")), r.Total.String())
	assert.True(t, r.ByVehicle[entity.VehicleCar].Equal(dec("6000")))

	_, err = f.reports.Report(ctx, f.companyID, to, from)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	data, name, err := f.reports.ExportReport(ctx, f.companyID, from, to)
	require.NoError(t, err)
	assert.Equal(t, "Empresa 900123456", string(data))
	assert.Contains(t, name, "parqueadero_")
	assert.Equal(t, 3, len(f.exporter.report.Sessions))
}
