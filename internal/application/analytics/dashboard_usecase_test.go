package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/analytics"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

type fakeDashboard struct {
	failTop bool
}

func (f *fakeDashboard) SalesTotals(_ context.Context, _ string, from, to time.Time) (decimal.Decimal, decimal.Decimal, int, error) {
	if to.Sub(from) < 25*time.Hour {
		return decimal.NewFromInt(100000), decimal.NewFromInt(60000), 2, nil
	}
	return decimal.NewFromInt(1000000), decimal.NewFromInt(700000), 30, nil
}

func (f *fakeDashboard) TopProducts(context.Context, string, time.Time, time.Time, int) ([]repository.TopProduct, error) {
	if f.failTop {
		return nil, errors.New("timeout")
	}
	return []repository.TopProduct{{ProductID: "p1", SKU: "A1", Name: "Café", Quantity: decimal.NewFromInt(10),
		Revenue: decimal.NewFromInt(200000), Margin: decimal.NewFromInt(50000)}}, nil
}

func (f *fakeDashboard) ReceivableTotals(context.Context, string, time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return decimal.NewFromInt(500000), decimal.NewFromInt(120000), nil
}

func (f *fakeDashboard) ParkingRevenue(context.Context, string, time.Time, time.Time) (decimal.Decimal, int, error) {
	return decimal.NewFromInt(45000), 7, nil
}

func (f *fakeDashboard) LowStockCount(context.Context, string, decimal.Decimal) (int, error) {
	return 3, nil
}

func TestGetSummary(t *testing.T) {
	s := memstore.New()
	companyID, whID, _ := s.SeedCompany("900123456")
	require.NoError(t, s.Sessions().Create(context.Background(), &entity.ParkingSession{
		ID: "s1", CompanyID: companyID, WarehouseID: whID, Plate: "ABC123", Status: entity.SessionStatusActive, EntryAt: time.Now(),
	}))
	uc := analytics.NewDashboardUseCase(&fakeDashboard{}, s.Sessions(), decimal.NewFromInt(5))

	out, err := uc.GetSummary(context.Background(), companyID)
	require.NoError(t, err)
	// en el primer día del mes los dos rangos son de un día
	if time.Now().Day() > 1 {
		assert.True(t, out.MonthlySales.Equal(decimal.NewFromInt(1000000)))
		assert.True(t, out.MonthlyMargin.Equal(decimal.NewFromInt(300000)))
		assert.Equal(t, 30, out.MonthInvoices)
	}
	assert.True(t, out.TodaySales.Equal(decimal.NewFromInt(100000)))
	assert.True(t, out.TodayMargin.Equal(decimal.NewFromInt(40000)))
	assert.True(t, out.ReceivablesOverdue.Equal(decimal.NewFromInt(120000)))
	assert.Equal(t, 1, out.ParkingActive)
	assert.Equal(t, 7, out.ParkingTodayExits)
	assert.Equal(t, 3, out.LowStockProducts)
	require.Len(t, out.TopSKUs, 1)
	assert.True(t, out.TopSKUs[0].MarginPercentage.Equal(decimal.NewFromInt(25)))
	assert.NotEmpty(t, out.DateLabel)
}

func TestGetSummary_PropagaError(t *testing.T) {
	s := memstore.New()
	companyID, _, _ := s.SeedCompany("900123456")
	uc := analytics.NewDashboardUseCase(&fakeDashboard{failTop: true}, s.Sessions(), decimal.NewFromInt(5))
	_, err := uc.GetSummary(context.Background(), companyID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top SKUs")
}
