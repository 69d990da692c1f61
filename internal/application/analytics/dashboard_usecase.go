// Package analytics contiene los casos de uso para reportes de negocio y el
// tablero de la empresa: ventas, cartera, inventario y parqueadero.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

const dashboardTopSKUs = 5 // número de SKUs en el widget del dashboard

// DashboardUseCase genera el resumen del día y del mes en curso.
//
// Fuente de datos: DashboardRepository (consultas read-only) y sesiones de parqueo activas.
type DashboardUseCase struct {
	repo        repository.DashboardRepository
	sessionRepo repository.ParkingSessionRepository
	lowStock    decimal.Decimal
	now         func() time.Time
}

// NewDashboardUseCase lowStock es el umbral de existencias del widget de inventario.
func NewDashboardUseCase(repo repository.DashboardRepository, sessionRepo repository.ParkingSessionRepository, lowStock decimal.Decimal) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, sessionRepo: sessionRepo, lowStock: lowStock, now: time.Now}
}

// GetSummary construye el DashboardSummaryDTO para la empresa indicada.
// Las consultas corren en paralelo; la primera que falle cancela las demás.
func (uc *DashboardUseCase) GetSummary(ctx context.Context, companyID string) (*dto.DashboardSummaryDTO, error) {
	now := uc.now()

	// Hoy: 00:00:00.000 – 23:59:59.999
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24*time.Hour - time.Nanosecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		out                 = &dto.DashboardSummaryDTO{DateLabel: monthLabel(now), TopSKUs: []dto.TopSKUDTO{}}
		todayRev, todayCost decimal.Decimal
		monthRev, monthCost decimal.Decimal
		top                 []repository.TopProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		todayRev, todayCost, _, err = uc.repo.SalesTotals(gctx, companyID, todayStart, todayEnd)
		return wrap("ventas de hoy", err)
	})
	g.Go(func() error {
		var err error
		monthRev, monthCost, out.MonthInvoices, err = uc.repo.SalesTotals(gctx, companyID, monthStart, todayEnd)
		return wrap("ventas del mes", err)
	})
	g.Go(func() error {
		var err error
		top, err = uc.repo.TopProducts(gctx, companyID, monthStart, todayEnd, dashboardTopSKUs)
		return wrap("top SKUs", err)
	})
	g.Go(func() error {
		var err error
		out.ReceivablesOpen, out.ReceivablesOverdue, err = uc.repo.ReceivableTotals(gctx, companyID, now)
		return wrap("cartera", err)
	})
	g.Go(func() error {
		var err error
		out.ParkingTodayRevenue, out.ParkingTodayExits, err = uc.repo.ParkingRevenue(gctx, companyID, todayStart, todayEnd)
		return wrap("recaudo parqueadero", err)
	})
	g.Go(func() error {
		var err error
		out.ParkingActive, err = uc.sessionRepo.CountActive(gctx, companyID, "")
		return wrap("sesiones activas", err)
	})
	g.Go(func() error {
		var err error
		out.LowStockProducts, err = uc.repo.LowStockCount(gctx, companyID, uc.lowStock)
		return wrap("stock bajo", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TodaySales = todayRev.Round(2)
	out.TodayMargin = todayRev.Sub(todayCost).Round(2)
	out.MonthlySales = monthRev.Round(2)
	out.MonthlyMargin = monthRev.Sub(monthCost).Round(2)
	for _, p := range top {
		margin := decimal.Zero
		if p.Revenue.IsPositive() {
			margin = p.Margin.Div(p.Revenue).Mul(decimal.NewFromInt(100)).Round(2)
		}
		out.TopSKUs = append(out.TopSKUs, dto.TopSKUDTO{
			ProductID:        p.ProductID,
			SKU:              p.SKU,
			ProductName:      p.Name,
			QuantitySold:     p.Quantity,
			TotalRevenue:     p.Revenue.Round(2),
			MarginPercentage: margin,
		})
	}
	return out, nil
}

func wrap(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("dashboard: %s: %w", step, err)
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
