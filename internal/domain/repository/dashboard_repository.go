package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TopProduct producto más vendido en un periodo.
type TopProduct struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  decimal.Decimal
	Revenue   decimal.Decimal
	Margin    decimal.Decimal
}

// DashboardRepository consultas de solo lectura para el tablero.
type DashboardRepository interface {
	// SalesTotals ingresos y costo de ventas de facturas emitidas en el periodo.
	SalesTotals(ctx context.Context, companyID string, from, to time.Time) (revenue, cost decimal.Decimal, count int, err error)
	TopProducts(ctx context.Context, companyID string, from, to time.Time, limit int) ([]TopProduct, error)
	// ReceivableTotals saldo abierto total y porción vencida a la fecha.
	ReceivableTotals(ctx context.Context, companyID string, asOf time.Time) (open, overdue decimal.Decimal, err error)
	// ParkingRevenue recaudo de sesiones cerradas en el periodo.
	ParkingRevenue(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, int, error)
	LowStockCount(ctx context.Context, companyID string, threshold decimal.Decimal) (int, error)
}
