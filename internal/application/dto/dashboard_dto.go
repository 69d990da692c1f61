package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	TodaySales    decimal.Decimal `json:"today_sales"`
	TodayMargin   decimal.Decimal `json:"today_margin"`
	MonthlySales  decimal.Decimal `json:"monthly_sales"`
	MonthlyMargin decimal.Decimal `json:"monthly_margin"`
	MonthInvoices int             `json:"month_invoices"`

	ReceivablesOpen    decimal.Decimal `json:"receivables_open"`
	ReceivablesOverdue decimal.Decimal `json:"receivables_overdue"`

	ParkingActive       int             `json:"parking_active"`
	ParkingTodayRevenue decimal.Decimal `json:"parking_today_revenue"`
	ParkingTodayExits   int             `json:"parking_today_exits"`

	LowStockProducts int         `json:"low_stock_products"`
	TopSKUs          []TopSKUDTO `json:"top_skus"`
	DateLabel        string      `json:"date_label"` // ej: "Febrero 2026"
}

// TopSKUDTO SKU del widget del tablero.
type TopSKUDTO struct {
	ProductID        string          `json:"product_id"`
	SKU              string          `json:"sku"`
	ProductName      string          `json:"product_name"`
	QuantitySold     decimal.Decimal `json:"quantity_sold"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
}
