package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.DashboardRepository = (*DashboardRepo)(nil)

// DashboardRepo consultas de solo lectura para el tablero.
type DashboardRepo struct {
	q Querier
}

// NewDashboardRepository construye el adaptador de analítica.
func NewDashboardRepository(q Querier) *DashboardRepo {
	return &DashboardRepo{q: q}
}

// Ventas = facturas emitidas; borradores y anuladas no cuentan.
const soldInvoices = `i.status IN ('issued', 'partial', 'paid')`

// SalesTotals ingresos netos y costo de ventas con el costo promedio guardado en cada línea.
// Usa COALESCE para devolver cero si no hay filas (período sin ventas).
func (r *DashboardRepo) SalesTotals(ctx context.Context, companyID string, from, to time.Time) (revenue, cost decimal.Decimal, count int, err error) {
	query := `
	SELECT
	    COALESCE(SUM(d.subtotal),              0) AS revenue,
	    COALESCE(SUM(d.quantity * d.unit_cost), 0) AS cost,
	    COUNT(DISTINCT i.id)                      AS invoices
	FROM invoices i
	JOIN invoice_details d ON d.invoice_id = i.id
	WHERE i.company_id = $1
	  AND i.date BETWEEN $2 AND $3
	  AND ` + soldInvoices

	err = r.q.QueryRow(ctx, query, companyID, from, to).Scan(&revenue, &cost, &count)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, fmt.Errorf("dashboard.SalesTotals: %w", err)
	}
	return revenue, cost, count, nil
}

// TopProducts los `limit` productos con mayor ingreso; Margin es el valor absoluto (ingreso - costo).
func (r *DashboardRepo) TopProducts(ctx context.Context, companyID string, from, to time.Time, limit int) ([]repository.TopProduct, error) {
	query := `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    SUM(d.quantity)                             AS quantity_sold,
	    SUM(d.subtotal)                             AS total_revenue,
	    SUM(d.subtotal - d.quantity * d.unit_cost)  AS margin
	FROM invoice_details d
	JOIN invoices i ON i.id = d.invoice_id
	JOIN products p ON p.id = d.product_id
	WHERE i.company_id = $1
	  AND i.date BETWEEN $2 AND $3
	  AND ` + soldInvoices + `
	GROUP BY p.id, p.sku, p.name
	ORDER BY total_revenue DESC
	LIMIT $4`

	rows, err := r.q.Query(ctx, query, companyID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard.TopProducts: %w", err)
	}
	defer rows.Close()

	results := []repository.TopProduct{}
	for rows.Next() {
		var item repository.TopProduct
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.Quantity, &item.Revenue, &item.Margin); err != nil {
			return nil, fmt.Errorf("dashboard.TopProducts scan: %w", err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard.TopProducts rows: %w", err)
	}
	return results, nil
}

// ReceivableTotals saldo abierto y la parte con vencimiento anterior a asOf.
func (r *DashboardRepo) ReceivableTotals(ctx context.Context, companyID string, asOf time.Time) (open, overdue decimal.Decimal, err error) {
	const query = `
	SELECT
	    COALESCE(SUM(balance), 0),
	    COALESCE(SUM(balance) FILTER (WHERE due_date < $2), 0)
	FROM accounts_receivable
	WHERE company_id = $1
	  AND status IN ('open', 'partial')`
	if err = r.q.QueryRow(ctx, query, companyID, asOf).Scan(&open, &overdue); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("dashboard.ReceivableTotals: %w", err)
	}
	return open, overdue, nil
}

// ParkingRevenue recaudo y número de sesiones cerradas con salida en el periodo.
func (r *DashboardRepo) ParkingRevenue(ctx context.Context, companyID string, from, to time.Time) (decimal.Decimal, int, error) {
	const query = `
	SELECT COALESCE(SUM(amount), 0), COUNT(*)
	FROM parking_sessions
	WHERE company_id = $1
	  AND status = 'closed'
	  AND exit_at BETWEEN $2 AND $3`
	var total decimal.Decimal
	var n int
	if err := r.q.QueryRow(ctx, query, companyID, from, to).Scan(&total, &n); err != nil {
		return decimal.Zero, 0, fmt.Errorf("dashboard.ParkingRevenue: %w", err)
	}
	return total, n, nil
}

// LowStockCount productos activos cuya existencia total no supera el umbral.
func (r *DashboardRepo) LowStockCount(ctx context.Context, companyID string, threshold decimal.Decimal) (int, error) {
	const query = `
	SELECT COUNT(*) FROM (
	    SELECT p.id
	    FROM products p
	    LEFT JOIN stock s ON s.product_id = p.id
	    WHERE p.company_id = $1 AND p.active
	    GROUP BY p.id
	    HAVING COALESCE(SUM(s.quantity), 0) <= $2
	) low`
	var n int
	if err := r.q.QueryRow(ctx, query, companyID, threshold).Scan(&n); err != nil {
		return 0, fmt.Errorf("dashboard.LowStockCount: %w", err)
	}
	return n, nil
}
