package repository

import (
	"context"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// ReceivableFilter filtros de cartera. Overdue limita a saldos vencidos.
type ReceivableFilter struct {
	Status     string
	CustomerID string
	Overdue    bool
	Limit      int
	Offset     int
}

// ReceivableRepository puerto de persistencia del espejo de cuentas por cobrar.
type ReceivableRepository interface {
	// Upsert crea o actualiza la fila de la factura (única por invoice_id).
	Upsert(ctx context.Context, ar *entity.AccountReceivable) error
	GetByInvoice(ctx context.Context, invoiceID string) (*entity.AccountReceivable, error)
	List(ctx context.Context, companyID string, f ReceivableFilter) ([]*entity.AccountReceivable, error)
}
