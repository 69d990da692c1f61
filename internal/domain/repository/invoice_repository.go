package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// InvoiceFilter filtros del listado de facturas.
type InvoiceFilter struct {
	Status     string
	DIANStatus string
	CustomerID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// InvoiceRepository puerto de persistencia para facturas y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateDetail(ctx context.Context, detail *entity.InvoiceDetail) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la cabecera mientras se aplican pagos o notas.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	GetDetailsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceDetail, error)
	List(ctx context.Context, companyID string, f InvoiceFilter) ([]*entity.Invoice, int, error)
	ListByCustomer(ctx context.Context, companyID, customerID string) ([]*entity.Invoice, error)

	// UpdateLedger persiste estado de cobro y acumulados (status, paid_total, credited_total).
	UpdateLedger(ctx context.Context, invoice *entity.Invoice) error
	// UpdateElectronic persiste los campos del envío electrónico (cufe, xml, qr, estado DIAN...).
	UpdateElectronic(ctx context.Context, invoice *entity.Invoice) error
	// GetDIANStatus solo los campos de estado electrónico (polling).
	GetDIANStatus(ctx context.Context, id string) (*entity.Invoice, error)
}
