package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// CreditNoteRepository puerto de persistencia para notas crédito y sus líneas.
type CreditNoteRepository interface {
	Create(ctx context.Context, n *entity.CreditNote) error
	GetByID(ctx context.Context, id string) (*entity.CreditNote, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.CreditNote, error)
	UpdateElectronic(ctx context.Context, n *entity.CreditNote) error
	// CreditedQuantities cantidad ya acreditada por producto en la factura.
	CreditedQuantities(ctx context.Context, invoiceID string) (map[string]decimal.Decimal, error)
}
