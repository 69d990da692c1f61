package repository

import (
	"context"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// PaymentRepository puerto de persistencia para abonos.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	Void(ctx context.Context, id, reason string) error
}
