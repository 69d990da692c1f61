package repository

import (
	"context"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// BillingResolutionRepository puerto de persistencia para resoluciones de numeración.
type BillingResolutionRepository interface {
	Create(ctx context.Context, res *entity.BillingResolution) error
	GetByID(ctx context.Context, id string) (*entity.BillingResolution, error)
	// GetActive resolución activa de la empresa para el tipo de documento. prefix vacío = cualquiera.
	GetActive(ctx context.Context, companyID, kind, prefix string) (*entity.BillingResolution, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.BillingResolution, error)
	Update(ctx context.Context, res *entity.BillingResolution) error
	// NextNumber reserva el siguiente consecutivo de forma atómica y lo devuelve.
	NextNumber(ctx context.Context, resolutionID string) (int64, error)
}
