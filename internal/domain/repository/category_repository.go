package repository

import (
	"context"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// CategoryRepository puerto de persistencia para categorías.
type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Category, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Category, error)
}
