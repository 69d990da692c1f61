package repository

import (
	"context"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// CompanyRepository puerto de persistencia para Company y sus módulos SaaS.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByNIT(ctx context.Context, nit string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)

	// HasActiveModule false sin error cuando el módulo no está contratado o venció.
	HasActiveModule(ctx context.Context, companyID, moduleName string) (bool, error)
	ListModules(ctx context.Context, companyID string) ([]*entity.CompanyModule, error)
	UpsertModule(ctx context.Context, module *entity.CompanyModule) error
}
