package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var knownModules = map[string]bool{
	entity.ModuleInventory: true,
	entity.ModuleBilling:   true,
	entity.ModuleParking:   true,
	entity.ModuleAnalytics: true,
}

// ModuleService verifica qué módulos SaaS tiene activos una empresa.
// Es el único punto de la aplicación que conoce la lógica de activación de módulos.
type ModuleService struct {
	companyRepo repository.CompanyRepository
}

// NewModuleService construye el servicio de módulos.
func NewModuleService(companyRepo repository.CompanyRepository) *ModuleService {
	return &ModuleService{companyRepo: companyRepo}
}

// HasActiveModule informa si la empresa tiene el módulo activo y sin vencer.
// Devuelve false (sin error) si la empresa no tiene el módulo contratado.
// Devuelve error solo ante fallos de infraestructura (DB caída, timeout, etc.).
func (s *ModuleService) HasActiveModule(ctx context.Context, companyID, moduleName string) (bool, error) {
	if companyID == "" || moduleName == "" {
		return false, fmt.Errorf("module: companyID y moduleName son obligatorios")
	}
	return s.companyRepo.HasActiveModule(ctx, companyID, moduleName)
}

// ListModules módulos contratados por la empresa.
func (s *ModuleService) ListModules(ctx context.Context, companyID string) ([]dto.ModuleResponse, error) {
	list, err := s.companyRepo.ListModules(ctx, companyID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]dto.ModuleResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toModuleResponse(m, now))
	}
	return out, nil
}

// SetModule activa, desactiva o cambia el vencimiento de un módulo.
func (s *ModuleService) SetModule(ctx context.Context, companyID, moduleName string, in dto.SetModuleRequest) (*dto.ModuleResponse, error) {
	if !knownModules[moduleName] {
		return nil, fmt.Errorf("%w: módulo %q", domain.ErrInvalidInput, moduleName)
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	now := time.Now()
	m := &entity.CompanyModule{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ModuleName:  moduleName,
		IsActive:    in.IsActive,
		ActivatedAt: now,
		ExpiresAt:   in.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	existing, err := s.companyRepo.ListModules(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.ModuleName == moduleName {
			m.ID, m.CreatedAt = e.ID, e.CreatedAt
			if e.IsActive {
				m.ActivatedAt = e.ActivatedAt
			}
		}
	}
	if err := s.companyRepo.UpsertModule(ctx, m); err != nil {
		return nil, err
	}
	resp := toModuleResponse(m, now)
	return &resp, nil
}

func toModuleResponse(m *entity.CompanyModule, now time.Time) dto.ModuleResponse {
	return dto.ModuleResponse{
		Module:    m.ModuleName,
		IsActive:  m.IsActive,
		Enabled:   m.Enabled(now),
		ExpiresAt: m.ExpiresAt,
	}
}
