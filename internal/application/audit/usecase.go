// Package audit bitácora de cambios sobre facturas, pagos, productos y parqueadero.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ ports.AuditRecorder = (*UseCase)(nil)

// UseCase registra y consulta la bitácora.
type UseCase struct {
	repo repository.AuditRepository
	log  zerolog.Logger
}

func NewUseCase(repo repository.AuditRepository, log zerolog.Logger) *UseCase {
	return &UseCase{repo: repo, log: log}
}

// Record persiste la entrada. Los errores solo se registran en el log.
func (uc *UseCase) Record(ctx context.Context, e *entity.AuditLog) {
	if e == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if err := uc.repo.Create(ctx, e); err != nil {
		uc.log.Error().Err(err).
			Str("entity_type", e.EntityType).
			Str("entity_id", e.EntityID).
			Str("action", e.Action).
			Msg("no se pudo registrar auditoría")
	}
}

// List consulta la bitácora de la empresa.
func (uc *UseCase) List(ctx context.Context, companyID string, in dto.AuditFilterRequest) (*dto.AuditListResponse, error) {
	f := repository.AuditFilter{
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		UserID:     in.UserID,
		From:       in.From,
		To:         in.To,
		Limit:      dto.NormalizeLimit(in.Limit),
		Offset:     max(in.Offset, 0),
	}
	list, total, err := uc.repo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := &dto.AuditListResponse{
		Items: make([]dto.AuditLogResponse, 0, len(list)),
		Page:  dto.PageResponse{Total: total, Limit: f.Limit, Offset: f.Offset},
	}
	for _, e := range list {
		out.Items = append(out.Items, dto.AuditLogResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Before:     e.Before,
			After:      e.After,
			Summary:    e.Summary,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}

// Entry arma una entrada serializando before/after. Valores nil quedan vacíos.
func Entry(companyID, userID, action, entityType, entityID, summary string, before, after any) *entity.AuditLog {
	return &entity.AuditLog{
		CompanyID:  companyID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     marshal(before),
		After:      marshal(after),
		Summary:    summary,
	}
}

func marshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
