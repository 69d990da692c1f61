package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// ResolutionUseCase resoluciones de numeración DIAN de facturas y notas crédito.
type ResolutionUseCase struct {
	repo  repository.BillingResolutionRepository
	audit ports.AuditRecorder
}

func NewResolutionUseCase(repo repository.BillingResolutionRepository, auditRec ports.AuditRecorder) *ResolutionUseCase {
	return &ResolutionUseCase{repo: repo, audit: auditRec}
}

// CreateResolution registra una resolución activa. Solo puede haber una activa por tipo y prefijo.
func (uc *ResolutionUseCase) CreateResolution(ctx context.Context, companyID, userID string, in dto.CreateResolutionRequest) (*dto.ResolutionResponse, error) {
	if in.Kind != entity.ResolutionKindInvoice && in.Kind != entity.ResolutionKindCreditNote {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, in.Kind)
	}
	if in.RangeFrom < 1 || in.RangeTo < in.RangeFrom {
		return nil, fmt.Errorf("%w: rango %d-%d", domain.ErrInvalidInput, in.RangeFrom, in.RangeTo)
	}
	if !in.DateTo.After(in.DateFrom) {
		return nil, fmt.Errorf("%w: la vigencia termina antes de empezar", domain.ErrInvalidInput)
	}
	prefix := strings.ToUpper(strings.TrimSpace(in.Prefix))

	existing, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for _, r := range existing {
		if r.IsActive && r.Kind == in.Kind && r.Prefix == prefix {
			return nil, fmt.Errorf("%w: ya hay una resolución activa para %s %q", domain.ErrDuplicate, in.Kind, prefix)
		}
	}

	now := time.Now()
	res := &entity.BillingResolution{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		Kind:             in.Kind,
		ResolutionNumber: strings.TrimSpace(in.ResolutionNumber),
		Prefix:           prefix,
		RangeFrom:        in.RangeFrom,
		RangeTo:          in.RangeTo,
		NextNumber:       in.RangeFrom,
		DateFrom:         in.DateFrom,
		DateTo:           in.DateTo,
		TechnicalKey:     strings.TrimSpace(in.TechnicalKey),
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	resp := toResolutionResponse(res)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "billing_resolution", res.ID,
		fmt.Sprintf("resolución %s %s %d-%d", res.ResolutionNumber, res.Prefix, res.RangeFrom, res.RangeTo), nil, resp))
	return &resp, nil
}

// ListResolutions resoluciones de la empresa, activas e inactivas.
func (uc *ResolutionUseCase) ListResolutions(ctx context.Context, companyID string) ([]dto.ResolutionResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ResolutionResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toResolutionResponse(r))
	}
	return out, nil
}

// DeactivateResolution retira la resolución; los documentos ya numerados no cambian.
func (uc *ResolutionUseCase) DeactivateResolution(ctx context.Context, companyID, userID, id string) (*dto.ResolutionResponse, error) {
	res, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: resolución %s", domain.ErrNotFound, id)
	}
	if res.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if res.IsActive {
		res.IsActive = false
		res.UpdatedAt = time.Now()
		if err := uc.repo.Update(ctx, res); err != nil {
			return nil, err
		}
		uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditDelete, "billing_resolution", res.ID,
			"resolución desactivada "+res.ResolutionNumber, nil, nil))
	}
	resp := toResolutionResponse(res)
	return &resp, nil
}

func toResolutionResponse(r *entity.BillingResolution) dto.ResolutionResponse {
	return dto.ResolutionResponse{
		ID:               r.ID,
		Kind:             r.Kind,
		ResolutionNumber: r.ResolutionNumber,
		Prefix:           r.Prefix,
		RangeFrom:        r.RangeFrom,
		RangeTo:          r.RangeTo,
		NextNumber:       r.NextNumber,
		Remaining:        max(r.RangeTo-r.NextNumber+1, 0),
		DateFrom:         r.DateFrom.Format("2006-01-02"),
		DateTo:           r.DateTo.Format("2006-01-02"),
		IsActive:         r.IsActive,
	}
}
