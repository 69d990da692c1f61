package parking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// SubscriptionUseCase abonados: planes prepagados por semana, mes o año.
type SubscriptionUseCase struct {
	subRepo    repository.ParkingSubscriptionRepository
	tariffRepo repository.ParkingTariffRepository
	audit      ports.AuditRecorder
	now        func() time.Time
}

func NewSubscriptionUseCase(subRepo repository.ParkingSubscriptionRepository, tariffRepo repository.ParkingTariffRepository, auditRec ports.AuditRecorder) *SubscriptionUseCase {
	return &SubscriptionUseCase{subRepo: subRepo, tariffRepo: tariffRepo, audit: auditRec, now: time.Now}
}

func planUnit(s string) (domainparking.Unit, error) {
	u, err := domainparking.ParseUnit(s)
	if err != nil {
		return "", tariffError(err)
	}
	switch u {
	case domainparking.UnitWeek, domainparking.UnitMonth, domainparking.UnitYear:
		return u, nil
	}
	return "", fmt.Errorf("%w: los planes son por semana, mes o año", domain.ErrInvalidInput)
}

// planPrice precio explícito o, si no viene, la tarifa activa del vehículo en la misma unidad por periodos.
func (uc *SubscriptionUseCase) planPrice(ctx context.Context, companyID, vehicleType string, unit domainparking.Unit, periods int, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		if explicit.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: precio negativo", domain.ErrInvalidInput)
		}
		return *explicit, nil
	}
	t, err := uc.tariffRepo.GetActive(ctx, companyID, vehicleType)
	if err != nil {
		return decimal.Zero, err
	}
	if t == nil || t.Unit != string(unit) {
		return decimal.Zero, fmt.Errorf("%w: no hay tarifa por %s para %s; indique el precio", domain.ErrInvalidInput, unit, vehicleType)
	}
	return t.UnitPrice.Mul(decimal.NewFromInt(int64(periods))), nil
}

// CreateSubscription registra un abonado; no puede solaparse con otro abono vigente de la placa.
func (uc *SubscriptionUseCase) CreateSubscription(ctx context.Context, companyID, userID string, in dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	plate := domainparking.NormalizePlate(in.Plate)
	if len(plate) < 3 {
		return nil, fmt.Errorf("%w: placa %q", domain.ErrInvalidInput, in.Plate)
	}
	if !entity.ValidVehicleTypes[in.VehicleType] {
		return nil, fmt.Errorf("%w: tipo de vehículo %q", domain.ErrInvalidInput, in.VehicleType)
	}
	if strings.TrimSpace(in.HolderName) == "" {
		return nil, fmt.Errorf("%w: titular requerido", domain.ErrInvalidInput)
	}
	if in.Periods < 1 {
		return nil, fmt.Errorf("%w: al menos un periodo", domain.ErrInvalidInput)
	}
	unit, err := planUnit(in.PlanUnit)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	end := domainparking.PlanEnd(start, unit, in.Periods)
	if err := uc.checkOverlap(ctx, companyID, plate, "", start, end); err != nil {
		return nil, err
	}
	price, err := uc.planPrice(ctx, companyID, in.VehicleType, unit, in.Periods, in.Price)
	if err != nil {
		return nil, err
	}

	sub := &entity.ParkingSubscription{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		Plate:          plate,
		VehicleType:    in.VehicleType,
		HolderName:     strings.TrimSpace(in.HolderName),
		HolderDocument: strings.TrimSpace(in.HolderDocument),
		HolderPhone:    strings.TrimSpace(in.HolderPhone),
		PlanUnit:       string(unit),
		Periods:        in.Periods,
		StartDate:      start,
		EndDate:        end,
		Price:          price,
		Status:         entity.SubscriptionStatusActive,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(sub, now)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "parking_subscription", sub.ID,
		fmt.Sprintf("abono %s hasta %s", sub.Plate, sub.EndDate.Format("2006-01-02")), nil, resp))
	return &resp, nil
}

// RenewSubscription extiende el abono desde su fin o desde hoy si ya venció.
func (uc *SubscriptionUseCase) RenewSubscription(ctx context.Context, companyID, userID, id string, in dto.RenewSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if in.Periods < 1 {
		return nil, fmt.Errorf("%w: al menos un periodo", domain.ErrInvalidInput)
	}
	sub, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == entity.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("%w: el abono está cancelado", domain.ErrInvalidTransition)
	}
	unit, err := planUnit(sub.PlanUnit)
	if err != nil {
		return nil, err
	}
	price, err := uc.planPrice(ctx, companyID, sub.VehicleType, unit, in.Periods, in.Price)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	before := toSubscriptionResponse(sub, now)

	from := sub.EndDate
	lapsed := now.After(from)
	if lapsed {
		from = now
	}
	end := domainparking.PlanEnd(from, unit, in.Periods)
	if err := uc.checkOverlap(ctx, companyID, sub.Plate, sub.ID, from, end); err != nil {
		return nil, err
	}
	if lapsed {
		sub.StartDate = now
	}
	sub.EndDate = end
	sub.Periods += in.Periods
	sub.Price = sub.Price.Add(price)
	sub.Status = entity.SubscriptionStatusActive
	sub.UpdatedAt = now
	if err := uc.subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(sub, now)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditUpdate, "parking_subscription", sub.ID,
		fmt.Sprintf("renovación %s hasta %s", sub.Plate, sub.EndDate.Format("2006-01-02")), before, resp))
	return &resp, nil
}

// CancelSubscription cancela el abono; las sesiones siguientes se cobran por tarifa.
func (uc *SubscriptionUseCase) CancelSubscription(ctx context.Context, companyID, userID, id string) (*dto.SubscriptionResponse, error) {
	sub, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == entity.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("%w: el abono ya está cancelado", domain.ErrInvalidTransition)
	}
	now := uc.now()
	sub.Status = entity.SubscriptionStatusCancelled
	sub.UpdatedAt = now
	if err := uc.subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	resp := toSubscriptionResponse(sub, now)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCancel, "parking_subscription", sub.ID,
		"abono cancelado "+sub.Plate, nil, resp))
	return &resp, nil
}

// ListSubscriptions abonados por estado. expired son los activos con vigencia vencida.
func (uc *SubscriptionUseCase) ListSubscriptions(ctx context.Context, companyID, status string, limit, offset int) ([]dto.SubscriptionResponse, error) {
	repoStatus := status
	if status == entity.SubscriptionStatusExpired {
		repoStatus = entity.SubscriptionStatusActive
	}
	now := uc.now()
	out := []dto.SubscriptionResponse{}
	limit, offset = dto.NormalizeLimit(limit), max(offset, 0)
	// expired no se guarda: se filtra por estado efectivo al leer
	for page := 0; ; page += 100 {
		list, err := uc.subRepo.ListByCompany(ctx, companyID, repoStatus, 100, page)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			if status != "" && s.EffectiveStatus(now) != status {
				continue
			}
			if offset > 0 {
				offset--
				continue
			}
			out = append(out, toSubscriptionResponse(s, now))
			if len(out) == limit {
				return out, nil
			}
		}
		if len(list) < 100 {
			return out, nil
		}
	}
}

// FindActiveForPlate abono vigente de la placa.
func (uc *SubscriptionUseCase) FindActiveForPlate(ctx context.Context, companyID, plate string) (*dto.SubscriptionResponse, error) {
	now := uc.now()
	sub, err := uc.subRepo.FindCovering(ctx, companyID, domainparking.NormalizePlate(plate), now)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: la placa %s no tiene abono vigente", domain.ErrNotFound, plate)
	}
	resp := toSubscriptionResponse(sub, now)
	return &resp, nil
}

// checkOverlap rechaza vigencias que crucen [start, end) con otro abono activo de la placa.
func (uc *SubscriptionUseCase) checkOverlap(ctx context.Context, companyID, plate, selfID string, start, end time.Time) error {
	list, err := uc.subRepo.FindOverlapping(ctx, companyID, plate, start, end)
	if err != nil {
		return err
	}
	for _, other := range list {
		if other.ID == selfID {
			continue
		}
		return fmt.Errorf("%w: la placa %s ya tiene abono del %s al %s", domain.ErrDuplicate, plate,
			other.StartDate.Format("2006-01-02"), other.EndDate.Format("2006-01-02"))
	}
	return nil
}

func (uc *SubscriptionUseCase) owned(ctx context.Context, companyID, id string) (*entity.ParkingSubscription, error) {
	sub, err := uc.subRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: abono %s", domain.ErrNotFound, id)
	}
	if sub.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return sub, nil
}
