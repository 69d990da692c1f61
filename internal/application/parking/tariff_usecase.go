package parking

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

var vehicleNames = map[string]string{
	entity.VehicleCar:        "Automóvil",
	entity.VehicleMotorcycle: "Motocicleta",
	entity.VehicleBicycle:    "Bicicleta",
	entity.VehicleTruck:      "Camión",
}

// TariffUseCase administra las tarifas; hay una sola activa por tipo de vehículo.
type TariffUseCase struct {
	tariffRepo      repository.ParkingTariffRepository
	audit           ports.AuditRecorder
	defaultRounding decimal.Decimal
	now             func() time.Time
}

// NewTariffUseCase defaultRounding se usa cuando la tarifa no trae paso de redondeo.
func NewTariffUseCase(tariffRepo repository.ParkingTariffRepository, auditRec ports.AuditRecorder, defaultRounding decimal.Decimal) *TariffUseCase {
	return &TariffUseCase{tariffRepo: tariffRepo, audit: auditRec, defaultRounding: defaultRounding, now: time.Now}
}

// VehicleTypes catálogo de tipos de vehículo.
func (uc *TariffUseCase) VehicleTypes() []dto.VehicleTypeResponse {
	out := make([]dto.VehicleTypeResponse, 0, len(vehicleNames))
	for code, name := range vehicleNames {
		out = append(out, dto.VehicleTypeResponse{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// UpsertTariff crea una nueva versión de la tarifa del tipo de vehículo; la anterior queda inactiva
// y las sesiones abiertas con ella se siguen liquidando con sus valores.
func (uc *TariffUseCase) UpsertTariff(ctx context.Context, companyID, userID string, in dto.UpsertTariffRequest) (*dto.TariffResponse, error) {
	if !entity.ValidVehicleTypes[in.VehicleType] {
		return nil, fmt.Errorf("%w: tipo de vehículo %q", domain.ErrInvalidInput, in.VehicleType)
	}
	unit, err := domainparking.ParseUnit(in.Unit)
	if err != nil {
		return nil, tariffError(err)
	}
	rounding := uc.defaultRounding
	if in.RoundingStep != nil {
		rounding = *in.RoundingStep
	}
	t := domainparking.Tariff{
		Unit:             unit,
		UnitPrice:        in.UnitPrice,
		GraceMinutes:     in.GraceMinutes,
		ToleranceMinutes: in.ToleranceMinutes,
		MinimumCharge:    in.MinimumCharge,
		DailyCap:         in.DailyCap,
		RoundingStep:     rounding,
	}
	if err := t.Validate(); err != nil {
		return nil, tariffError(err)
	}

	current, err := uc.tariffRepo.GetActive(ctx, companyID, in.VehicleType)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	pt := &entity.ParkingTariff{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		VehicleType: in.VehicleType,
		CreatedAt:   now,
	}
	var before *dto.TariffResponse
	if current != nil {
		b := toTariffResponse(current)
		before = &b
	}
	pt.Name = strings.TrimSpace(in.Name)
	pt.Unit = string(t.Unit)
	pt.UnitPrice = t.UnitPrice
	pt.GraceMinutes = t.GraceMinutes
	pt.ToleranceMinutes = t.ToleranceMinutes
	pt.MinimumCharge = t.MinimumCharge
	pt.DailyCap = t.DailyCap
	pt.RoundingStep = t.RoundingStep
	pt.Active = true
	pt.UpdatedAt = now
	if err := uc.tariffRepo.Upsert(ctx, pt); err != nil {
		return nil, err
	}

	action := entity.AuditCreate
	if current != nil {
		action = entity.AuditUpdate
	}
	resp := toTariffResponse(pt)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, action, "parking_tariff", pt.ID,
		fmt.Sprintf("tarifa %s: %s por %s", pt.VehicleType, pt.UnitPrice.StringFixed(0), pt.Unit), before, resp))
	return &resp, nil
}

// ListTariffs tarifas de la empresa, activas e inactivas.
func (uc *TariffUseCase) ListTariffs(ctx context.Context, companyID string) ([]dto.TariffResponse, error) {
	list, err := uc.tariffRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TariffResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTariffResponse(t))
	}
	return out, nil
}

// DeactivateTariff deja el tipo de vehículo sin tarifa; no se admiten nuevas entradas de ese tipo.
func (uc *TariffUseCase) DeactivateTariff(ctx context.Context, companyID, userID, id string) error {
	t, err := uc.tariffRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: tarifa %s", domain.ErrNotFound, id)
	}
	if t.CompanyID != companyID {
		return domain.ErrForbidden
	}
	if !t.Active {
		return nil
	}
	t.Active = false
	t.UpdatedAt = uc.now()
	if err := uc.tariffRepo.Upsert(ctx, t); err != nil {
		return err
	}
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditDelete, "parking_tariff", t.ID,
		"tarifa desactivada: "+t.VehicleType, nil, nil))
	return nil
}

// tariffError traduce los errores del motor de tarifas a entrada inválida.
func tariffError(err error) error {
	if errors.Is(err, domainparking.ErrInvalidTariff) || errors.Is(err, domainparking.ErrInvalidInterval) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return err
}

// tariffOf convierte la tarifa persistida al modelo del motor.
func tariffOf(pt *entity.ParkingTariff) (domainparking.Tariff, error) {
	unit, err := domainparking.ParseUnit(pt.Unit)
	if err != nil {
		return domainparking.Tariff{}, err
	}
	return domainparking.Tariff{
		Unit:             unit,
		UnitPrice:        pt.UnitPrice,
		GraceMinutes:     pt.GraceMinutes,
		ToleranceMinutes: pt.ToleranceMinutes,
		MinimumCharge:    pt.MinimumCharge,
		DailyCap:         pt.DailyCap,
		RoundingStep:     pt.RoundingStep,
	}, nil
}
