package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// ParkingTariffRepository tarifas por tipo de vehículo.
type ParkingTariffRepository interface {
	Upsert(ctx context.Context, t *entity.ParkingTariff) error
	GetByID(ctx context.Context, id string) (*entity.ParkingTariff, error)
	GetActive(ctx context.Context, companyID, vehicleType string) (*entity.ParkingTariff, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.ParkingTariff, error)
}

// SessionFilter filtros del listado de sesiones.
type SessionFilter struct {
	Status      string
	Plate       string
	WarehouseID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// ParkingSessionRepository sesiones de parqueo.
type ParkingSessionRepository interface {
	Create(ctx context.Context, s *entity.ParkingSession) error
	GetByID(ctx context.Context, id string) (*entity.ParkingSession, error)
	GetForUpdate(ctx context.Context, id string) (*entity.ParkingSession, error)
	GetActiveByPlate(ctx context.Context, companyID, plate string) (*entity.ParkingSession, error)
	Update(ctx context.Context, s *entity.ParkingSession) error
	List(ctx context.Context, companyID string, f SessionFilter) ([]*entity.ParkingSession, int, error)
	// CountActive sesiones activas de la sede; warehouseID vacío cuenta toda la empresa.
	CountActive(ctx context.Context, companyID, warehouseID string) (int, error)
	// NextTicket siguiente consecutivo de tiquete de la empresa.
	NextTicket(ctx context.Context, companyID string) (int64, error)
}

// ParkingSubscriptionRepository abonados.
type ParkingSubscriptionRepository interface {
	Create(ctx context.Context, s *entity.ParkingSubscription) error
	GetByID(ctx context.Context, id string) (*entity.ParkingSubscription, error)
	Update(ctx context.Context, s *entity.ParkingSubscription) error
	// FindCovering abono activo que cubre la placa en el instante at.
	FindCovering(ctx context.Context, companyID, plate string, at time.Time) (*entity.ParkingSubscription, error)
	// FindOverlapping abonos activos de la placa cuya vigencia cruza [from, to), por fecha de inicio.
	FindOverlapping(ctx context.Context, companyID, plate string, from, to time.Time) ([]*entity.ParkingSubscription, error)
	ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.ParkingSubscription, error)
}
