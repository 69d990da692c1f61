package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de vehículo.
const (
	VehicleCar        = "car"
	VehicleMotorcycle = "motorcycle"
	VehicleBicycle    = "bicycle"
	VehicleTruck      = "truck"
)

// ValidVehicleTypes tipos aceptados en tarifas, sesiones y abonados.
var ValidVehicleTypes = map[string]bool{
	VehicleCar: true, VehicleMotorcycle: true, VehicleBicycle: true, VehicleTruck: true,
}

// Estados de sesión de parqueo.
const (
	SessionStatusActive    = "active"
	SessionStatusClosed    = "closed"
	SessionStatusCancelled = "cancelled"
)

// Estados de abonado.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// ParkingTariff tarifa por tipo de vehículo. Unit: minute, hour, day, week, month, year.
type ParkingTariff struct {
	ID               string
	CompanyID        string
	VehicleType      string
	Name             string
	Unit             string
	UnitPrice        decimal.Decimal
	GraceMinutes     int
	ToleranceMinutes int
	MinimumCharge    decimal.Decimal
	DailyCap         decimal.Decimal
	RoundingStep     decimal.Decimal
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ParkingSession estadía de un vehículo. Los campos de valet son opcionales.
type ParkingSession struct {
	ID             string
	CompanyID      string
	WarehouseID    string // sede
	TicketNumber   string
	Plate          string
	VehicleType    string
	TariffID       string
	SubscriptionID string
	EntryAt        time.Time
	ExitAt         *time.Time
	Status         string
	Amount         decimal.Decimal
	PaymentMethod  string
	Breakdown      json.RawMessage

	Spot   string
	KeyTag string
	Notes  string

	CancelReason string
	EntryBy      string
	ExitBy       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParkingSubscription abonado: plan prepagado por periodos para una placa.
type ParkingSubscription struct {
	ID             string
	CompanyID      string
	Plate          string
	VehicleType    string
	HolderName     string
	HolderDocument string
	HolderPhone    string
	PlanUnit       string // week, month, year
	Periods        int
	StartDate      time.Time
	EndDate        time.Time
	Price          decimal.Decimal
	Status         string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CoversAt indica si el abono está vigente en el instante dado.
func (s *ParkingSubscription) CoversAt(at time.Time) bool {
	if s == nil || s.Status != SubscriptionStatusActive {
		return false
	}
	return !at.Before(s.StartDate) && at.Before(s.EndDate)
}

// EffectiveStatus reporta expired cuando la vigencia ya pasó.
func (s *ParkingSubscription) EffectiveStatus(now time.Time) string {
	if s.Status == SubscriptionStatusActive && !now.Before(s.EndDate) {
		return SubscriptionStatusExpired
	}
	return s.Status
}
