package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ── Tarifas ───────────────────────────────────────────────────────────────────

// UpsertTariffRequest body para PUT /api/parking/tariffs. Una tarifa activa por tipo de vehículo.
type UpsertTariffRequest struct {
	VehicleType      string           `json:"vehicle_type" validate:"required,oneof=car motorcycle bicycle truck"`
	Name             string           `json:"name" validate:"required,max=100"`
	Unit             string           `json:"unit" validate:"required"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	GraceMinutes     int              `json:"grace_minutes" validate:"min=0,max=1440"`
	ToleranceMinutes int              `json:"tolerance_minutes" validate:"min=0"`
	MinimumCharge    decimal.Decimal  `json:"minimum_charge"`
	DailyCap         decimal.Decimal  `json:"daily_cap"`
	RoundingStep     *decimal.Decimal `json:"rounding_step,omitempty"`
}

type TariffResponse struct {
	ID               string          `json:"id"`
	VehicleType      string          `json:"vehicle_type"`
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	GraceMinutes     int             `json:"grace_minutes"`
	ToleranceMinutes int             `json:"tolerance_minutes"`
	MinimumCharge    decimal.Decimal `json:"minimum_charge"`
	DailyCap         decimal.Decimal `json:"daily_cap"`
	RoundingStep     decimal.Decimal `json:"rounding_step"`
	Active           bool            `json:"active"`
}

// ── Sesiones ──────────────────────────────────────────────────────────────────

// RegisterEntryRequest body para POST /api/parking/sessions.
type RegisterEntryRequest struct {
	WarehouseID string     `json:"warehouse_id" validate:"required"`
	Plate       string     `json:"plate" validate:"required,min=3,max=12"`
	VehicleType string     `json:"vehicle_type" validate:"required,oneof=car motorcycle bicycle truck"`
	EntryAt     *time.Time `json:"entry_at,omitempty"`
	Spot        string     `json:"spot,omitempty" validate:"max=20"`
	KeyTag      string     `json:"key_tag,omitempty" validate:"max=20"`
	Notes       string     `json:"notes,omitempty" validate:"max=300"`
}

// CloseSessionRequest body para POST /api/parking/sessions/:id/close. ExitAt vacío = ahora.
type CloseSessionRequest struct {
	PaymentMethod string     `json:"payment_method" validate:"required"`
	ExitAt        *time.Time `json:"exit_at,omitempty"`
}

type CancelSessionRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=300"`
}

// SessionFilterRequest query de GET /api/parking/sessions.
type SessionFilterRequest struct {
	Status      string     `query:"status" validate:"omitempty,oneof=active closed cancelled"`
	Plate       string     `query:"plate"`
	WarehouseID string     `query:"warehouse_id"`
	From        *time.Time `query:"-"`
	To          *time.Time `query:"-"`
	Limit       int        `query:"limit"`
	Offset      int        `query:"offset"`
}

type SessionResponse struct {
	ID             string          `json:"id"`
	WarehouseID    string          `json:"warehouse_id"`
	TicketNumber   string          `json:"ticket_number"`
	Plate          string          `json:"plate"`
	VehicleType    string          `json:"vehicle_type"`
	TariffID       string          `json:"tariff_id"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	EntryAt        time.Time       `json:"entry_at"`
	ExitAt         *time.Time      `json:"exit_at,omitempty"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Breakdown      json.RawMessage `json:"breakdown,omitempty"`
	Spot           string          `json:"spot,omitempty"`
	KeyTag         string          `json:"key_tag,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
}

type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ── Abonados ──────────────────────────────────────────────────────────────────

// CreateSubscriptionRequest body para POST /api/parking/subscriptions. Price vacío = tarifa x periodos.
type CreateSubscriptionRequest struct {
	Plate          string           `json:"plate" validate:"required,min=3,max=12"`
	VehicleType    string           `json:"vehicle_type" validate:"required,oneof=car motorcycle bicycle truck"`
	HolderName     string           `json:"holder_name" validate:"required,max=200"`
	HolderDocument string           `json:"holder_document" validate:"max=20"`
	HolderPhone    string           `json:"holder_phone" validate:"max=30"`
	PlanUnit       string           `json:"plan_unit" validate:"required,oneof=week month year"`
	Periods        int              `json:"periods" validate:"required,min=1,max=60"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
}

type RenewSubscriptionRequest struct {
	Periods int              `json:"periods" validate:"required,min=1,max=60"`
	Price   *decimal.Decimal `json:"price,omitempty"`
}

type SubscriptionResponse struct {
	ID             string          `json:"id"`
	Plate          string          `json:"plate"`
	VehicleType    string          `json:"vehicle_type"`
	HolderName     string          `json:"holder_name"`
	HolderDocument string          `json:"holder_document,omitempty"`
	HolderPhone    string          `json:"holder_phone,omitempty"`
	PlanUnit       string          `json:"plan_unit"`
	Periods        int             `json:"periods"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Price          decimal.Decimal `json:"price"`
	Status         string          `json:"status"`
}

// VehicleTypeResponse tipo de vehículo con nombre para mostrar.
type VehicleTypeResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// QuoteResponse liquidación de una sesión activa (no modifica la sesión).
type QuoteResponse struct {
	SessionID       string              `json:"session_id"`
	Plate           string              `json:"plate"`
	VehicleType     string              `json:"vehicle_type"`
	EntryAt         time.Time           `json:"entry_at"`
	ExitAt          time.Time           `json:"exit_at"`
	DurationMinutes int64               `json:"duration_minutes"`
	BillableUnits   int64               `json:"billable_units"`
	Unit            string              `json:"unit"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	Gross           decimal.Decimal     `json:"gross"`
	GraceApplied    bool                `json:"grace_applied"`
	CapApplied      bool                `json:"cap_applied"`
	MinimumApplied  bool                `json:"minimum_applied"`
	Covered         bool                `json:"covered"`
	CoveredMinutes  int64               `json:"covered_minutes"`
	SubscriptionID  string              `json:"subscription_id,omitempty"`
	Total           decimal.Decimal     `json:"total"`
	Breakdown       []QuoteLineResponse `json:"breakdown"`
}

type QuoteLineResponse struct {
	Label   string          `json:"label"`
	Minutes int64           `json:"minutes"`
	Units   int64           `json:"units"`
	Amount  decimal.Decimal `json:"amount"`
	Capped  bool            `json:"capped"`
}

// ParkingReport sesiones de un rango de fechas con recaudo por tipo de vehículo.
type ParkingReport struct {
	From      string                     `json:"from"`
	To        string                     `json:"to"`
	Sessions  []SessionResponse          `json:"sessions"`
	Closed    int                        `json:"closed"`
	Cancelled int                        `json:"cancelled"`
	Active    int                        `json:"active"`
	ByVehicle map[string]decimal.Decimal `json:"by_vehicle"`
	Total     decimal.Decimal            `json:"total"`
}
