package entity

import "time"

// Company tenant del sistema.
type Company struct {
	ID        string
	Name      string
	NIT       string
	Address   string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Módulos SaaS (CHECK de la tabla company_modules).
const (
	ModuleInventory = "inventory"
	ModuleBilling   = "billing"
	ModuleParking   = "parking"
	ModuleAnalytics = "analytics"
)

// CompanyModule activación de un módulo en una empresa.
type CompanyModule struct {
	ID          string
	CompanyID   string
	ModuleName  string
	IsActive    bool
	ActivatedAt time.Time
	ExpiresAt   *time.Time // nil = sin vencimiento
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Enabled indica si el módulo está activo y vigente en la fecha dada.
func (m *CompanyModule) Enabled(at time.Time) bool {
	if m == nil || !m.IsActive {
		return false
	}
	return m.ExpiresAt == nil || at.Before(*m.ExpiresAt)
}
