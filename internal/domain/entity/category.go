package entity

import "time"

// Category categoría de productos; ParentID vacío en las raíces.
type Category struct {
	ID        string
	CompanyID string
	ParentID  string
	Name      string
	Code      string
	Status    string // active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
