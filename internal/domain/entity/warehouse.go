package entity

import "time"

// Warehouse bodega o sede. Las sedes con parqueadero registran Capacity > 0.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	Capacity  int // cupos de parqueo
	CreatedAt time.Time
	UpdatedAt time.Time
}
