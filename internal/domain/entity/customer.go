package entity

import "time"

// Customer adquiriente de las facturas.
type Customer struct {
	ID                 string
	CompanyID          string
	Name               string
	IdentificationType string // tabla 3 DIAN: 31 NIT, 13 CC...
	TaxID              string
	Email              string
	Phone              string
	Address            string
	CreditDays         int // plazo por defecto en facturas a crédito
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
