package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusApplied = "applied"
	PaymentStatusVoided  = "voided"
)

// Payment abono registrado contra una factura.
type Payment struct {
	ID         string
	CompanyID  string
	InvoiceID  string
	Amount     decimal.Decimal
	Method     string // tabla 13 DIAN
	Reference  string
	PaidAt     time.Time
	Status     string
	VoidReason string
	CreatedBy  string
	CreatedAt  time.Time
}
