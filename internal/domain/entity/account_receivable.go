package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReceivableStatusOpen      = "open"
	ReceivableStatusPartial   = "partial"
	ReceivableStatusPaid      = "paid"
	ReceivableStatusCancelled = "cancelled"
)

// AccountReceivable espejo de cartera de una factura emitida (una fila por factura).
type AccountReceivable struct {
	ID            string
	CompanyID     string
	InvoiceID     string
	CustomerID    string
	DocumentNo    string
	IssueDate     time.Time
	DueDate       time.Time
	OriginalTotal decimal.Decimal
	PaidTotal     decimal.Decimal
	CreditedTotal decimal.Decimal
	Balance       decimal.Decimal
	Status        string
	UpdatedAt     time.Time
}
