package entity

import "github.com/shopspring/decimal"

// InvoiceDetail línea de una factura. Subtotal ya descuenta Discount.
type InvoiceDetail struct {
	ID          string
	InvoiceID   string
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	Subtotal    decimal.Decimal
	UnitCost    decimal.Decimal // costo promedio al momento de la venta
}
