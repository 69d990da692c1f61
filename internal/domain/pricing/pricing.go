// Package pricing liquida líneas de venta: subtotal, descuento e IVA con redondeo a 2 decimales.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ValidRates tarifas de IVA admitidas, en porcentaje.
var ValidRates = []decimal.Decimal{decimal.Zero, decimal.NewFromInt(5), decimal.NewFromInt(19)}

// ValidRate indica si el porcentaje de IVA es una tarifa vigente.
func ValidRate(percent decimal.Decimal) bool {
	for _, r := range ValidRates {
		if r.Equal(percent) {
			return true
		}
	}
	return false
}

// NormalizeRate acepta 19 o 0.19 y devuelve el porcentaje (19).
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsPositive() && rate.LessThan(one) {
		return rate.Mul(hundred)
	}
	return rate
}

// Fraction porcentaje a fracción (19 -> 0.19).
func Fraction(percent decimal.Decimal) decimal.Decimal {
	if percent.GreaterThan(one) {
		return percent.Div(hundred)
	}
	return percent
}

// Line valores liquidados de una línea.
type Line struct {
	Gross    decimal.Decimal // cantidad x precio
	Discount decimal.Decimal
	Subtotal decimal.Decimal // base gravable
	TaxRate  decimal.Decimal // fracción
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute liquida una línea. ratePercent en porcentaje; el descuento no puede superar el bruto.
func Compute(qty, unitPrice, discount, ratePercent decimal.Decimal) (Line, error) {
	if !qty.IsPositive() {
		return Line{}, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if unitPrice.IsNegative() || discount.IsNegative() {
		return Line{}, fmt.Errorf("%w: precio y descuento no pueden ser negativos", domain.ErrInvalidInput)
	}
	gross := qty.Mul(unitPrice).Round(2)
	if discount.GreaterThan(gross) {
		return Line{}, fmt.Errorf("%w: el descuento supera el valor de la línea", domain.ErrInvalidInput)
	}
	rate := Fraction(ratePercent)
	sub := gross.Sub(discount.Round(2))
	tax := sub.Mul(rate).Round(2)
	return Line{
		Gross:    gross,
		Discount: discount.Round(2),
		Subtotal: sub,
		TaxRate:  rate,
		Tax:      tax,
		Total:    sub.Add(tax),
	}, nil
}

// Totals acumulados de un documento.
type Totals struct {
	Net      decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Grand    decimal.Decimal
}

// Add suma una línea.
func (t Totals) Add(l Line) Totals {
	t.Net = t.Net.Add(l.Subtotal)
	t.Discount = t.Discount.Add(l.Discount)
	t.Tax = t.Tax.Add(l.Tax)
	t.Grand = t.Grand.Add(l.Total)
	return t
}

// SplitGross separa un valor con IVA incluido en base e impuesto (nota crédito por valor).
func SplitGross(total, ratePercent decimal.Decimal) Line {
	rate := Fraction(ratePercent)
	base := total.Div(one.Add(rate)).Round(2)
	tax := total.Sub(base)
	return Line{Gross: base, Subtotal: base, TaxRate: rate, Tax: tax, Total: total}
}
