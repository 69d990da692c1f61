// Package inventory reglas de costeo de inventario.
package inventory

import "github.com/shopspring/decimal"

// costScale decimales con los que se guarda el costo promedio.
const costScale = 4

// WeightedAverageCost costo promedio ponderado tras una entrada:
// ((stock * costo) + (cantEntrada * costoEntrada)) / (stock + cantEntrada).
// Con stock negativo o nulo el costo de la entrada reemplaza al anterior.
func WeightedAverageCost(stock, cost, inQty, inCost decimal.Decimal) decimal.Decimal {
	if !inQty.IsPositive() {
		return cost
	}
	if !stock.IsPositive() {
		return inCost.Round(costScale)
	}
	num := stock.Mul(cost).Add(inQty.Mul(inCost))
	return num.Div(stock.Add(inQty)).Round(costScale)
}

// MovementTotal costo total de un movimiento (cantidad absoluta por costo unitario).
func MovementTotal(qty, unitCost decimal.Decimal) decimal.Decimal {
	return qty.Abs().Mul(unitCost).Round(2)
}
