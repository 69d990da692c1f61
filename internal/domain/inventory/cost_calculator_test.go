package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWeightedAverageCost(t *testing.T) {
	cases := []struct {
		name                       string
		stock, cost, inQty, inCost string
		want                       string
	}{
		{"primera entrada", "0", "0", "10", "1500", "1500"},
		{"mezcla de costos", "10", "1000", "10", "2000", "1500"},
		{"redondeo a 4 decimales", "3", "10", "1", "11", "10.25"},
		{"tercios", "2", "1", "1", "2", "1.3333"},
		{"stock negativo toma costo de entrada", "-5", "900", "10", "1200", "1200"},
		{"entrada sin cantidad conserva costo", "10", "700", "0", "9999", "700"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedAverageCost(dec(tc.stock), dec(tc.cost), dec(tc.inQty), dec(tc.inCost))
			assert.True(t, got.Equal(dec(tc.want)), "got %s", got)
		})
	}
}

func TestMovementTotal(t *testing.T) {
	assert.True(t, MovementTotal(dec("-3"), dec("1000.555")).Equal(dec("3001.67")))
}
