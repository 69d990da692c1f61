package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_ConIVAyDescuento(t *testing.T) {
	l, err := Compute(dec("3"), dec("10000"), dec("2000"), dec("19"))
	require.NoError(t, err)
	assert.True(t, l.Gross.Equal(dec("30000")))
	assert.True(t, l.Subtotal.Equal(dec("28000")))
	assert.True(t, l.TaxRate.Equal(dec("0.19")))
	assert.True(t, l.Tax.Equal(dec("5320")))
	assert.True(t, l.Total.Equal(dec("33320")))
}

func TestCompute_Errores(t *testing.T) {
	_, err := Compute(decimal.Zero, dec("1"), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Compute(dec("1"), dec("100"), dec("101"), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Compute(dec("1"), dec("-1"), decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTotals_Suma(t *testing.T) {
	a, _ := Compute(dec("1"), dec("1000"), decimal.Zero, dec("19"))
	b, _ := Compute(dec("2"), dec("500"), dec("100"), dec("5"))
	tot := Totals{}.Add(a).Add(b)
	assert.True(t, tot.Net.Equal(dec("1900")))
	assert.True(t, tot.Discount.Equal(dec("100")))
	assert.True(t, tot.Tax.Equal(dec("235")))
	assert.True(t, tot.Grand.Equal(dec("2135")))
}

func TestRates(t *testing.T) {
	assert.True(t, ValidRate(dec("19")))
	assert.False(t, ValidRate(dec("16")))
	assert.True(t, NormalizeRate(dec("0.19")).Equal(dec("19")))
	assert.True(t, NormalizeRate(dec("5")).Equal(dec("5")))
	assert.True(t, Fraction(dec("19")).Equal(dec("0.19")))
}

func TestSplitGross(t *testing.T) {
	l := SplitGross(dec("119000"), dec("19"))
	assert.True(t, l.Subtotal.Equal(dec("100000")))
	assert.True(t, l.Tax.Equal(dec("19000")))
	assert.True(t, l.Total.Equal(dec("119000")))
}
