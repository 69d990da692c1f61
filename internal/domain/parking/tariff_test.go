package parking

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func hourly() Tariff {
	return Tariff{Unit: UnitHour, UnitPrice: d(3000), GraceMinutes: 10, ToleranceMinutes: 5}
}

// ── Duración y gracia ─────────────────────────────────────────────────────────

func TestDurationMinutes_RedondeaFraccionHaciaArriba(t *testing.T) {
	assert.Equal(t, int64(0), DurationMinutes(t0, t0))
	assert.Equal(t, int64(1), DurationMinutes(t0, t0.Add(time.Second)))
	assert.Equal(t, int64(60), DurationMinutes(t0, t0.Add(time.Hour)))
	assert.Equal(t, int64(61), DurationMinutes(t0, t0.Add(time.Hour+30*time.Second)))
	assert.Equal(t, int64(0), DurationMinutes(t0, t0.Add(-time.Hour)))
}

func TestCalculate_DentroDeGraciaNoCobra(t *testing.T) {
	q, err := Calculate(hourly(), t0, t0.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, q.GraceApplied)
	assert.True(t, q.Total.IsZero())
	assert.Empty(t, q.Breakdown)
}

func TestCalculate_SaleDeGraciaCobraUnidadCompleta(t *testing.T) {
	q, err := Calculate(hourly(), t0, t0.Add(11*time.Minute))
	require.NoError(t, err)
	assert.False(t, q.GraceApplied)
	assert.Equal(t, int64(1), q.BillableUnits)
	assert.True(t, q.Total.Equal(d(3000)))
}

func TestCalculate_DuracionCero(t *testing.T) {
	q, err := Calculate(Tariff{Unit: UnitHour, UnitPrice: d(3000)}, t0, t0)
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
}

// ── Tolerancia y unidades ─────────────────────────────────────────────────────

func TestCalculate_Tolerancia(t *testing.T) {
	cases := []struct {
		name    string
		minutes int
		units   int64
	}{
		{"una hora exacta", 60, 1},
		{"dentro de tolerancia", 65, 1},
		{"supera tolerancia", 66, 2},
		{"dos horas y media", 150, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Calculate(hourly(), t0, t0.Add(time.Duration(tc.minutes)*time.Minute))
			require.NoError(t, err)
			assert.Equal(t, tc.units, q.BillableUnits)
			assert.True(t, q.Total.Equal(d(3000*tc.units)), q.Total.String())
		})
	}
}

func TestCalculate_TodasLasUnidades(t *testing.T) {
	cases := []struct {
		unit  Unit
		stay  time.Duration
		units int64
	}{
		{UnitMinute, 95 * time.Minute, 95},
		{UnitHour, 3*time.Hour + time.Minute, 4},
		{UnitDay, 25 * time.Hour, 2},
		{UnitWeek, 8 * 24 * time.Hour, 2},
		{UnitMonth, 29 * 24 * time.Hour, 1},
		{UnitMonth, 31 * 24 * time.Hour, 2},
		{UnitYear, 400 * 24 * time.Hour, 2},
	}
	for _, tc := range cases {
		t.Run(string(tc.unit), func(t *testing.T) {
			q, err := Calculate(Tariff{Unit: tc.unit, UnitPrice: d(100)}, t0, t0.Add(tc.stay))
			require.NoError(t, err)
			assert.Equal(t, tc.units, q.BillableUnits)
			assert.True(t, q.Total.Equal(d(100*tc.units)))
		})
	}
}

// ── Tope diario ───────────────────────────────────────────────────────────────

func TestCalculate_TopeDiario(t *testing.T) {
	tariff := Tariff{Unit: UnitHour, UnitPrice: d(3000), DailyCap: d(25000)}

	// 2 días y 3 horas: 2 x 25.000 + 3 x 3.000
	q, err := Calculate(tariff, t0, t0.Add(51*time.Hour))
	require.NoError(t, err)
	assert.True(t, q.CapApplied)
	require.Len(t, q.Breakdown, 2)
	assert.True(t, q.Breakdown[0].Amount.Equal(d(50000)))
	assert.True(t, q.Breakdown[1].Amount.Equal(d(9000)))
	assert.True(t, q.Total.Equal(d(59000)))
}

func TestCalculate_TopeDiarioEnFraccion(t *testing.T) {
	tariff := Tariff{Unit: UnitHour, UnitPrice: d(3000), DailyCap: d(25000)}

	q, err := Calculate(tariff, t0, t0.Add(10*time.Hour))
	require.NoError(t, err)
	assert.True(t, q.CapApplied)
	assert.True(t, q.Total.Equal(d(25000)))
}

func TestCalculate_TopeIgnoradoEnUnidadDiaria(t *testing.T) {
	tariff := Tariff{Unit: UnitDay, UnitPrice: d(30000), DailyCap: d(1000)}

	q, err := Calculate(tariff, t0, t0.Add(30*time.Hour))
	require.NoError(t, err)
	assert.False(t, q.CapApplied)
	assert.True(t, q.Total.Equal(d(60000)))
}

func TestCalculate_TopeConToleranciaTrasDiaCompleto(t *testing.T) {
	tariff := Tariff{Unit: UnitHour, UnitPrice: d(3000), ToleranceMinutes: 15, DailyCap: d(25000)}

	q, err := Calculate(tariff, t0, t0.Add(24*time.Hour+10*time.Minute))
	require.NoError(t, err)
	require.Len(t, q.Breakdown, 1)
	assert.True(t, q.Total.Equal(d(25000)))
}

// ── Mínimo y redondeo ─────────────────────────────────────────────────────────

func TestCalculate_CobroMinimo(t *testing.T) {
	tariff := Tariff{Unit: UnitMinute, UnitPrice: d(50), MinimumCharge: d(2000)}

	q, err := Calculate(tariff, t0, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.True(t, q.MinimumApplied)
	assert.True(t, q.Gross.Equal(d(250)))
	assert.True(t, q.Total.Equal(d(2000)))
}

func TestCalculate_RedondeoHaciaArriba(t *testing.T) {
	tariff := Tariff{Unit: UnitMinute, UnitPrice: decimal.RequireFromString("83.33"), RoundingStep: d(100)}

	q, err := Calculate(tariff, t0, t0.Add(7*time.Minute))
	require.NoError(t, err)
	assert.True(t, q.Gross.Equal(decimal.RequireFromString("583.31")))
	assert.True(t, q.Total.Equal(d(600)))
}

// ── Abonos ────────────────────────────────────────────────────────────────────

func TestCalculateUncovered(t *testing.T) {
	exit := t0.Add(5 * time.Hour)
	cases := []struct {
		name     string
		covered  []Interval
		total    int64
		isCover  bool
		coverMin int64
	}{
		{"sin abonos", nil, 15000, false, 0},
		{"abono fuera de la estadía", []Interval{{t0.Add(-48 * time.Hour), t0.Add(-24 * time.Hour)}}, 15000, false, 0},
		{"cubre toda la estadía", []Interval{{t0.Add(-time.Hour), exit.Add(time.Hour)}}, 0, true, 300},
		{"abono empieza a mitad", []Interval{{t0.Add(3 * time.Hour), exit.Add(time.Hour)}}, 9000, false, 120},
		{"abono vence a mitad", []Interval{{t0.Add(-time.Hour), t0.Add(2 * time.Hour)}}, 9000, false, 120},
		{"tramos solapados se unen", []Interval{
			{t0.Add(time.Hour), t0.Add(3 * time.Hour)},
			{t0.Add(2 * time.Hour), t0.Add(4 * time.Hour)},
		}, 6000, false, 180},
		{"tramos separados se suman", []Interval{
			{t0, t0.Add(time.Hour)},
			{t0.Add(3 * time.Hour), t0.Add(4 * time.Hour)},
		}, 9000, false, 120},
		{"lo descubierto cae en gracia", []Interval{{t0.Add(-time.Hour), exit.Add(-8 * time.Minute)}}, 0, false, 292},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := CalculateUncovered(hourly(), t0, exit, tc.covered)
			require.NoError(t, err)
			assert.True(t, q.Total.Equal(d(tc.total)), q.Total.String())
			assert.Equal(t, tc.isCover, q.Covered)
			assert.Equal(t, tc.coverMin, q.CoveredMinutes)
			assert.Equal(t, int64(300), q.DurationMinutes)
			assert.Equal(t, exit, q.Exit)
		})
	}
}

func TestCalculateUncovered_IntervaloInvalido(t *testing.T) {
	_, err := CalculateUncovered(hourly(), t0, t0.Add(-time.Minute), nil)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

// ── Errores ───────────────────────────────────────────────────────────────────

func TestCalculate_SalidaAntesDeEntrada(t *testing.T) {
	_, err := Calculate(hourly(), t0, t0.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestCalculate_TarifaInvalida(t *testing.T) {
	cases := map[string]Tariff{
		"unidad desconocida": {Unit: "fortnight", UnitPrice: d(1)},
		"precio negativo":    {Unit: UnitHour, UnitPrice: d(-1)},
		"gracia negativa":    {Unit: UnitHour, UnitPrice: d(1), GraceMinutes: -1},
		"tolerancia enorme":  {Unit: UnitHour, UnitPrice: d(1), ToleranceMinutes: 60},
	}
	for name, tariff := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Calculate(tariff, t0, t0.Add(time.Hour))
			assert.ErrorIs(t, err, ErrInvalidTariff)
		})
	}
}

// ── Propiedades ───────────────────────────────────────────────────────────────

// El total nunca es negativo ni disminuye cuando la salida se retrasa.
func TestCalculate_MonotonoYNoNegativo(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	units := []Unit{UnitMinute, UnitHour, UnitDay, UnitWeek, UnitMonth, UnitYear}

	for i := 0; i < 200; i++ {
		u := units[rng.Intn(len(units))]
		tariff := Tariff{
			Unit:          u,
			UnitPrice:     d(int64(rng.Intn(5000) + 1)),
			GraceMinutes:  rng.Intn(30),
			MinimumCharge: d(int64(rng.Intn(3000))),
			RoundingStep:  d(int64([]int{0, 50, 100}[rng.Intn(3)])),
		}
		if u != UnitMinute {
			tariff.ToleranceMinutes = rng.Intn(int(min(u.Minutes(), 30)))
		}
		if u.Minutes() < minutesPerDay && rng.Intn(2) == 0 {
			tariff.DailyCap = d(int64(rng.Intn(50000) + 1000))
		}

		prev := decimal.Zero
		exit := t0
		for step := 0; step < 60; step++ {
			exit = exit.Add(time.Duration(rng.Intn(600)+1) * time.Minute)
			q, err := Calculate(tariff, t0, exit)
			require.NoError(t, err)
			require.False(t, q.Total.IsNegative())
			require.Truef(t, q.Total.GreaterThanOrEqual(prev),
				"tarifa %+v: %s < %s en %d min", tariff, q.Total, prev, q.DurationMinutes)
			prev = q.Total
		}
	}
}

// Con tope, ningún tramo de un día supera el tope.
func TestCalculate_TopeNuncaSuperadoPorDia(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		tariff := Tariff{Unit: UnitHour, UnitPrice: d(int64(rng.Intn(10000) + 1)), DailyCap: d(int64(rng.Intn(40000) + 1))}
		stay := time.Duration(rng.Intn(10*minutesPerDay)+1) * time.Minute
		q, err := Calculate(tariff, t0, t0.Add(stay))
		require.NoError(t, err)

		days := q.DurationMinutes/minutesPerDay + 1
		assert.True(t, q.Total.LessThanOrEqual(tariff.DailyCap.Mul(d(days))))
	}
}

// ── Abonos y utilidades ───────────────────────────────────────────────────────

func TestCovered(t *testing.T) {
	q, err := Calculate(hourly(), t0, t0.Add(3*time.Hour))
	require.NoError(t, err)

	c := Covered(q)
	assert.True(t, c.Covered)
	assert.True(t, c.Total.IsZero())
	assert.True(t, c.Gross.Equal(q.Gross))
}

func TestPlanEnd(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), PlanEnd(start, UnitMonth, 1))
	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), PlanEnd(start, UnitWeek, 2))
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), PlanEnd(start, UnitYear, 1))
	assert.Equal(t, start.Add(3*time.Hour), PlanEnd(start, UnitHour, 3))
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" Mes ")
	require.NoError(t, err)
	assert.Equal(t, UnitMonth, u)

	_, err = ParseUnit("quincena")
	assert.ErrorIs(t, err, ErrInvalidTariff)
}

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizePlate(" abc-123 "))
	assert.Equal(t, "XYZ12D", NormalizePlate("xyz.12 d"))
}
