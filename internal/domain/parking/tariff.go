// Package parking calcula el cobro de una estadía a partir de la tarifa vigente.
// No depende de persistencia: recibe la tarifa y los instantes de entrada y salida.
package parking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInterval = errors.New("parking: la salida es anterior a la entrada")
	ErrInvalidTariff   = errors.New("parking: tarifa inválida")
)

// Unit unidad de cobro de una tarifa.
type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

const minutesPerDay = 1440

// Minutes duración fija de la unidad. Mes = 30 días, año = 365 días.
func (u Unit) Minutes() int64 {
	switch u {
	case UnitMinute:
		return 1
	case UnitHour:
		return 60
	case UnitDay:
		return minutesPerDay
	case UnitWeek:
		return 7 * minutesPerDay
	case UnitMonth:
		return 30 * minutesPerDay
	case UnitYear:
		return 365 * minutesPerDay
	}
	return 0
}

// Valid indica si la unidad es conocida.
func (u Unit) Valid() bool { return u.Minutes() > 0 }

// ParseUnit acepta el nombre en inglés o en español (hora, dia, mes...).
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minute", "minuto", "min":
		return UnitMinute, nil
	case "hour", "hora", "h":
		return UnitHour, nil
	case "day", "dia", "día", "d":
		return UnitDay, nil
	case "week", "semana":
		return UnitWeek, nil
	case "month", "mes":
		return UnitMonth, nil
	case "year", "año", "anio":
		return UnitYear, nil
	}
	return "", fmt.Errorf("%w: unidad %q desconocida", ErrInvalidTariff, s)
}

// Tariff parámetros de cobro.
//   - GraceMinutes: estadías de esa duración o menos no pagan.
//   - ToleranceMinutes: minutos sobre la última unidad completa que no se cobran.
//   - DailyCap: tope por cada día de 24 h; solo aplica con unidades menores a un día. Cero = sin tope.
//   - RoundingStep: el total se redondea hacia arriba a este múltiplo. Cero = sin redondeo.
type Tariff struct {
	Unit             Unit
	UnitPrice        decimal.Decimal
	GraceMinutes     int
	ToleranceMinutes int
	MinimumCharge    decimal.Decimal
	DailyCap         decimal.Decimal
	RoundingStep     decimal.Decimal
}

// Validate revisa la coherencia de la tarifa.
func (t Tariff) Validate() error {
	if !t.Unit.Valid() {
		return fmt.Errorf("%w: unidad %q desconocida", ErrInvalidTariff, t.Unit)
	}
	if t.UnitPrice.IsNegative() || t.MinimumCharge.IsNegative() || t.DailyCap.IsNegative() || t.RoundingStep.IsNegative() {
		return fmt.Errorf("%w: valores negativos", ErrInvalidTariff)
	}
	if t.GraceMinutes < 0 || t.ToleranceMinutes < 0 {
		return fmt.Errorf("%w: gracia y tolerancia deben ser >= 0", ErrInvalidTariff)
	}
	if int64(t.ToleranceMinutes) >= t.Unit.Minutes() && t.Unit != UnitMinute {
		return fmt.Errorf("%w: la tolerancia debe ser menor que la unidad", ErrInvalidTariff)
	}
	return nil
}

// QuoteLine tramo del cobro (días completos con tope, fracción final o total simple).
type QuoteLine struct {
	Label   string          `json:"label"`
	Minutes int64           `json:"minutes"`
	Units   int64           `json:"units"`
	Amount  decimal.Decimal `json:"amount"`
	Capped  bool            `json:"capped"`
}

// Quote resultado del cálculo.
type Quote struct {
	Entry           time.Time       `json:"entry"`
	Exit            time.Time       `json:"exit"`
	DurationMinutes int64           `json:"duration_minutes"`
	BillableUnits   int64           `json:"billable_units"`
	Unit            Unit            `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Gross           decimal.Decimal `json:"gross"`
	GraceApplied    bool            `json:"grace_applied"`
	CapApplied      bool            `json:"cap_applied"`
	MinimumApplied  bool            `json:"minimum_applied"`
	Covered         bool            `json:"covered"`
	CoveredMinutes  int64           `json:"covered_minutes,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Breakdown       []QuoteLine     `json:"breakdown"`
}

// DurationMinutes minutos transcurridos redondeando cualquier fracción hacia arriba.
func DurationMinutes(entry, exit time.Time) int64 {
	d := exit.Sub(entry)
	if d <= 0 {
		return 0
	}
	m := int64(d / time.Minute)
	if d%time.Minute > 0 {
		m++
	}
	return m
}

// Calculate cobra la estadía [entry, exit] con la tarifa t.
func Calculate(t Tariff, entry, exit time.Time) (Quote, error) {
	if err := t.Validate(); err != nil {
		return Quote{}, err
	}
	if exit.Before(entry) {
		return Quote{}, ErrInvalidInterval
	}

	q := Quote{
		Entry:           entry,
		Exit:            exit,
		DurationMinutes: DurationMinutes(entry, exit),
		Unit:            t.Unit,
		UnitPrice:       t.UnitPrice,
		Gross:           decimal.Zero,
		Total:           decimal.Zero,
		Breakdown:       []QuoteLine{},
	}
	if q.DurationMinutes == 0 {
		return q, nil
	}
	if q.DurationMinutes <= int64(t.GraceMinutes) {
		q.GraceApplied = true
		return q, nil
	}

	if t.DailyCap.IsPositive() && t.Unit.Minutes() < minutesPerDay {
		q.Breakdown = cappedLines(t, q.DurationMinutes)
	} else {
		units := unitsFor(t, q.DurationMinutes, true)
		q.Breakdown = []QuoteLine{{
			Label:   "estadía",
			Minutes: q.DurationMinutes,
			Units:   units,
			Amount:  t.UnitPrice.Mul(decimal.NewFromInt(units)),
		}}
	}

	for _, l := range q.Breakdown {
		q.BillableUnits += l.Units
		q.Gross = q.Gross.Add(l.Amount)
		if l.Capped {
			q.CapApplied = true
		}
	}

	total := q.Gross
	if total.IsPositive() && total.LessThan(t.MinimumCharge) {
		total = t.MinimumCharge
		q.MinimumApplied = true
	}
	q.Total = roundUp(total, t.RoundingStep)
	return q, nil
}

// unitsFor unidades cobrables en m minutos. atLeastOne fuerza una unidad
// cuando la tolerancia absorbe todo el tiempo.
func unitsFor(t Tariff, m int64, atLeastOne bool) int64 {
	size := t.Unit.Minutes()
	units := m / size
	if rem := m % size; rem > int64(t.ToleranceMinutes) {
		units++
	}
	if units == 0 && atLeastOne && m > 0 {
		units = 1
	}
	return units
}

// cappedLines separa días completos y fracción, aplicando el tope diario a cada tramo.
func cappedLines(t Tariff, m int64) []QuoteLine {
	fullDays := m / minutesPerDay
	rem := m % minutesPerDay
	var lines []QuoteLine

	if fullDays > 0 {
		perDayUnits := unitsFor(t, minutesPerDay, false)
		perDay := t.UnitPrice.Mul(decimal.NewFromInt(perDayUnits))
		capped := perDay.GreaterThan(t.DailyCap)
		if capped {
			perDay = t.DailyCap
		}
		lines = append(lines, QuoteLine{
			Label:   fmt.Sprintf("%d día(s) completo(s)", fullDays),
			Minutes: fullDays * minutesPerDay,
			Units:   perDayUnits * fullDays,
			Amount:  perDay.Mul(decimal.NewFromInt(fullDays)),
			Capped:  capped,
		})
	}

	if rem > 0 {
		units := unitsFor(t, rem, fullDays == 0)
		if units > 0 {
			amount := t.UnitPrice.Mul(decimal.NewFromInt(units))
			capped := amount.GreaterThan(t.DailyCap)
			if capped {
				amount = t.DailyCap
			}
			lines = append(lines, QuoteLine{
				Label:   "fracción",
				Minutes: rem,
				Units:   units,
				Amount:  amount,
				Capped:  capped,
			})
		}
	}
	return lines
}

func roundUp(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() || v.IsZero() {
		return v
	}
	return v.Div(step).Ceil().Mul(step)
}

// Covered convierte la cotización en una estadía cubierta por abono (total cero).
func Covered(q Quote) Quote {
	q.Covered = true
	q.Total = decimal.Zero
	return q
}

// Interval tramo [Start, End) de vigencia de un abono.
type Interval struct {
	Start time.Time
	End   time.Time
}

// CalculateUncovered cobra de [entry, exit] solo los minutos fuera de los tramos cubiertos.
// Los minutos descubiertos se liquidan como una estadía continua (gracia, tope y mínimo incluidos).
// Si no queda nada descubierto la cotización sale Covered con total cero.
func CalculateUncovered(t Tariff, entry, exit time.Time, covered []Interval) (Quote, error) {
	full, err := Calculate(t, entry, exit)
	if err != nil {
		return Quote{}, err
	}
	cov := coveredDuration(entry, exit, covered)
	if cov <= 0 {
		return full, nil
	}
	stay := exit.Sub(entry)
	if cov >= stay {
		full = Covered(full)
		full.CoveredMinutes = full.DurationMinutes
		return full, nil
	}

	q, err := Calculate(t, entry, entry.Add(stay-cov))
	if err != nil {
		return Quote{}, err
	}
	q.Exit = exit
	q.DurationMinutes = full.DurationMinutes
	q.CoveredMinutes = int64(cov / time.Minute)
	q.Breakdown = append(q.Breakdown, QuoteLine{
		Label:   "cubierto por abono",
		Minutes: q.CoveredMinutes,
		Amount:  decimal.Zero,
	})
	return q, nil
}

// coveredDuration tiempo de [entry, exit] dentro de la unión de los tramos.
func coveredDuration(entry, exit time.Time, covered []Interval) time.Duration {
	clipped := make([]Interval, 0, len(covered))
	for _, iv := range covered {
		if iv.Start.Before(entry) {
			iv.Start = entry
		}
		if iv.End.After(exit) {
			iv.End = exit
		}
		if iv.End.After(iv.Start) {
			clipped = append(clipped, iv)
		}
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start.Before(clipped[j].Start) })

	var total time.Duration
	var cur Interval
	for i, iv := range clipped {
		switch {
		case i == 0:
			cur = iv
		case !iv.Start.After(cur.End):
			if iv.End.After(cur.End) {
				cur.End = iv.End
			}
		default:
			total += cur.End.Sub(cur.Start)
			cur = iv
		}
	}
	if len(clipped) > 0 {
		total += cur.End.Sub(cur.Start)
	}
	return total
}

// PlanEnd fin de vigencia de un abono: calendario para día, semana, mes y año.
func PlanEnd(start time.Time, unit Unit, periods int) time.Time {
	switch unit {
	case UnitDay:
		return start.AddDate(0, 0, periods)
	case UnitWeek:
		return start.AddDate(0, 0, 7*periods)
	case UnitMonth:
		return start.AddDate(0, periods, 0)
	case UnitYear:
		return start.AddDate(periods, 0, 0)
	}
	return start.Add(time.Duration(unit.Minutes()*int64(periods)) * time.Minute)
}

// NormalizePlate pasa a mayúsculas y quita espacios, guiones y puntos ("abc-123" -> "ABC123").
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		switch r {
		case ' ', '-', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
