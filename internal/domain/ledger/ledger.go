// Package ledger concentra las reglas de cartera de una factura de venta:
// máquina de estados, saldo (total - pagos - notas crédito) y espejo en cuentas por cobrar.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// Status estado de cobro de la factura.
type Status string

const (
	StatusDraft     Status = entity.InvoiceStatusDraft
	StatusIssued    Status = entity.InvoiceStatusIssued
	StatusPartial   Status = entity.InvoiceStatusPartial
	StatusPaid      Status = entity.InvoiceStatusPaid
	StatusCancelled Status = entity.InvoiceStatusCancelled
)

// transitions transiciones permitidas. paid -> partial ocurre al anular un pago.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusIssued, StatusCancelled},
	StatusIssued:    {StatusPartial, StatusPaid, StatusCancelled},
	StatusPartial:   {StatusIssued, StatusPartial, StatusPaid, StatusCancelled},
	StatusPaid:      {StatusPartial, StatusIssued},
	StatusCancelled: {},
}

// CanTransition indica si from -> to es válida. Quedarse en el mismo estado siempre lo es.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition devuelve to o ErrInvalidTransition.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Balance acumulados de una factura.
type Balance struct {
	Total    decimal.Decimal
	Paid     decimal.Decimal
	Credited decimal.Decimal
}

// BalanceOf lee los acumulados de la factura.
func BalanceOf(inv *entity.Invoice) Balance {
	return Balance{Total: inv.GrandTotal, Paid: inv.PaidTotal, Credited: inv.CreditedTotal}
}

// Outstanding saldo pendiente.
func (b Balance) Outstanding() decimal.Decimal {
	return b.Total.Sub(b.Paid).Sub(b.Credited)
}

// Check verifica 0 <= pagado + acreditado <= total.
func (b Balance) Check() error {
	if b.Paid.IsNegative() || b.Credited.IsNegative() || b.Total.IsNegative() {
		return fmt.Errorf("%w: acumulados negativos", domain.ErrConflict)
	}
	if b.Outstanding().IsNegative() {
		return fmt.Errorf("%w: pagos y notas superan el total", domain.ErrConflict)
	}
	return nil
}

// ApplyPayment suma un abono. No admite sobrepago.
func ApplyPayment(b Balance, amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, fmt.Errorf("%w: el pago debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if amount.GreaterThan(b.Outstanding()) {
		return b, fmt.Errorf("%w: saldo %s, pago %s", domain.ErrOverpayment, b.Outstanding().StringFixed(2), amount.StringFixed(2))
	}
	b.Paid = b.Paid.Add(amount)
	return b, nil
}

// ApplyCredit suma una nota crédito. No puede superar el saldo.
func ApplyCredit(b Balance, amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, fmt.Errorf("%w: la nota crédito debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if amount.GreaterThan(b.Outstanding()) {
		return b, fmt.Errorf("%w: saldo %s, nota %s", domain.ErrCreditExceedsBalance, b.Outstanding().StringFixed(2), amount.StringFixed(2))
	}
	b.Credited = b.Credited.Add(amount)
	return b, nil
}

// ReversePayment descuenta un abono anulado.
func ReversePayment(b Balance, amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, fmt.Errorf("%w: monto a reversar inválido", domain.ErrInvalidInput)
	}
	if amount.GreaterThan(b.Paid) {
		return b, fmt.Errorf("%w: se reversa más de lo pagado", domain.ErrConflict)
	}
	b.Paid = b.Paid.Sub(amount)
	return b, nil
}

// DeriveStatus estado que corresponde al saldo. draft y cancelled no cambian.
// Saldo cero sin pagos (todo acreditado) equivale a anulación.
func DeriveStatus(current Status, b Balance) Status {
	if current == StatusDraft || current == StatusCancelled {
		return current
	}
	out := b.Outstanding()
	switch {
	case out.IsZero() && b.Paid.IsPositive():
		return StatusPaid
	case out.IsZero():
		return StatusCancelled
	case b.Paid.IsPositive() || b.Credited.IsPositive():
		return StatusPartial
	default:
		return StatusIssued
	}
}

// Apply escribe el balance en la factura y transita al estado derivado.
func Apply(inv *entity.Invoice, b Balance) error {
	if err := b.Check(); err != nil {
		return err
	}
	next, err := Transition(Status(inv.Status), DeriveStatus(Status(inv.Status), b))
	if err != nil {
		return err
	}
	inv.PaidTotal = b.Paid
	inv.CreditedTotal = b.Credited
	inv.Status = string(next)
	return nil
}

// Issue pasa una factura de borrador a emitida.
func Issue(inv *entity.Invoice) error {
	if Status(inv.Status) != StatusDraft {
		return fmt.Errorf("%w: solo se emiten borradores (estado %s)", domain.ErrInvalidTransition, inv.Status)
	}
	inv.Status = string(StatusIssued)
	return nil
}

// ReceivableStatus estado del espejo de cartera para un estado de factura.
func ReceivableStatus(s Status) string {
	switch s {
	case StatusPartial:
		return entity.ReceivableStatusPartial
	case StatusPaid:
		return entity.ReceivableStatusPaid
	case StatusCancelled:
		return entity.ReceivableStatusCancelled
	default:
		return entity.ReceivableStatusOpen
	}
}

// MirrorReceivable copia saldo, estado y vencimiento de la factura a su fila de cartera.
// ar puede ser nil (primera sincronización).
func MirrorReceivable(inv *entity.Invoice, ar *entity.AccountReceivable, now time.Time) *entity.AccountReceivable {
	if ar == nil {
		ar = &entity.AccountReceivable{}
	}
	ar.CompanyID = inv.CompanyID
	ar.InvoiceID = inv.ID
	ar.CustomerID = inv.CustomerID
	ar.DocumentNo = inv.FullNumber()
	ar.IssueDate = inv.Date
	ar.DueDate = inv.DueDate
	if ar.DueDate.IsZero() {
		ar.DueDate = inv.Date
	}
	ar.OriginalTotal = inv.GrandTotal
	ar.PaidTotal = inv.PaidTotal
	ar.CreditedTotal = inv.CreditedTotal
	ar.Balance = inv.Balance()
	ar.Status = ReceivableStatus(Status(inv.Status))
	ar.UpdatedAt = now
	return ar
}

// Rangos de vencimiento de cartera.
const (
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = "90+"
)

// Buckets en orden de antigüedad.
var Buckets = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// AgingBucket clasifica un saldo por días vencidos a la fecha asOf (días calendario).
func AgingBucket(due, asOf time.Time) string {
	days := DaysOverdue(due, asOf)
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// DaysOverdue días calendario entre el vencimiento y asOf; negativo si aún no vence.
func DaysOverdue(due, asOf time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	a := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(d).Hours() / 24)
}
