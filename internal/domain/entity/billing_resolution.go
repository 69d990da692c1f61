package entity

import "time"

// Tipos de documento que numera una resolución.
const (
	ResolutionKindInvoice    = "invoice"
	ResolutionKindCreditNote = "credit_note"
)

// BillingResolution resolución de numeración autorizada por la DIAN.
// Solo una activa por empresa, tipo y prefijo.
type BillingResolution struct {
	ID               string
	CompanyID        string
	Kind             string
	ResolutionNumber string
	Prefix           string
	RangeFrom        int64
	RangeTo          int64
	NextNumber       int64
	DateFrom         time.Time
	DateTo           time.Time
	TechnicalKey     string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Covers indica si el número y la fecha caen dentro de la resolución.
func (r *BillingResolution) Covers(number int64, at time.Time) bool {
	if number < r.RangeFrom || number > r.RangeTo {
		return false
	}
	return !at.Before(r.DateFrom) && !at.After(r.DateTo)
}
