package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditNote nota crédito asociada a una factura emitida.
type CreditNote struct {
	ID          string
	CompanyID   string
	InvoiceID   string
	Prefix      string
	Number      string
	Date        time.Time
	ConceptCode string // tabla 13.2.3 DIAN
	Reason      string
	Restock     bool
	WarehouseID string

	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal

	DIAN_Status string
	CUDE        string
	XMLSigned   string
	TrackID     string
	DIANErrors  string

	Lines     []CreditNoteLine
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullNumber prefijo + consecutivo.
func (n *CreditNote) FullNumber() string {
	return n.Prefix + n.Number
}

// CreditNoteLine línea de la nota. ProductID vacío = ajuste por valor.
type CreditNoteLine struct {
	ID           string
	CreditNoteID string
	ProductID    string
	Description  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	TaxAmount    decimal.Decimal
	Subtotal     decimal.Decimal
}
