package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de envío electrónico (DIAN directo o Factus).
const (
	DIANStatusDraft           = "DRAFT"            // consecutivo reservado, sin enviar
	DIANStatusPending         = "Pending"          // en proceso
	DIANStatusSigned          = "SIGNED"           // XML firmado
	DIANStatusSent            = "Sent"             // enviado, respuesta pendiente
	DIANStatusExitoso         = "EXITOSO"          // aceptado (o simulado en dev)
	DIANStatusRechazado       = "RECHAZADO"        // rechazado con errores
	DIANStatusError           = "Error"            // error de transporte
	DIANStatusErrorGeneration = "ERROR_GENERATION" // falló firma o generación XML
)

// Estados de cartera de la factura (ciclo de cobro).
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice cabecera de una factura de venta.
// Status sigue el cobro; DIAN_Status sigue la validación electrónica.
type Invoice struct {
	ID            string
	CompanyID     string
	CustomerID    string
	WarehouseID   string
	Prefix        string
	Number        string
	Date          time.Time
	DueDate       time.Time
	PaymentForm   string // 1 contado, 2 crédito
	PaymentMethod string // tabla 13 DIAN
	Notes         string

	NetTotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	PaidTotal     decimal.Decimal
	CreditedTotal decimal.Decimal
	Status        string

	DIAN_Status string
	CUFE        string
	UUID        string
	XMLSigned   string
	QRData      string
	TrackID     string
	DIANErrors  string
	Provider    string // dian, factus, none

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullNumber prefijo + consecutivo sin espacios.
func (i *Invoice) FullNumber() string {
	return i.Prefix + i.Number
}

// Balance saldo pendiente: total menos pagos y notas crédito.
func (i *Invoice) Balance() decimal.Decimal {
	return i.GrandTotal.Sub(i.PaidTotal).Sub(i.CreditedTotal)
}
