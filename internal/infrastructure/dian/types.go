// Package dian envío directo a la DIAN: XML UBL 2.1 de facturas y notas crédito,
// firma XAdES (subpaquete signer), empaquetado ZIP y cliente SOAP.
package dian

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// BillingResolutionData datos de la resolución de facturación DIAN (obligatorios en ExtensionContent).
type BillingResolutionData struct {
	Number   string    // Número de resolución (ej: 18764000000001)
	Prefix   string    // Prefijo autorizado (ej: SETP)
	From     int64     // Número desde
	To       int64     // Número hasta
	DateFrom time.Time // Fecha desde
	DateTo   time.Time // Fecha hasta
}

func resolutionData(r *entity.BillingResolution) *BillingResolutionData {
	if r == nil {
		return nil
	}
	return &BillingResolutionData{
		Number: r.ResolutionNumber, Prefix: r.Prefix,
		From: r.RangeFrom, To: r.RangeTo, DateFrom: r.DateFrom, DateTo: r.DateTo,
	}
}

// LineForXML línea del documento con datos de producto (descripción, unidad, código).
type LineForXML struct {
	ProductName string
	ProductCode string // SKU o código
	UnitCode    string // Código unidad medida DIAN (94, KGM, etc.)
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TaxRate     decimal.Decimal // porcentaje o fracción
	TaxAmount   decimal.Decimal
	Subtotal    decimal.Decimal // base gravable de la línea
}

// Totals montos del documento.
type Totals struct {
	Net      decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Grand    decimal.Decimal
}

// BillingReference factura a la que apunta una nota crédito.
type BillingReference struct {
	Number    string
	CUFE      string
	IssueDate time.Time
}

// BuildContext todo lo necesario para el XML de una factura o una nota crédito.
type BuildContext struct {
	Kind      string // invoice | credit_note
	ID        string // prefijo + número
	UUID      string // CUFE o CUDE
	IssueDate time.Time
	Notes     string

	Company    *entity.Company  // Emisor (AccountingSupplierParty)
	Customer   *entity.Customer // Cliente (AccountingCustomerParty)
	Lines      []LineForXML
	Totals     Totals
	Resolution *BillingResolutionData

	PaymentFormCode   string // 1=Contado, 2=Crédito
	PaymentMethodCode string // 10=Efectivo, 47=Transferencia, etc.
	DueDate           *time.Time

	// Solo notas crédito.
	Reference       *BillingReference
	DiscrepancyCode string // tabla 13.2.3
	DiscrepancyText string

	Environment string // 1 producción, 2 pruebas
}
