// Package dian contiene catálogos y validaciones alineados al Anexo Técnico
// de Factura Electrónica de Venta DIAN (Colombia) v1.9.
package dian

// ── Tabla 6: unidades de medida (@unitCode) ──────────────────────────────────

const (
	UnitUnit        = "94"  // Unidad
	UnitKilogram    = "KGM" // Kilogramo
	UnitGram        = "GRM" // Gramo
	UnitLitre       = "LTR" // Litro
	UnitMetre       = "MTR" // Metro
	UnitSquareMetre = "MTK" // Metro cuadrado
	UnitCubicMetre  = "MTQ" // Metro cúbico
	UnitDozen       = "DZN" // Docena
	UnitHour        = "HUR" // Hora (servicio de parqueadero)
	UnitDay         = "DAY" // Día
	UnitMinute      = "MIN" // Minuto
	UnitWeek        = "WEE" // Semana
	UnitMonth       = "MON" // Mes (mensualidades de abonados)
	UnitYear        = "ANN" // Año
)

// ValidMeasurementUnitCodes unidades aceptadas en líneas de factura y catálogo.
var ValidMeasurementUnitCodes = map[string]bool{
	UnitUnit: true, UnitKilogram: true, UnitGram: true, UnitLitre: true,
	UnitMetre: true, UnitSquareMetre: true, UnitCubicMetre: true,
	UnitDozen: true, UnitHour: true, UnitDay: true,
	UnitMinute: true, UnitWeek: true, UnitMonth: true, UnitYear: true,
}

// ── Tabla 14: forma de pago ──────────────────────────────────────────────────

const (
	PaymentFormContado = "1"
	PaymentFormCredito = "2"
)

// ── Tabla 13: medios de pago (uso frecuente) ─────────────────────────────────

const (
	PaymentMethodEfectivo       = "10"
	PaymentMethodConsignacion   = "42"
	PaymentMethodTransferencia  = "47"
	PaymentMethodTarjetaCredito = "48"
	PaymentMethodTarjetaDebito  = "49"
	PaymentMethodOtro           = "ZZZ"
)

// ValidPaymentMethodCodes medios de pago aceptados en pagos y cierres de parqueo.
var ValidPaymentMethodCodes = map[string]bool{
	PaymentMethodEfectivo: true, PaymentMethodConsignacion: true,
	PaymentMethodTransferencia: true, PaymentMethodTarjetaCredito: true,
	PaymentMethodTarjetaDebito: true, PaymentMethodOtro: true,
}

// ── Tabla 11: tributos ───────────────────────────────────────────────────────

const (
	TaxCodeIVA     = "01"
	TaxCodeINC     = "04"
	TaxCodeReteIVA = "05"
)

// ── Tabla 3: tipos de identificación ─────────────────────────────────────────

const (
	IdentificationTypeCC        = "13"
	IdentificationTypeCE        = "22"
	IdentificationTypeNIT       = "31" // requiere dígito de verificación
	IdentificationTypePassport  = "41"
	IdentificationTypeForeignID = "42"
)

// ValidIdentificationTypes tipos de documento del adquiriente.
var ValidIdentificationTypes = map[string]bool{
	IdentificationTypeCC: true, IdentificationTypeCE: true, IdentificationTypeNIT: true,
	IdentificationTypePassport: true, IdentificationTypeForeignID: true,
}

// ── Tabla 13.2.3: concepto de corrección para notas crédito ─────────────────

const (
	CreditConceptPartialReturn = "1" // Devolución parcial de bienes
	CreditConceptAnnulment     = "2" // Anulación de factura electrónica
	CreditConceptDiscount      = "3" // Rebaja o descuento parcial o total
	CreditConceptPriceAdjust   = "4" // Ajuste de precio
	CreditConceptOther         = "5" // Otros
)

// CreditConceptDescriptions texto que acompaña el código en DiscrepancyResponse.
var CreditConceptDescriptions = map[string]string{
	CreditConceptPartialReturn: "Devolución parcial de los bienes y/o no aceptación parcial del servicio",
	CreditConceptAnnulment:     "Anulación de factura electrónica",
	CreditConceptDiscount:      "Rebaja o descuento parcial o total",
	CreditConceptPriceAdjust:   "Ajuste de precio",
	CreditConceptOther:         "Otros",
}

// ── Tabla 1: tipos de documento ─────────────────────────────────────────────

const (
	DocumentTypeInvoice    = "01"
	DocumentTypeCreditNote = "91"
)
