package billing

import (
	"context"
	"io"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// Repos repositorios ligados a una transacción de facturación.
// Incluye los de inventario para descontar o devolver existencias en la misma tx.
type Repos struct {
	inventory.Repos
	Customers   repository.CustomerRepository
	Invoices    repository.InvoiceRepository
	Payments    repository.PaymentRepository
	CreditNotes repository.CreditNoteRepository
	Receivables repository.ReceivableRepository
	Resolutions repository.BillingResolutionRepository
}

// TxRunner ejecuta fn dentro de una transacción; cualquier error hace rollback.
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(r Repos) error) error
}

// Tipos de documento electrónico.
const (
	DocInvoice    = "invoice"
	DocCreditNote = "credit_note"
)

// Proveedores de facturación electrónica.
const (
	ProviderNone   = "none"
	ProviderDIAN   = "dian"
	ProviderFactus = "factus"
)

// DocumentLine línea lista para el XML o el JSON del proveedor.
type DocumentLine struct {
	ProductID   string
	ProductCode string
	Name        string
	UnitCode    string
	Detail      *entity.InvoiceDetail
}

// InvoiceDocument factura con todo lo necesario para enviarla.
type InvoiceDocument struct {
	Invoice    *entity.Invoice
	Company    *entity.Company
	Customer   *entity.Customer
	Resolution *entity.BillingResolution
	Lines      []DocumentLine
}

// CreditNoteDocument nota crédito con la factura que referencia.
type CreditNoteDocument struct {
	Note       *entity.CreditNote
	Invoice    *entity.Invoice
	Company    *entity.Company
	Customer   *entity.Customer
	Resolution *entity.BillingResolution
	// UnitCodes unidad de medida por producto de las líneas.
	UnitCodes map[string]string
	// ProductCodes SKU por producto de las líneas.
	ProductCodes map[string]string
}

// SubmissionResult respuesta del proveedor. CUFE lleva el CUDE en notas crédito.
type SubmissionResult struct {
	Accepted  bool
	CUFE      string
	QRData    string
	XMLSigned string
	TrackID   string
	Errors    string
	// Number consecutivo asignado por el proveedor (Factus numera por su cuenta).
	Number string
}

// EInvoiceProvider envía facturas y notas crédito a la DIAN, directo o vía Factus.
type EInvoiceProvider interface {
	Name() string
	SubmitInvoice(ctx context.Context, doc *InvoiceDocument) (*SubmissionResult, error)
	SubmitCreditNote(ctx context.Context, doc *CreditNoteDocument) (*SubmissionResult, error)
}

// Dispatcher encola el envío electrónico de un documento ya persistido.
type Dispatcher interface {
	ProcessAsync(kind, id string)
}

// InvoiceDetailForPDF línea con el nombre del producto para la representación gráfica.
type InvoiceDetailForPDF struct {
	entity.InvoiceDetail
	ProductName string
}

// InvoicePDFGenerator genera la representación gráfica de la factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, company *entity.Company, customer *entity.Customer, details []InvoiceDetailForPDF) ([]byte, error)
}

// AgingExporter escribe el reporte de edades de cartera como hoja de cálculo.
type AgingExporter interface {
	WriteAging(w io.Writer, companyName string, report *dto.AgingReport) error
}
