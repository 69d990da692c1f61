package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Clientes ──────────────────────────────────────────────────────────────────

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	IdentificationType string `json:"identification_type" validate:"omitempty,oneof=13 22 31 41 42"`
	TaxID              string `json:"tax_id" validate:"required,min=3,max=20"`
	Email              string `json:"email,omitempty" validate:"omitempty,email"`
	Phone              string `json:"phone,omitempty"`
	Address            string `json:"address,omitempty"`
	CreditDays         int    `json:"credit_days,omitempty" validate:"min=0,max=365"`
}

// UpdateCustomerRequest body para PUT /api/customers/:id.
type UpdateCustomerRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	CreditDays *int    `json:"credit_days" validate:"omitempty,min=0,max=365"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID                 string `json:"id"`
	CompanyID          string `json:"company_id"`
	Name               string `json:"name"`
	IdentificationType string `json:"identification_type"`
	TaxID              string `json:"tax_id"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Address            string `json:"address,omitempty"`
	CreditDays         int    `json:"credit_days"`
}

// ── Facturas ──────────────────────────────────────────────────────────────────

// CreateInvoiceRequest body para POST /api/invoices. WarehouseID: bodega que despacha.
// PaymentForm 1 = contado, 2 = crédito. Issue emite en el mismo paso.
type CreateInvoiceRequest struct {
	CustomerID    string               `json:"customer_id" validate:"required"`
	WarehouseID   string               `json:"warehouse_id" validate:"required"`
	Prefix        string               `json:"prefix,omitempty" validate:"omitempty,max=4"`
	Date          *time.Time           `json:"date,omitempty"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	PaymentForm   string               `json:"payment_form,omitempty" validate:"omitempty,oneof=1 2"`
	PaymentMethod string               `json:"payment_method,omitempty"`
	Notes         string               `json:"notes,omitempty" validate:"max=500"`
	Issue         bool                 `json:"issue,omitempty"`
	PaidOnIssue   bool                 `json:"paid_on_issue,omitempty"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceItemRequest línea de factura. UnitPrice vacío = precio de lista; Discount en pesos.
type InvoiceItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  decimal.Decimal  `json:"discount"`
}

// IssueInvoiceRequest body opcional de POST /api/invoices/:id/issue.
type IssueInvoiceRequest struct {
	PaidOnIssue   bool   `json:"paid_on_issue"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// InvoiceFilterRequest query de GET /api/invoices.
type InvoiceFilterRequest struct {
	Status     string     `query:"status" validate:"omitempty,oneof=draft issued partial paid cancelled"`
	DIANStatus string     `query:"dian_status"`
	CustomerID string     `query:"customer_id"`
	From       *time.Time `query:"-"`
	To         *time.Time `query:"-"`
	Limit      int        `query:"limit"`
	Offset     int        `query:"offset"`
}

// InvoiceResponse factura con detalle.
type InvoiceResponse struct {
	ID            string                  `json:"id"`
	CompanyID     string                  `json:"company_id"`
	CustomerID    string                  `json:"customer_id"`
	CustomerName  string                  `json:"customer_name,omitempty"`
	WarehouseID   string                  `json:"warehouse_id"`
	Prefix        string                  `json:"prefix"`
	Number        string                  `json:"number"`
	Date          string                  `json:"date"`
	DueDate       string                  `json:"due_date"`
	PaymentForm   string                  `json:"payment_form"`
	NetTotal      decimal.Decimal         `json:"net_total"`
	DiscountTotal decimal.Decimal         `json:"discount_total"`
	TaxTotal      decimal.Decimal         `json:"tax_total"`
	GrandTotal    decimal.Decimal         `json:"grand_total"`
	PaidTotal     decimal.Decimal         `json:"paid_total"`
	CreditedTotal decimal.Decimal         `json:"credited_total"`
	Balance       decimal.Decimal         `json:"balance"`
	Status        string                  `json:"status"`
	DIAN_Status   string                  `json:"dian_status"`
	CUFE          string                  `json:"cufe,omitempty"`
	QRData        string                  `json:"qr_data,omitempty"`
	Details       []InvoiceDetailResponse `json:"details,omitempty"`
}

// InvoiceDetailResponse línea de detalle.
type InvoiceDetailResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// InvoiceListResponse lista paginada de facturas (sin detalle).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceDIANStatusDTO respuesta ligera de GET /api/invoices/:id/status (polling).
type InvoiceDIANStatusDTO struct {
	ID         string `json:"id"`
	DIANStatus string `json:"dian_status"`
	CUFE       string `json:"cufe"`
	TrackID    string `json:"track_id"`
	Errors     string `json:"errors"`
}

// ── Pagos ─────────────────────────────────────────────────────────────────────

// RegisterPaymentRequest body para POST /api/invoices/:id/payments.
type RegisterPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required"`
	Reference string          `json:"reference,omitempty" validate:"max=100"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

// VoidPaymentRequest body para POST /api/payments/:id/void.
type VoidPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=300"`
}

// PaymentResponse abono registrado.
type PaymentResponse struct {
	ID         string          `json:"id"`
	InvoiceID  string          `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	PaidAt     time.Time       `json:"paid_at"`
	Status     string          `json:"status"`
	VoidReason string          `json:"void_reason,omitempty"`
	Ledger     *LedgerResponse `json:"ledger,omitempty"`
}

// LedgerResponse estado de cobro tras un pago o nota crédito.
type LedgerResponse struct {
	InvoiceID     string          `json:"invoice_id"`
	Status        string          `json:"status"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	CreditedTotal decimal.Decimal `json:"credited_total"`
	Balance       decimal.Decimal `json:"balance"`
}

// ── Notas crédito ─────────────────────────────────────────────────────────────

// CreateCreditNoteRequest body para POST /api/invoices/:id/credit-notes.
// Con Items se acredita por producto; sin Items, Amount (con IVA incluido) se acredita por valor.
type CreateCreditNoteRequest struct {
	ConceptCode string                  `json:"concept_code" validate:"required,oneof=1 2 3 4 5"`
	Reason      string                  `json:"reason" validate:"required,min=3,max=500"`
	Restock     bool                    `json:"restock"`
	WarehouseID string                  `json:"warehouse_id,omitempty"`
	Amount      *decimal.Decimal        `json:"amount,omitempty"`
	Items       []CreditNoteItemRequest `json:"items,omitempty" validate:"dive"`
}

// CreditNoteItemRequest línea de la nota por producto facturado.
type CreditNoteItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreditNoteResponse nota crédito.
type CreditNoteResponse struct {
	ID          string               `json:"id"`
	InvoiceID   string               `json:"invoice_id"`
	Prefix      string               `json:"prefix"`
	Number      string               `json:"number"`
	Date        string               `json:"date"`
	ConceptCode string               `json:"concept_code"`
	Reason      string               `json:"reason"`
	Restock     bool                 `json:"restock"`
	NetTotal    decimal.Decimal      `json:"net_total"`
	TaxTotal    decimal.Decimal      `json:"tax_total"`
	GrandTotal  decimal.Decimal      `json:"grand_total"`
	DIANStatus  string               `json:"dian_status"`
	CUDE        string               `json:"cude,omitempty"`
	Lines       []CreditNoteLineResp `json:"lines"`
	Ledger      *LedgerResponse      `json:"ledger,omitempty"`
}

// CreditNoteLineResp línea de nota crédito.
type CreditNoteLineResp struct {
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ── Cartera ───────────────────────────────────────────────────────────────────

// ReceivableFilterRequest query de GET /api/receivables.
type ReceivableFilterRequest struct {
	Status     string `query:"status" validate:"omitempty,oneof=open partial paid cancelled"`
	CustomerID string `query:"customer_id"`
	Overdue    bool   `query:"overdue"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// ReceivableResponse fila de cuentas por cobrar.
type ReceivableResponse struct {
	InvoiceID     string          `json:"invoice_id"`
	CustomerID    string          `json:"customer_id"`
	DocumentNo    string          `json:"document_no"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	OriginalTotal decimal.Decimal `json:"original_total"`
	PaidTotal     decimal.Decimal `json:"paid_total"`
	CreditedTotal decimal.Decimal `json:"credited_total"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	DaysOverdue   int             `json:"days_overdue"`
	Bucket        string          `json:"bucket"`
}

// AgingRow saldos de un cliente por rango de vencimiento.
type AgingRow struct {
	CustomerID   string                     `json:"customer_id"`
	CustomerName string                     `json:"customer_name"`
	Buckets      map[string]decimal.Decimal `json:"buckets"`
	Total        decimal.Decimal            `json:"total"`
}

// AgingReport reporte de edades de cartera.
type AgingReport struct {
	AsOf    string                     `json:"as_of"`
	Rows    []AgingRow                 `json:"rows"`
	Totals  map[string]decimal.Decimal `json:"totals"`
	Overall decimal.Decimal            `json:"overall"`
}

// StatementResponse estado de cuenta de un cliente.
type StatementResponse struct {
	Customer    CustomerResponse     `json:"customer"`
	Invoices    []InvoiceResponse    `json:"invoices"`
	Payments    []PaymentResponse    `json:"payments"`
	CreditNotes []CreditNoteResponse `json:"credit_notes"`
	Outstanding decimal.Decimal      `json:"outstanding"`
}

// SyncResult resultado de la resincronización de cartera.
type SyncResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
}

// ── Resoluciones de numeración ───────────────────────────────────────────────

// CreateResolutionRequest body para POST /api/billing/resolutions.
type CreateResolutionRequest struct {
	Kind             string    `json:"kind" validate:"required,oneof=invoice credit_note"`
	ResolutionNumber string    `json:"resolution_number" validate:"required,max=40"`
	Prefix           string    `json:"prefix" validate:"omitempty,alphanum,max=4"`
	RangeFrom        int64     `json:"range_from" validate:"required,min=1"`
	RangeTo          int64     `json:"range_to" validate:"required,min=1"`
	DateFrom         time.Time `json:"date_from" validate:"required"`
	DateTo           time.Time `json:"date_to" validate:"required"`
	TechnicalKey     string    `json:"technical_key,omitempty" validate:"max=128"`
}

// ResolutionResponse resolución con los consecutivos que le quedan.
type ResolutionResponse struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	ResolutionNumber string `json:"resolution_number"`
	Prefix           string `json:"prefix"`
	RangeFrom        int64  `json:"range_from"`
	RangeTo          int64  `json:"range_to"`
	NextNumber       int64  `json:"next_number"`
	Remaining        int64  `json:"remaining"`
	DateFrom         string `json:"date_from"`
	DateTo           string `json:"date_to"`
	IsActive         bool   `json:"is_active"`
}
