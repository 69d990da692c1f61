package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
)

// InvoiceHandler facturas de venta, abonos y notas crédito.
type InvoiceHandler struct {
	invoices    *billing.InvoiceUseCase
	payments    *billing.PaymentUseCase
	creditNotes *billing.CreditNoteUseCase
	pdf         *billing.PDFUseCase
}

func NewInvoiceHandler(invoices *billing.InvoiceUseCase, payments *billing.PaymentUseCase, creditNotes *billing.CreditNoteUseCase, pdf *billing.PDFUseCase) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, payments: payments, creditNotes: creditNotes, pdf: pdf}
}

// Create godoc
// @Summary      Crear factura en borrador
// @Description  Calcula subtotales e impuestos por línea. La numeración se asigna al emitir.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cliente, bodega e ítems"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.invoices.CreateInvoice(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Issue godoc
// @Summary      Emitir factura
// @Description  Asigna el consecutivo de la resolución vigente, descuenta inventario y envía a la DIAN en segundo plano.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID de la factura"
// @Param        body  body  dto.IssueInvoiceRequest  false  "Pago de contado"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/issue [post]
func (h *InvoiceHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueInvoiceRequest
	if err := parseOptional(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.invoices.IssueInvoice(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel POST /api/invoices/:id/cancel. Solo borradores.
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.invoices.CancelDraft(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.invoices.GetInvoice(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "draft | issued | partial | paid | cancelled"
// @Param        dian_status  query  string  false  "Estado DIAN"
// @Param        customer_id  query  string  false  "Cliente"
// @Param        from         query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var in dto.InvoiceFilterRequest
	if err := parseQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	var err error
	if in.From, in.To, err = dateRange(c); err != nil {
		return writeError(c, err)
	}
	out, err := h.invoices.ListInvoices(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DIANStatus GET /api/invoices/:id/dian-status
func (h *InvoiceHandler) DIANStatus(c *fiber.Ctx) error {
	out, err := h.invoices.GetDIANStatus(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Retry reenvía a la DIAN una factura rechazada o con error.
func (h *InvoiceHandler) Retry(c *fiber.Ctx) error {
	out, err := h.invoices.RetrySubmission(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}

// DownloadPDF godoc
// @Summary      Representación gráfica (PDF)
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	data, filename, err := h.pdf.DownloadInvoicePDF(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, data, filename, mimePDF, c.QueryBool("inline"))
}

// DownloadXML XML firmado enviado a la DIAN.
func (h *InvoiceHandler) DownloadXML(c *fiber.Ctx) error {
	data, filename, err := h.invoices.DownloadXML(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, data, filename, mimeXML, false)
}

// RegisterPayment godoc
// @Summary      Registrar abono
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la factura"
// @Param        body  body  dto.RegisterPaymentRequest  true  "Monto y medio de pago"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments [post]
func (h *InvoiceHandler) RegisterPayment(c *fiber.Ctx) error {
	var in dto.RegisterPaymentRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.payments.RegisterPayment(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *InvoiceHandler) ListPayments(c *fiber.Ctx) error {
	out, err := h.payments.ListPayments(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// VoidPayment POST /api/payments/:id/void
func (h *InvoiceHandler) VoidPayment(c *fiber.Ctx) error {
	var in dto.VoidPaymentRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.payments.VoidPayment(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCreditNote godoc
// @Summary      Nota crédito sobre factura emitida
// @Tags         credit-notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la factura"
// @Param        body  body  dto.CreateCreditNoteRequest  true  "Concepto y líneas (vacío = anulación total)"
// @Success      201   {object}  dto.CreditNoteResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/credit-notes [post]
func (h *InvoiceHandler) CreateCreditNote(c *fiber.Ctx) error {
	var in dto.CreateCreditNoteRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.creditNotes.CreateCreditNote(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *InvoiceHandler) ListCreditNotes(c *fiber.Ctx) error {
	out, err := h.creditNotes.ListCreditNotes(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetCreditNote GET /api/credit-notes/:id
func (h *InvoiceHandler) GetCreditNote(c *fiber.Ctx) error {
	out, err := h.creditNotes.GetCreditNote(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
