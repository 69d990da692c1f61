package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
)

// ReceivableHandler cartera y resoluciones de numeración.
type ReceivableHandler struct {
	receivables *billing.ReceivableUseCase
	resolutions *billing.ResolutionUseCase
}

func NewReceivableHandler(receivables *billing.ReceivableUseCase, resolutions *billing.ResolutionUseCase) *ReceivableHandler {
	return &ReceivableHandler{receivables: receivables, resolutions: resolutions}
}

// List godoc
// @Summary      Cuentas por cobrar
// @Tags         receivables
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "open | partial | paid | cancelled"
// @Param        customer_id  query  string  false  "Cliente"
// @Param        overdue      query  bool    false  "Solo vencidas"
// @Success      200  {array}  dto.ReceivableResponse
// @Router       /api/receivables [get]
func (h *ReceivableHandler) List(c *fiber.Ctx) error {
	var in dto.ReceivableFilterRequest
	if err := parseQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.receivables.ListReceivables(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ByInvoice GET /api/invoices/:id/receivable
func (h *ReceivableHandler) ByInvoice(c *fiber.Ctx) error {
	out, err := h.receivables.GetByInvoice(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Statement estado de cuenta del cliente.
func (h *ReceivableHandler) Statement(c *fiber.Ctx) error {
	out, err := h.receivables.CustomerStatement(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Aging godoc
// @Summary      Cartera por edades
// @Tags         receivables
// @Security     Bearer
// @Produce      json
// @Param        as_of  query  string  false  "Fecha de corte (YYYY-MM-DD), hoy por defecto"
// @Success      200  {object}  dto.AgingReport
// @Router       /api/receivables/aging [get]
func (h *ReceivableHandler) Aging(c *fiber.Ctx) error {
	asOf, err := asOfQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.receivables.Aging(c.Context(), GetCompanyID(c), asOf)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExportAging GET /api/receivables/aging.xlsx
func (h *ReceivableHandler) ExportAging(c *fiber.Ctx) error {
	asOf, err := asOfQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	data, filename, err := h.receivables.ExportAging(c.Context(), GetCompanyID(c), asOf)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, data, filename, mimeXLSX, false)
}

// Sync recalcula la cartera de todas las facturas emitidas.
func (h *ReceivableHandler) Sync(c *fiber.Ctx) error {
	out, err := h.receivables.SyncAll(c.Context(), GetCompanyID(c), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateResolution godoc
// @Summary      Registrar resolución de numeración
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateResolutionRequest  true  "Rango autorizado por la DIAN"
// @Success      201   {object}  dto.ResolutionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/billing/resolutions [post]
func (h *ReceivableHandler) CreateResolution(c *fiber.Ctx) error {
	var in dto.CreateResolutionRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.resolutions.CreateResolution(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *ReceivableHandler) ListResolutions(c *fiber.Ctx) error {
	out, err := h.resolutions.ListResolutions(c.Context(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ReceivableHandler) DeactivateResolution(c *fiber.Ctx) error {
	out, err := h.resolutions.DeactivateResolution(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func asOfQuery(c *fiber.Ctx) (time.Time, error) {
	t, err := dateQuery(c, "as_of", true)
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}
