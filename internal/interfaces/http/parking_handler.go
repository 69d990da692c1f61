package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
)

// ParkingHandler parqueadero y valet: tarifas, sesiones, abonados y reporte.
type ParkingHandler struct {
	tariffs       *parking.TariffUseCase
	sessions      *parking.SessionUseCase
	subscriptions *parking.SubscriptionUseCase
	reports       *parking.ReportUseCase
}

func NewParkingHandler(tariffs *parking.TariffUseCase, sessions *parking.SessionUseCase, subscriptions *parking.SubscriptionUseCase, reports *parking.ReportUseCase) *ParkingHandler {
	return &ParkingHandler{tariffs: tariffs, sessions: sessions, subscriptions: subscriptions, reports: reports}
}

func (h *ParkingHandler) VehicleTypes(c *fiber.Ctx) error {
	return c.JSON(h.tariffs.VehicleTypes())
}

// UpsertTariff godoc
// @Summary      Definir tarifa
// @Description  Crea una nueva versión de la tarifa del tipo de vehículo. Las sesiones abiertas conservan la anterior.
// @Tags         parking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpsertTariffRequest  true  "Tarifa"
// @Success      200   {object}  dto.TariffResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/parking/tariffs [put]
func (h *ParkingHandler) UpsertTariff(c *fiber.Ctx) error {
	var in dto.UpsertTariffRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.tariffs.UpsertTariff(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) ListTariffs(c *fiber.Ctx) error {
	out, err := h.tariffs.ListTariffs(c.Context(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) DeactivateTariff(c *fiber.Ctx) error {
	if err := h.tariffs.DeactivateTariff(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterEntry godoc
// @Summary      Registrar entrada
// @Tags         parking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterEntryRequest  true  "Placa, tipo de vehículo y sede"
// @Success      201   {object}  dto.SessionResponse
// @Failure      404   {object}  dto.ErrorResponse  "TARIFF_NOT_FOUND"
// @Failure      409   {object}  dto.ErrorResponse  "La placa ya tiene una sesión activa"
// @Router       /api/parking/sessions [post]
func (h *ParkingHandler) RegisterEntry(c *fiber.Ctx) error {
	var in dto.RegisterEntryRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.sessions.RegisterEntry(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListSessions godoc
// @Summary      Listar sesiones
// @Tags         parking
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "active | closed | cancelled"
// @Param        plate         query  string  false  "Placa"
// @Param        warehouse_id  query  string  false  "Sede"
// @Param        from          query  string  false  "Entrada desde (YYYY-MM-DD)"
// @Param        to            query  string  false  "Entrada hasta (YYYY-MM-DD)"
// @Success      200  {object}  dto.SessionListResponse
// @Router       /api/parking/sessions [get]
func (h *ParkingHandler) ListSessions(c *fiber.Ctx) error {
	var in dto.SessionFilterRequest
	if err := parseQuery(c, &in); err != nil {
		return writeError(c, err)
	}
	var err error
	if in.From, in.To, err = dateRange(c); err != nil {
		return writeError(c, err)
	}
	out, err := h.sessions.ListSessions(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) GetSession(c *fiber.Ctx) error {
	out, err := h.sessions.GetSession(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Quote liquida sin cerrar. ?at= permite cotizar a una hora dada.
func (h *ParkingHandler) Quote(c *fiber.Ctx) error {
	at, err := dateQuery(c, "at", false)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.sessions.QuoteExit(c.Context(), GetCompanyID(c), c.Params("id"), at)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CloseSession godoc
// @Summary      Registrar salida
// @Tags         parking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la sesión"
// @Param        body  body  dto.CloseSessionRequest  true  "Medio de pago"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/parking/sessions/{id}/close [post]
func (h *ParkingHandler) CloseSession(c *fiber.Ctx) error {
	var in dto.CloseSessionRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.sessions.CloseSession(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) CancelSession(c *fiber.Ctx) error {
	var in dto.CancelSessionRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.sessions.CancelSession(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Ticket PDF del tiquete de entrada o del recibo de salida.
func (h *ParkingHandler) Ticket(c *fiber.Ctx) error {
	data, filename, err := h.sessions.TicketPDF(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, data, filename, mimePDF, true)
}

func (h *ParkingHandler) CreateSubscription(c *fiber.Ctx) error {
	var in dto.CreateSubscriptionRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.subscriptions.CreateSubscription(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListSubscriptions GET /api/parking/subscriptions?status=active|expired|cancelled
func (h *ParkingHandler) ListSubscriptions(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := parseQuery(c, &page); err != nil {
		return writeError(c, err)
	}
	page.DefaultPage()
	out, err := h.subscriptions.ListSubscriptions(c.Context(), GetCompanyID(c), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) SubscriptionByPlate(c *fiber.Ctx) error {
	out, err := h.subscriptions.FindActiveForPlate(c.Context(), GetCompanyID(c), c.Params("plate"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) RenewSubscription(c *fiber.Ctx) error {
	var in dto.RenewSubscriptionRequest
	if err := parseAndValidate(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.subscriptions.RenewSubscription(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) CancelSubscription(c *fiber.Ctx) error {
	out, err := h.subscriptions.CancelSubscription(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte de parqueadero
// @Tags         parking
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD), hoy por defecto"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD), hoy por defecto"
// @Success      200  {object}  dto.ParkingReport
// @Router       /api/parking/report [get]
func (h *ParkingHandler) Report(c *fiber.Ctx) error {
	from, to, err := reportRange(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.reports.Report(c.Context(), GetCompanyID(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *ParkingHandler) ExportReport(c *fiber.Ctx) error {
	from, to, err := reportRange(c)
	if err != nil {
		return writeError(c, err)
	}
	data, filename, err := h.reports.ExportReport(c.Context(), GetCompanyID(c), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, data, filename, mimeXLSX, false)
}

// reportRange sin fechas es el día de hoy.
func reportRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, to, err := dateRange(c)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if from == nil {
		from = &start
	}
	if to == nil {
		end := start.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return *from, *to, nil
}
