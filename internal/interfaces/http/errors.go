package http

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

// El orden importa: el primer sentinel que coincide define la respuesta.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrTariffNotFound, fiber.StatusNotFound, "TARIFF_NOT_FOUND"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrOverpayment, fiber.StatusConflict, "OVERPAYMENT"},
	{domain.ErrCreditExceedsBalance, fiber.StatusConflict, "CREDIT_EXCEEDS_BALANCE"},
	{domain.ErrActiveSession, fiber.StatusConflict, "ACTIVE_SESSION"},
	{domain.ErrSessionClosed, fiber.StatusConflict, "SESSION_CLOSED"},
	{domain.ErrResolutionExhausted, fiber.StatusConflict, "RESOLUTION_EXHAUSTED"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidTransition, fiber.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	{domain.ErrNumberingLocked, fiber.StatusServiceUnavailable, "NUMBERING_BUSY"},
}

// requestError cuerpo o query mal formados; siempre 400.
type requestError struct {
	code   string
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func invalidRequest(code, msg string) error {
	return &requestError{code: code, msg: msg}
}

// writeError traduce errores de dominio a la respuesta HTTP; lo desconocido es 500 sin detalle.
func writeError(c *fiber.Ctx, err error) error {
	var re *requestError
	if errors.As(err, &re) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: re.code, Message: re.msg, Fields: re.fields})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

// parseAndValidate decodifica el cuerpo y corre las reglas validate:"..." del DTO.
func parseAndValidate(c *fiber.Ctx, in any) error {
	if err := c.BodyParser(in); err != nil {
		return invalidRequest("INVALID_BODY", "cuerpo inválido")
	}
	return validateStruct(in)
}

// parseOptional como parseAndValidate pero admite cuerpo vacío.
func parseOptional(c *fiber.Ctx, in any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(in); err != nil {
			return invalidRequest("INVALID_BODY", "cuerpo inválido")
		}
	}
	return validateStruct(in)
}

func parseQuery(c *fiber.Ctx, in any) error {
	if err := c.QueryParser(in); err != nil {
		return invalidRequest("INVALID_QUERY", "parámetros inválidos")
	}
	return validateStruct(in)
}

func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidRequest("VALIDATION", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &requestError{code: "VALIDATION", msg: "datos inválidos", fields: fields}
}

// dateQuery acepta YYYY-MM-DD o RFC3339. end=true lleva una fecha simple al final del día.
func dateQuery(c *fiber.Ctx, key string, end bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, invalidRequest("INVALID_QUERY", key+": use YYYY-MM-DD")
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func dateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = dateQuery(c, "from", false); err != nil {
		return nil, nil, err
	}
	if to, err = dateQuery(c, "to", true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func sendFile(c *fiber.Ctx, data []byte, filename, contentType string, inline bool) error {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, disposition+`; filename="`+filename+`"`)
	return c.Send(data)
}

const (
	mimePDF  = "application/pdf"
	mimeXML  = "application/xml"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
