package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/domain"
	apphttp "github.com/jhoicas/invorya-erp/internal/interfaces/http"
)

type fakeModules struct {
	active map[string]bool
	err    error
}

func (f fakeModules) HasActiveModule(_ context.Context, _ string, module string) (bool, error) {
	return f.active[module], f.err
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// parkingApp handlers de parqueadero sin repositorios: solo se ejercita lo que no llega a la base.
func parkingApp(t *testing.T) *fiber.App {
	t.Helper()
	tariffs := parking.NewTariffUseCase(nil, nil, decimal.NewFromInt(50))
	h := apphttp.NewParkingHandler(tariffs, nil, nil, nil)
	app := fiber.New()
	app.Use(apphttp.AuthMiddleware(testJWTSecret))
	app.Get("/vehicle-types", h.VehicleTypes)
	app.Post("/sessions", h.RegisterEntry)
	app.Get("/sessions", h.ListSessions)
	return app
}

func TestVehicleTypes(t *testing.T) {
	app := parkingApp(t)
	req := httptest.NewRequest(http.MethodGet, "/vehicle-types", nil)
	req.Header.Set("Authorization", tokenForRole(t, "operador"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []dto.VehicleTypeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	codes := make([]string, 0, len(out))
	for _, v := range out {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"bicycle", "car", "motorcycle", "truck"}, codes)
}

func TestRegisterEntry_Validacion(t *testing.T) {
	app := parkingApp(t)
	cases := []struct {
		name   string
		body   string
		code   string
		fields []string
	}{
		{"cuerpo mal formado", `{"plate":`, "INVALID_BODY", nil},
		{"sin placa", `{"warehouse_id":"w1","vehicle_type":"car"}`, "VALIDATION", []string{"Plate"}},
		{"tipo desconocido", `{"warehouse_id":"w1","plate":"ABC123","vehicle_type":"boat"}`, "VALIDATION", []string{"VehicleType"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", tokenForRole(t, "operador"))
			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Code)
			for _, f := range tc.fields {
				assert.Contains(t, body.Fields, f)
			}
		})
	}
}

func TestListSessions_FechaInvalida(t *testing.T) {
	app := parkingApp(t)
	req := httptest.NewRequest(http.MethodGet, "/sessions?from=17-10-2026", nil)
	req.Header.Set("Authorization", tokenForRole(t, "operador"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUERY", decodeError(t, resp).Code)
}

func TestListSessions_EstadoInvalido(t *testing.T) {
	app := parkingApp(t)
	req := httptest.NewRequest(http.MethodGet, "/sessions?status=parked", nil)
	req.Header.Set("Authorization", tokenForRole(t, "operador"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, "oneof", body.Fields["Status"])
}

func TestRequireModule(t *testing.T) {
	cases := []struct {
		name    string
		checker fakeModules
		status  int
	}{
		{"activo", fakeModules{active: map[string]bool{"parking": true}}, http.StatusOK},
		{"no contratado", fakeModules{active: map[string]bool{"billing": true}}, http.StatusForbidden},
		{"falla de base", fakeModules{err: errors.New("conexión rechazada")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/p",
				apphttp.AuthMiddleware(testJWTSecret),
				apphttp.RequireModule("parking", tc.checker),
				func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
			)
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			req.Header.Set("Authorization", tokenForRole(t, "operador"))
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestWriteError_Sentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: sku vacío", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION"},
		{fmt.Errorf("factura x: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrTariffNotFound, http.StatusNotFound, "TARIFF_NOT_FOUND"},
		{domain.ErrActiveSession, http.StatusConflict, "ACTIVE_SESSION"},
		{domain.ErrOverpayment, http.StatusConflict, "OVERPAYMENT"},
		{fmt.Errorf("%w: emitida -> borrador", domain.ErrInvalidTransition), http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{domain.ErrNumberingLocked, http.StatusServiceUnavailable, "NUMBERING_BUSY"},
		{errors.New("pq: conexión perdida"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := fiber.New()
			app.Get("/e", func(c *fiber.Ctx) error { return apphttp.WriteErrorForTest(c, tc.err) })
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/e", nil), -1)
			require.NoError(t, err)

			assert.Equal(t, tc.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Message, "pq:")
			}
		})
	}
}
