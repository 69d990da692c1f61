package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// Cartera y facturación.
	ErrInvalidTransition    = errors.New("transición de estado no permitida")
	ErrOverpayment          = errors.New("el pago supera el saldo pendiente")
	ErrCreditExceedsBalance = errors.New("la nota crédito supera el saldo pendiente")
	ErrResolutionExhausted  = errors.New("rango de numeración de la resolución agotado")

	// Parqueadero.
	ErrSessionClosed   = errors.New("la sesión de parqueo ya fue cerrada")
	ErrActiveSession   = errors.New("la placa ya tiene una sesión activa")
	ErrTariffNotFound  = errors.New("no hay tarifa activa para el tipo de vehículo")
	ErrNumberingLocked = errors.New("numeración ocupada, intente de nuevo")
)
