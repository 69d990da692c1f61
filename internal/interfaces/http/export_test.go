package http

import "github.com/gofiber/fiber/v2"

// WriteErrorForTest expone writeError a las pruebas externas.
func WriteErrorForTest(c *fiber.Ctx, err error) error { return writeError(c, err) }
