package api

import (
	"github.com/gofiber/fiber/v3"

	"asistencia/internal/validation"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonFieldErrors returns a 422 response listing the invalid request fields.
func jsonFieldErrors(c fiber.Ctx, fields validation.FieldErrors) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status": "error",
		"error":  "invalid request body",
		"fields": fields,
	})
}

// fichaParam reads and normalizes the :numero route parameter.
func fichaParam(c fiber.Ctx) (string, bool) {
	numero := validation.NormalizeFichaNumero(c.Params("numero"))
	return numero, validation.ValidateFichaNumero(numero)
}
