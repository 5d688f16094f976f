package handlers

import (
	"github.com/gofiber/fiber/v3"

	"carematch/internal/apperr"
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

// respondError maps a manager error onto its HTTP status. Internal error
// text is never written to the client.
func respondError(c fiber.Ctx, err error) error {
	return jsonError(c, apperr.KindOf(err).HTTPStatus(), apperr.PublicMessage(err))
}
