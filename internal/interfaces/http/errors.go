package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/dto"
	"github.com/jhoicas/clinica-bodegas-api/internal/application/inventory"
	"github.com/jhoicas/clinica-bodegas-api/internal/domain"
	"github.com/jhoicas/clinica-bodegas-api/pkg/logger"
)

// errorStatus traduce el error de dominio a status HTTP.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, fiber.ErrRequestTimeout):
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde con dto.ErrorResponse. Los 5xx se registran y no exponen el detalle.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status := errorStatus(err)
	code := inventory.ErrorCode(err)
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		code = "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		code = "FORBIDDEN"
	case status == fiber.StatusRequestTimeout:
		code, msg = "TIMEOUT", "la operación excedió el tiempo máximo"
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error procesando petición")
		msg = "error interno, intente de nuevo"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
