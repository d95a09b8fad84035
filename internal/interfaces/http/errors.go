package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
)

// IntegrityDetails detalle de una violación de la secuencia fiscal.
// Numbers se recorta; Count es la cantidad total de números afectados.
type IntegrityDetails struct {
	Rule    string  `json:"rule"`
	Numbers []int64 `json:"numbers"`
	Count   int     `json:"count"`
}

// writeError traduce errores de dominio a status y dto.ErrorResponse.
// El motivo de un rechazo de la SEFAZ viaja literal en Details.
func writeError(c *fiber.Ctx, err error) error {
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "AUTHORITY_REJECTED",
			Message: rej.Error(),
			Details: billing.RejectionDetails(err),
		})
	}
	var integ *domain.IntegrityError
	if errors.As(err, &integ) {
		numbers := integ.Numbers
		if numbers == nil {
			numbers = []int64{}
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INTEGRITY_VIOLATION",
			Message: integ.Error(),
			Details: IntegrityDetails{Rule: integ.Rule, Numbers: numbers, Count: max(integ.Count, len(numbers))},
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrTransient):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
