package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/application/dto"
)

// ContractHandler vista de contratos para la emisión masiva (protegido).
type ContractHandler struct {
	uc *billing.ContractsUseCase
}

// NewContractHandler construye el handler.
func NewContractHandler(uc *billing.ContractsUseCase) *ContractHandler {
	return &ContractHandler{uc: uc}
}

// List busca contratos con elegibilidad, próximo vencimiento y selección.
// GET /api/contracts?q=&client_id=&selected=a,b&toggle_all=true
func (h *ContractHandler) List(c *fiber.Ctx) error {
	var in dto.ContractListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.uc.List(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
