package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
)

// BatchHandler reportes de lotes registrados en la bitácora.
type BatchHandler struct {
	report *billing.ReportUseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(report *billing.ReportUseCase) *BatchHandler {
	return &BatchHandler{report: report}
}

// Report descarga el reporte de un lote.
// GET /api/batches/:id/report?format=xlsx|pdf
func (h *BatchHandler) Report(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	content, filename, contentType, err := h.report.BatchReport(c.UserContext(), GetSession(c), c.Params("id"), c.Query("format"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}
