package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/application/dto"
)

// NFComHandler maneja las peticiones HTTP de NFCom (protegido).
type NFComHandler struct {
	lifecycle *billing.LifecycleUseCase
	documents *billing.DocumentsUseCase
	bulk      *billing.BulkEmissionUseCase
	deletion  *billing.DeletionUseCase
}

// NewNFComHandler construye el handler.
func NewNFComHandler(
	lifecycle *billing.LifecycleUseCase,
	documents *billing.DocumentsUseCase,
	bulk *billing.BulkEmissionUseCase,
	deletion *billing.DeletionUseCase,
) *NFComHandler {
	return &NFComHandler{lifecycle: lifecycle, documents: documents, bulk: bulk, deletion: deletion}
}

// List lista notas con filtros de fecha, estado y valor.
// GET /api/nfcom
func (h *NFComHandler) List(c *fiber.Ctx) error {
	var in dto.NFComListRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.documents.List(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID detalle de una nota.
// GET /api/nfcom/:id
func (h *NFComHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	out, err := h.documents.Get(c.UserContext(), GetSession(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create crea una nota con los contratos de un cliente; transmite si se pide.
// POST /api/nfcom
func (h *NFComHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateNFComRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.lifecycle.Create(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update edita ítems, faturas o fecha de una nota pendiente.
// PUT /api/nfcom/:id
func (h *NFComHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateNFComRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.lifecycle.Update(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Transmit envía una nota pendiente a la SEFAZ.
// POST /api/nfcom/:id/transmit
func (h *NFComHandler) Transmit(c *fiber.Ctx) error {
	out, err := h.lifecycle.Transmit(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Resend reintenta una nota rechazada.
// POST /api/nfcom/:id/resend
func (h *NFComHandler) Resend(c *fiber.Ctx) error {
	out, err := h.lifecycle.Resend(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel registra el cancelamiento de una nota autorizada.
// POST /api/nfcom/:id/cancel
func (h *NFComHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelNFComRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.lifecycle.Cancel(c.UserContext(), GetSession(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EmailStatus estado del e-mail de la nota.
// GET /api/nfcom/:id/email-status
func (h *NFComHandler) EmailStatus(c *fiber.Ctx) error {
	out, err := h.documents.EmailStatus(c.UserContext(), GetSession(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Download XML o DANFE; varias notas vienen en un zip.
// POST /api/nfcom/download
func (h *NFComHandler) Download(c *fiber.Ctx) error {
	var in dto.DownloadRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.sendDownload(c, in.NFComIDs, in.Format)
}

// DownloadOne XML o DANFE de una nota.
// GET /api/nfcom/:id/download?format=xml|danfe
func (h *NFComHandler) DownloadOne(c *fiber.Ctx) error {
	return h.sendDownload(c, []string{c.Params("id")}, c.Query("format"))
}

func (h *NFComHandler) sendDownload(c *fiber.Ctx, ids []string, format string) error {
	file, err := h.documents.Download(c.UserContext(), GetSession(c), ids, format)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+strings.ReplaceAll(file.FileName, `"`, "")+`"`)
	return c.Send(file.Content)
}

// BulkEmit emisión masiva desde contratos (dry run o ejecución).
// POST /api/nfcom/bulk-emit
func (h *NFComHandler) BulkEmit(c *fiber.Ctx) error {
	var in dto.BulkEmitRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.bulk.BulkEmit(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BulkTransmit transmisión masiva de notas pendientes.
// POST /api/nfcom/bulk-transmit
func (h *NFComHandler) BulkTransmit(c *fiber.Ctx) error {
	var in dto.BulkDocumentsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.bulk.BulkTransmit(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SendEmails envío masivo por e-mail.
// POST /api/nfcom/send-emails
func (h *NFComHandler) SendEmails(c *fiber.Ctx) error {
	var in dto.BulkDocumentsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.bulk.SendEmails(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// BulkDelete elimina la cola de pendientes. Todo o nada.
// POST /api/nfcom/bulk-delete
func (h *NFComHandler) BulkDelete(c *fiber.Ctx) error {
	var in dto.BulkDocumentsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.deletion.BulkDelete(c.UserContext(), GetSession(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
