package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Contracts *billing.ContractsUseCase
	Lifecycle *billing.LifecycleUseCase
	Documents *billing.DocumentsUseCase
	Bulk      *billing.BulkEmissionUseCase
	Deletion  *billing.DeletionUseCase
	Reports   *billing.ReportUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
//
// Lectura: todos los roles. Emisión, transmisión, cancelamiento y e-mail: admin y
// faturista. Eliminación masiva: solo admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	read := RequireRole(jwt.RoleAdmin, jwt.RoleBilling, jwt.RoleReadOnly)
	write := RequireRole(jwt.RoleAdmin, jwt.RoleBilling)
	admin := RequireRole(jwt.RoleAdmin)

	// Contracts
	contractHandler := NewContractHandler(deps.Contracts)
	api.Get("/contracts", read, contractHandler.List)

	// NFCom: rutas fijas antes de /:id
	nfcomHandler := NewNFComHandler(deps.Lifecycle, deps.Documents, deps.Bulk, deps.Deletion)
	docs := api.Group("/nfcom")
	docs.Post("/bulk-emit", write, nfcomHandler.BulkEmit)
	docs.Post("/bulk-transmit", write, nfcomHandler.BulkTransmit)
	docs.Post("/send-emails", write, nfcomHandler.SendEmails)
	docs.Post("/bulk-delete", admin, nfcomHandler.BulkDelete)
	docs.Post("/download", read, nfcomHandler.Download)
	docs.Get("/", read, nfcomHandler.List)
	docs.Post("/", write, nfcomHandler.Create)
	docs.Get("/:id", read, nfcomHandler.GetByID)
	docs.Put("/:id", write, nfcomHandler.Update)
	docs.Get("/:id/email-status", read, nfcomHandler.EmailStatus)
	docs.Get("/:id/download", read, nfcomHandler.DownloadOne)
	docs.Post("/:id/transmit", write, nfcomHandler.Transmit)
	docs.Post("/:id/resend", write, nfcomHandler.Resend)
	docs.Post("/:id/cancel", write, nfcomHandler.Cancel)

	// Batch reports (bitácora)
	batchHandler := NewBatchHandler(deps.Reports)
	api.Get("/batches/:id/report", read, batchHandler.Report)
}
