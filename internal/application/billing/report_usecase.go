package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
)

// Formatos del reporte de lote.
const (
	ReportFormatXLSX = "xlsx"
	ReportFormatPDF  = "pdf"
)

// ReportUseCase genera el reporte de un lote registrado en la bitácora.
// Requiere la bitácora habilitada.
type ReportUseCase struct {
	journal    repository.JournalRepository
	generators map[string]BatchReportGenerator
	clock      Clock
}

// NewReportUseCase construye el caso de uso. generators indexa por formato
// (ReportFormatXLSX, ReportFormatPDF).
func NewReportUseCase(journal repository.JournalRepository, generators map[string]BatchReportGenerator, clock Clock) *ReportUseCase {
	return &ReportUseCase{journal: journal, generators: generators, clock: clock}
}

// BatchReport recupera el manifiesto del lote y lo renderiza.
//
// Retorna:
//   - (bytes, filename, contentType, nil) si todo sale bien.
//   - domain.ErrNotFound      si el lote no existe para la empresa.
//   - domain.ErrInvalidInput  si el formato no es soportado.
//   - domain.ErrConflict      si la bitácora está deshabilitada.
func (uc *ReportUseCase) BatchReport(ctx context.Context, sess entity.Session, batchID, format string) (content []byte, filename, contentType string, err error) {
	if !sess.Valid() {
		return nil, "", "", domain.ErrUnauthorized
	}
	// ── 1. Formato ────────────────────────────────────────────────────────────
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ReportFormatXLSX
	}
	gen, ok := uc.generators[format]
	if !ok {
		return nil, "", "", fmt.Errorf("%w: formato de reporte %q no soportado", domain.ErrInvalidInput, format)
	}
	if uc.journal == nil {
		return nil, "", "", fmt.Errorf("%w: la bitácora de operaciones está deshabilitada", domain.ErrConflict)
	}

	// ── 2. Cargar lote ────────────────────────────────────────────────────────
	batch, err := uc.journal.GetBatch(ctx, sess.CompanyID, batchID)
	if err != nil {
		return nil, "", "", fmt.Errorf("reporte: obtener lote: %w", err)
	}
	if batch == nil {
		return nil, "", "", domain.ErrNotFound
	}

	// ── 3. Generar ────────────────────────────────────────────────────────────
	content, err = gen.GenerateBatchReport(ctx, batch, BatchReportMeta{
		CompanyID:   sess.CompanyID,
		GeneratedAt: uc.clock.now(),
		GeneratedBy: sess.UserID,
	})
	if err != nil {
		return nil, "", "", fmt.Errorf("reporte: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("lote_%s_%s.%s", batch.Action, shortID(batch.ID), gen.Extension())
	return content, filename, gen.ContentType(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
