package billing

import (
	"context"
	"time"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// Clock fuente de "hoy". Los casos de uso nunca llaman time.Now directamente.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// BatchReportMeta datos de cabecera del reporte de un lote.
type BatchReportMeta struct {
	CompanyID   string
	GeneratedAt time.Time
	GeneratedBy string
}

// BatchReportGenerator genera la representación de un lote registrado en la bitácora
// (XLSX o PDF). Implementaciones: infrastructure/excel e infrastructure/pdf.
type BatchReportGenerator interface {
	GenerateBatchReport(ctx context.Context, batch *entity.BatchResult, meta BatchReportMeta) ([]byte, error)
	ContentType() string
	Extension() string
}
