package repository

import (
	"context"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// RejectionRecord rechazo de la SEFAZ asociado a una nota y a la acción que lo produjo.
type RejectionRecord struct {
	CompanyID string
	NFComID   string
	Number    int64
	Action    string // transmit | cancel
	Rejection entity.Rejection
}

// JournalRepository bitácora local de operaciones: manifiestos de lotes y rechazos.
// Es opcional; el estado autoritativo sigue en el back office.
type JournalRepository interface {
	SaveBatch(ctx context.Context, sess entity.Session, result *entity.BatchResult) error
	GetBatch(ctx context.Context, companyID, batchID string) (*entity.BatchResult, error)
	// RecordRejection guarda el rechazo una sola vez por contenido canónico.
	RecordRejection(ctx context.Context, rec RejectionRecord) error
	// LatestRejections último rechazo de transmisión por nota.
	LatestRejections(ctx context.Context, companyID string, nfcomIDs []string) (map[string]*entity.Rejection, error)
}
