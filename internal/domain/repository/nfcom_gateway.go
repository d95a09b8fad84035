package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// NFComFilter filtros del listado de notas.
type NFComFilter struct {
	From     *time.Time
	To       *time.Time
	Status   string
	MinTotal *decimal.Decimal
	MaxTotal *decimal.Decimal
	Search   string
	Page     int
	Limit    int
}

// TotalUnknown marca una página cuyo total no informó el back office.
const TotalUnknown = -1

// NFComPage página de notas. Total puede ser TotalUnknown.
type NFComPage struct {
	Items []*entity.NFCom
	Total int
	Page  int
	Limit int
}

// Download archivo descargado del back office (XML, DANFE o zip).
type Download struct {
	FileName    string
	ContentType string
	Content     []byte
}

// NFComGateway puerto hacia el servicio de documentos fiscales del back office.
// La numeración, la firma, el transporte a la SEFAZ y el DANFE viven del otro lado.
//
// Errores esperados: domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidInput,
// y domain.ErrTransient (red, timeout, 5xx). En Transmit y Cancel un rechazo de la
// SEFAZ no es error: vuelve como AuthorityResponse con Accepted=false.
type NFComGateway interface {
	Create(ctx context.Context, sess entity.Session, doc *entity.NFCom) (*entity.NFCom, error)
	Update(ctx context.Context, sess entity.Session, doc *entity.NFCom) (*entity.NFCom, error)
	Get(ctx context.Context, sess entity.Session, id string) (*entity.NFCom, error)
	Delete(ctx context.Context, sess entity.Session, id string) error
	List(ctx context.Context, sess entity.Session, f NFComFilter) (*NFComPage, error)

	Transmit(ctx context.Context, sess entity.Session, id string) (*entity.AuthorityResponse, error)
	Cancel(ctx context.Context, sess entity.Session, id, protocol, justification string) (*entity.AuthorityResponse, error)

	BulkTransmit(ctx context.Context, sess entity.Session, ids []string) (*entity.BatchResult, error)
	SendEmails(ctx context.Context, sess entity.Session, ids []string) (*entity.BatchResult, error)
	EmailStatus(ctx context.Context, sess entity.Session, id string) (string, error)
	Download(ctx context.Context, sess entity.Session, ids []string, format string) (*Download, error)
}
