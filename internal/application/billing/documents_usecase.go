package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
	catalog "github.com/jhoicas/nfcom-bff/pkg/nfcom"
)

// DocumentsUseCase consultas sobre notas: detalle, listado, estado de e-mail y descargas.
// Completa el estado de vista "rejected" con la bitácora cuando el back office no
// trae el rechazo.
type DocumentsUseCase struct {
	gateway  repository.NFComGateway
	journal  repository.JournalRepository
	pageSize int
	log      *logger.Logger
}

// NewDocumentsUseCase construye el caso de uso. journal puede ser nil.
func NewDocumentsUseCase(gateway repository.NFComGateway, journal repository.JournalRepository, pageSize int, log *logger.Logger) *DocumentsUseCase {
	if pageSize <= 0 {
		pageSize = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentsUseCase{gateway: gateway, journal: journal, pageSize: pageSize, log: log.Component("documents")}
}

// Get detalle de una nota.
func (uc *DocumentsUseCase) Get(ctx context.Context, sess entity.Session, id string) (*dto.NFComResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	doc, err := uc.gateway.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	uc.attachRejections(ctx, sess, []*entity.NFCom{doc})
	out := toNFComResponse(doc)
	return &out, nil
}

// List listado paginado con filtros. status=rejected se consulta como pending y se
// filtra localmente, por lo que Total refleja las pendientes de la página.
func (uc *DocumentsUseCase) List(ctx context.Context, sess entity.Session, in dto.NFComListRequest) (*dto.NFComListResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	f, onlyRejected, err := uc.filter(in)
	if err != nil {
		return nil, err
	}
	page, err := uc.gateway.List(ctx, sess, f)
	if err != nil {
		return nil, err
	}
	uc.attachRejections(ctx, sess, page.Items)

	out := &dto.NFComListResponse{
		Items: make([]dto.NFComResponse, 0, len(page.Items)),
		Page:  dto.PageResponse{Page: f.Page, Limit: f.Limit, Total: viewTotal(page, f)},
	}
	for _, doc := range page.Items {
		if onlyRejected && nfcom.ViewStatus(doc) != entity.NFComStatusRejected {
			continue
		}
		out.Items = append(out.Items, toNFComResponse(doc))
	}
	return out, nil
}

// viewTotal sin total informado devuelve lo visto hasta esta página.
func viewTotal(page *repository.NFComPage, f repository.NFComFilter) int {
	if page.Total != repository.TotalUnknown {
		return page.Total
	}
	return (max(f.Page, 1)-1)*f.Limit + len(page.Items)
}

func (uc *DocumentsUseCase) filter(in dto.NFComListRequest) (repository.NFComFilter, bool, error) {
	in.DefaultPage(uc.pageSize)
	f := repository.NFComFilter{Search: strings.TrimSpace(in.Search), Page: in.Page, Limit: in.Limit}

	var ok bool
	if f.From, ok = parseDate(in.From); !ok {
		return f, false, fmt.Errorf("%w: from debe ser YYYY-MM-DD", domain.ErrInvalidInput)
	}
	if f.To, ok = parseDate(in.To); !ok {
		return f, false, fmt.Errorf("%w: to debe ser YYYY-MM-DD", domain.ErrInvalidInput)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, false, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	if f.MinTotal, ok = parseDecimal(in.MinTotal); !ok {
		return f, false, fmt.Errorf("%w: min_total no numérico", domain.ErrInvalidInput)
	}
	if f.MaxTotal, ok = parseDecimal(in.MaxTotal); !ok {
		return f, false, fmt.Errorf("%w: max_total no numérico", domain.ErrInvalidInput)
	}
	if f.MinTotal != nil && f.MaxTotal != nil && f.MaxTotal.LessThan(*f.MinTotal) {
		return f, false, fmt.Errorf("%w: rango de valores invertido", domain.ErrInvalidInput)
	}

	onlyRejected := false
	switch status := strings.ToLower(strings.TrimSpace(in.Status)); status {
	case "":
	case entity.NFComStatusPending, entity.NFComStatusAuthorized, entity.NFComStatusCancelled:
		f.Status = status
	case entity.NFComStatusRejected:
		f.Status = entity.NFComStatusPending
		onlyRejected = true
	default:
		return f, false, fmt.Errorf("%w: estado %q desconocido", domain.ErrInvalidInput, in.Status)
	}
	return f, onlyRejected, nil
}

// EmailStatus estado del envío de e-mail de una nota.
func (uc *DocumentsUseCase) EmailStatus(ctx context.Context, sess entity.Session, id string) (*dto.EmailStatusResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	st, err := uc.gateway.EmailStatus(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return &dto.EmailStatusResponse{ID: id, EmailStatus: st}, nil
}

// Download XML o DANFE de una nota, o zip de varias.
func (uc *DocumentsUseCase) Download(ctx context.Context, sess entity.Session, ids []string, format string) (*repository.Download, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != catalog.DownloadXML && format != catalog.DownloadDANFE {
		return nil, fmt.Errorf("%w: formato debe ser xml o danfe", domain.ErrInvalidInput)
	}
	ids = nfcom.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: seleccione al menos una NFCom", domain.ErrInvalidInput)
	}
	return uc.gateway.Download(ctx, sess, ids, format)
}

// attachRejections completa el rechazo de pendientes que el back office devolvió sin él.
// Un error de la bitácora solo se registra.
func (uc *DocumentsUseCase) attachRejections(ctx context.Context, sess entity.Session, docs []*entity.NFCom) {
	if uc.journal == nil {
		return
	}
	var ids []string
	for _, d := range docs {
		if d.Status == entity.NFComStatusPending && d.Rejection == nil {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	found, err := uc.journal.LatestRejections(ctx, sess.CompanyID, ids)
	if err != nil {
		uc.log.Warn().Err(err).Str("company_id", sess.CompanyID).Msg("bitácora: no se pudieron leer rechazos")
		return
	}
	for _, d := range docs {
		if rej, ok := found[d.ID]; ok && d.Status == entity.NFComStatusPending && d.Rejection == nil {
			d.Rejection = rej
		}
	}
}
