package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

// maxListPages corta el recorrido si el back office pagina de forma inconsistente.
// Llegar al corte es un error: el guard nunca corre sobre un universo parcial.
const maxListPages = 1000

// DeletionUseCase exclusión masiva de notas respetando la continuidad de la numeración.
type DeletionUseCase struct {
	gateway  repository.NFComGateway
	guard    *BatchGuard
	pageSize int
	log      *logger.Logger
}

// NewDeletionUseCase construye el caso de uso.
func NewDeletionUseCase(gateway repository.NFComGateway, guard *BatchGuard, pageSize int, log *logger.Logger) *DeletionUseCase {
	if guard == nil {
		guard = NewBatchGuard()
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DeletionUseCase{gateway: gateway, guard: guard, pageSize: pageSize, log: log.Component("deletion")}
}

// BulkDelete valida la selección contra todas las notas de la empresa y elimina de
// mayor a menor número. Si el guard falla no se envía ningún request.
// Una falla a mitad de camino deja un rango final válido: lo ya eliminado es la cola.
func (uc *DeletionUseCase) BulkDelete(ctx context.Context, sess entity.Session, in dto.BulkDocumentsRequest) (*dto.BulkDeleteResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	ids := nfcom.UniqueIDs(in.NFComIDs)
	if len(ids) == 0 {
		return nil, nfcom.CanBulkDelete(nil, nil)
	}

	// ── 1. Universo de notas de la empresa ───────────────────────────────────
	all, err := uc.listAll(ctx, sess)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.NFCom, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	selected := make([]*entity.NFCom, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: NFCom %s", domain.ErrNotFound, id)
		}
		selected = append(selected, d)
	}

	// ── 2. Guard de secuencia ────────────────────────────────────────────────
	if err := nfcom.CanBulkDelete(selected, all); err != nil {
		uc.log.Info().Err(err).Str("company_id", sess.CompanyID).Msg("exclusión rechazada por integridad")
		return nil, err
	}
	release, err := uc.guard.Acquire(sess.CompanyID, entity.BatchActionDelete, ids)
	if err != nil {
		return nil, err
	}
	defer release()

	// ── 3. Exclusión descendente ─────────────────────────────────────────────
	out := &dto.BulkDeleteResponse{Numbers: []int64{}, IDs: []string{}}
	for _, d := range nfcom.DeletionOrder(selected) {
		if err := ctx.Err(); err != nil {
			return nil, uc.interrupted(d, out.Numbers, fmt.Errorf("%w: %v", domain.ErrTransient, err))
		}
		if err := uc.gateway.Delete(ctx, sess, d.ID); err != nil {
			return nil, uc.interrupted(d, out.Numbers, err)
		}
		out.Numbers = append(out.Numbers, d.Number)
		out.IDs = append(out.IDs, d.ID)
	}
	uc.log.Info().Str("company_id", sess.CompanyID).Int("deleted", len(out.Numbers)).Msg("exclusión masiva completada")
	return out, nil
}

func (uc *DeletionUseCase) interrupted(at *entity.NFCom, done []int64, err error) error {
	parts := make([]string, 0, len(done))
	for _, n := range done {
		parts = append(parts, strconv.FormatInt(n, 10))
	}
	uc.log.Warn().Err(err).Int64("numero", at.Number).Msg("exclusión interrumpida")
	if len(parts) == 0 {
		return fmt.Errorf("exclusión interrumpida en la NFCom %d: %w", at.Number, err)
	}
	return fmt.Errorf("exclusión interrumpida en la NFCom %d (ya eliminadas: %s): %w",
		at.Number, strings.Join(parts, ", "), err)
}

// listAll recorre todas las páginas del listado. Sin total informado, termina con
// una página corta o vacía. Una página que no trae ids nuevos indica que el back
// office ignora la paginación.
func (uc *DeletionUseCase) listAll(ctx context.Context, sess entity.Session) ([]*entity.NFCom, error) {
	var all []*entity.NFCom
	seen := make(map[string]bool)
	for page := 1; page <= maxListPages; page++ {
		p, err := uc.gateway.List(ctx, sess, repository.NFComFilter{Page: page, Limit: uc.pageSize})
		if err != nil {
			return nil, fmt.Errorf("listar notas (página %d): %w", page, err)
		}
		fresh := 0
		for _, d := range p.Items {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			all = append(all, d)
			fresh++
		}
		if len(p.Items) == 0 || len(p.Items) < uc.pageSize {
			return all, nil
		}
		if p.Total != repository.TotalUnknown && len(all) >= p.Total {
			return all, nil
		}
		if fresh == 0 {
			return nil, fmt.Errorf("%w: el listado de notas repite la página %d", domain.ErrTransient, page)
		}
	}
	return nil, fmt.Errorf("%w: el listado de notas supera %d páginas", domain.ErrTransient, maxListPages)
}
