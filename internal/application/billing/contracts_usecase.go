package billing

import (
	"context"
	"strings"

	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
)

// ContractsUseCase vista de contratos para la emisión masiva.
type ContractsUseCase struct {
	contracts repository.ContractRepository
	pageSize  int
	clock     Clock
}

// NewContractsUseCase construye el caso de uso.
func NewContractsUseCase(contracts repository.ContractRepository, pageSize int, clock Clock) *ContractsUseCase {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ContractsUseCase{contracts: contracts, pageSize: pageSize, clock: clock}
}

// List busca contratos y marca vencidos, elegibles y seleccionados. SelectAll se
// calcula solo sobre los elegibles de la página; ToggleAll aplica el clic en
// "seleccionar todo" antes de calcularlo.
func (uc *ContractsUseCase) List(ctx context.Context, sess entity.Session, in dto.ContractListRequest) (*dto.ContractListResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	in.DefaultPage(uc.pageSize)
	page, err := uc.contracts.Search(ctx, sess, repository.ContractQuery{
		Search:   strings.TrimSpace(in.Search),
		ClientID: in.ClientID,
		Page:     in.Page,
		Limit:    in.Limit,
	})
	if err != nil {
		return nil, err
	}

	today := uc.clock.now()
	selected := splitIDs(in.Selected)
	if in.ToggleAll {
		selected = nfcom.ToggleSelectAll(page.Items, selected, today)
	}
	set := make(map[string]bool, len(selected))
	for _, id := range selected {
		set[id] = true
	}

	out := &dto.ContractListResponse{
		Items:     make([]dto.ContractResponse, 0, len(page.Items)),
		Page:      dto.PageResponse{Page: in.Page, Limit: in.Limit, Total: page.Total},
		SelectAll: string(nfcom.SelectAllState(page.Items, selected, today)),
		Selection: selected,
	}
	if out.Selection == nil {
		out.Selection = []string{}
	}
	for _, c := range page.Items {
		out.Items = append(out.Items, toContractResponse(c, today, set[c.ID]))
	}
	return out, nil
}

func splitIDs(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return nfcom.UniqueIDs(parts)
}
