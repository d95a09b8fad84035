package repository

import (
	"context"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// ContractQuery filtros de búsqueda paginada de contratos.
type ContractQuery struct {
	Search   string
	ClientID string
	Page     int
	Limit    int
}

// ContractPage página de contratos ya normalizados.
type ContractPage struct {
	Items []*entity.Contract
	Total int
	Page  int
	Limit int
}

// ContractRepository puerto de lectura de contratos del back office.
// Las implementaciones entregan siempre la forma canónica de entity.Contract.
type ContractRepository interface {
	GetByID(ctx context.Context, sess entity.Session, id string) (*entity.Contract, error)
	Search(ctx context.Context, sess entity.Session, q ContractQuery) (*ContractPage, error)
}

// ServiceRepository puerto de lectura de servicios (defaults fiscales).
type ServiceRepository interface {
	GetByID(ctx context.Context, sess entity.Session, id string) (*entity.Service, error)
}
