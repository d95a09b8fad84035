package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
)

var (
	_ repository.ContractRepository = (*ContractRepository)(nil)
	_ repository.ServiceRepository  = (*ServiceRepository)(nil)
)

// ContractRepository contratos vía /contratos.
type ContractRepository struct{ c *Client }

// NewContractRepository construye el adaptador.
func NewContractRepository(c *Client) *ContractRepository { return &ContractRepository{c: c} }

// GetByID obtiene y normaliza un contrato.
func (r *ContractRepository) GetByID(ctx context.Context, sess entity.Session, id string) (*entity.Contract, error) {
	var w wireContract
	if err := r.c.doJSON(ctx, sess, http.MethodGet, "/contratos/"+url.PathEscape(id), nil, nil, &w); err != nil {
		return nil, err
	}
	c := normalizeContract(&w)
	if c.CompanyID == "" {
		c.CompanyID = sess.CompanyID
	}
	return c, nil
}

// Search búsqueda paginada por texto libre.
func (r *ContractRepository) Search(ctx context.Context, sess entity.Session, q repository.ContractQuery) (*repository.ContractPage, error) {
	query := url.Values{}
	query.Set("empresa_id", sess.CompanyID)
	if q.Search != "" {
		query.Set("q", q.Search)
	}
	if q.ClientID != "" {
		query.Set("cliente_id", q.ClientID)
	}
	query.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var page wirePage[wireContract]
	if err := r.c.doJSON(ctx, sess, http.MethodGet, "/contratos", query, nil, &page); err != nil {
		return nil, err
	}
	rows := page.rows()
	out := &repository.ContractPage{
		Items: make([]*entity.Contract, 0, len(rows)),
		Total: int(page.Total.Value),
		Page:  int(page.Page.Value),
		Limit: int(page.Limit.Value),
	}
	for i := range rows {
		c := normalizeContract(&rows[i])
		if c.CompanyID == "" {
			c.CompanyID = sess.CompanyID
		}
		out.Items = append(out.Items, c)
	}
	if !page.Total.Set {
		out.Total = len(out.Items)
	}
	return out, nil
}

// ServiceRepository servicios vía /servicos.
type ServiceRepository struct{ c *Client }

// NewServiceRepository construye el adaptador.
func NewServiceRepository(c *Client) *ServiceRepository { return &ServiceRepository{c: c} }

func (r *ServiceRepository) GetByID(ctx context.Context, sess entity.Session, id string) (*entity.Service, error) {
	var w wireService
	if err := r.c.doJSON(ctx, sess, http.MethodGet, "/servicos/"+url.PathEscape(id), nil, nil, &w); err != nil {
		return nil, err
	}
	return normalizeService(&w), nil
}
