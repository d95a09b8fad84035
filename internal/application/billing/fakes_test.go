package billing_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var testSess = entity.Session{CompanyID: "emp-1", UserID: "u-1", Role: "faturista", Token: "tok"}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

// fullContract contrato activo con todos los campos fiscales informados.
func fullContract(id string) *entity.Contract {
	emission := 10
	return &entity.Contract{
		ID:          id,
		CompanyID:   "emp-1",
		Number:      "CT-" + id,
		ClientID:    "cli-1",
		ServiceID:   "svc-1",
		Description: "Internet 300MB",
		Quantity:    dec("3"),
		UnitPrice:   dec("10.00"),
		EmissionDay: &emission,
		Active:      true,
		Status:      "ATIVO",
		Tax: entity.TaxFields{
			CFOP:     strPtr("5307"),
			ICMSBase: decPtr("30.00"),
			ICMSRate: decPtr("18"),
			Discount: decPtr("2.00"),
			Other:    decPtr("1.00"),
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Contratos y servicios
// ──────────────────────────────────────────────────────────────────────────────

type fakeContracts struct {
	byID  map[string]*entity.Contract
	errOn map[string]error
}

func newFakeContracts(cs ...*entity.Contract) *fakeContracts {
	f := &fakeContracts{byID: map[string]*entity.Contract{}, errOn: map[string]error{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeContracts) GetByID(_ context.Context, _ entity.Session, id string) (*entity.Contract, error) {
	if err := f.errOn[id]; err != nil {
		return nil, err
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: contrato %s", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContracts) Search(_ context.Context, _ entity.Session, q repository.ContractQuery) (*repository.ContractPage, error) {
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	page := &repository.ContractPage{Page: q.Page, Limit: q.Limit, Total: len(ids)}
	for _, id := range ids {
		page.Items = append(page.Items, f.byID[id])
	}
	return page, nil
}

type fakeServices struct {
	svc   *entity.Service
	err   error
	calls int
}

func (f *fakeServices) GetByID(_ context.Context, _ entity.Session, _ string) (*entity.Service, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.svc, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Gateway de notas
// ──────────────────────────────────────────────────────────────────────────────

type fakeGateway struct {
	mu       sync.Mutex
	docs     map[string]*entity.NFCom
	next     int64
	created  []*entity.NFCom
	deleted  []string
	updated  []*entity.NFCom
	canceled []string

	createErr    error
	transmitResp *entity.AuthorityResponse
	transmitErr  error
	cancelResp   *entity.AuthorityResponse
	deleteErrOn  map[string]error
	bulkResp     *entity.BatchResult
	bulkErr      error
	bulkSent     []string
	transmits    int

	// paginación del listado
	unknownTotal bool // no informa total
	ignorePage   bool // siempre devuelve la primera página
}

func newFakeGateway(docs ...*entity.NFCom) *fakeGateway {
	g := &fakeGateway{docs: map[string]*entity.NFCom{}, next: 100, deleteErrOn: map[string]error{}}
	for _, d := range docs {
		g.docs[d.ID] = d
	}
	return g
}

func (g *fakeGateway) Create(_ context.Context, _ entity.Session, doc *entity.NFCom) (*entity.NFCom, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.next++
	cp := *doc
	cp.ID = fmt.Sprintf("nf-%d", g.next)
	cp.Number = g.next
	cp.Status = entity.NFComStatusPending
	g.docs[cp.ID] = &cp
	g.created = append(g.created, &cp)
	out := cp
	return &out, nil
}

func (g *fakeGateway) Update(_ context.Context, _ entity.Session, doc *entity.NFCom) (*entity.NFCom, error) {
	cp := *doc
	g.updated = append(g.updated, &cp)
	return &cp, nil
}

func (g *fakeGateway) Get(_ context.Context, _ entity.Session, id string) (*entity.NFCom, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: NFCom %s", domain.ErrNotFound, id)
	}
	cp := *d
	return &cp, nil
}

func (g *fakeGateway) Delete(_ context.Context, _ entity.Session, id string) error {
	if err := g.deleteErrOn[id]; err != nil {
		return err
	}
	g.deleted = append(g.deleted, id)
	delete(g.docs, id)
	return nil
}

func (g *fakeGateway) List(_ context.Context, _ entity.Session, f repository.NFComFilter) (*repository.NFComPage, error) {
	ids := make([]string, 0, len(g.docs))
	for id := range g.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var all []*entity.NFCom
	for _, id := range ids {
		d := g.docs[id]
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		cp := *d
		all = append(all, &cp)
	}
	start := (f.Page - 1) * f.Limit
	if g.ignorePage {
		start = 0
	}
	if start > len(all) {
		start = len(all)
	}
	end := min(start+f.Limit, len(all))
	total := len(all)
	if g.unknownTotal {
		total = repository.TotalUnknown
	}
	return &repository.NFComPage{Items: all[start:end], Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (g *fakeGateway) Transmit(_ context.Context, _ entity.Session, _ string) (*entity.AuthorityResponse, error) {
	g.transmits++
	if g.transmitErr != nil {
		return nil, g.transmitErr
	}
	return g.transmitResp, nil
}

func (g *fakeGateway) Cancel(_ context.Context, _ entity.Session, id, _, _ string) (*entity.AuthorityResponse, error) {
	g.canceled = append(g.canceled, id)
	return g.cancelResp, nil
}

func (g *fakeGateway) BulkTransmit(_ context.Context, _ entity.Session, ids []string) (*entity.BatchResult, error) {
	return g.bulk(ids)
}

func (g *fakeGateway) SendEmails(_ context.Context, _ entity.Session, ids []string) (*entity.BatchResult, error) {
	return g.bulk(ids)
}

func (g *fakeGateway) bulk(ids []string) (*entity.BatchResult, error) {
	g.bulkSent = append([]string(nil), ids...)
	if g.bulkErr != nil {
		return nil, g.bulkErr
	}
	if g.bulkResp != nil {
		return g.bulkResp, nil
	}
	res := &entity.BatchResult{}
	for _, id := range ids {
		res.AddSuccess(entity.BatchSuccess{NFComID: id})
	}
	return res, nil
}

func (g *fakeGateway) EmailStatus(_ context.Context, _ entity.Session, _ string) (string, error) {
	return entity.EmailStatusSent, nil
}

func (g *fakeGateway) Download(_ context.Context, _ entity.Session, ids []string, format string) (*repository.Download, error) {
	return &repository.Download{FileName: fmt.Sprintf("%d.%s", len(ids), format), Content: []byte("x")}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Bitácora
// ──────────────────────────────────────────────────────────────────────────────

type fakeJournal struct {
	batches    map[string]*entity.BatchResult
	rejections []repository.RejectionRecord
	latest     map[string]*entity.Rejection
	saveErr    error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{batches: map[string]*entity.BatchResult{}, latest: map[string]*entity.Rejection{}}
}

func (j *fakeJournal) SaveBatch(_ context.Context, _ entity.Session, r *entity.BatchResult) error {
	if j.saveErr != nil {
		return j.saveErr
	}
	j.batches[r.ID] = r
	return nil
}

func (j *fakeJournal) GetBatch(_ context.Context, _ string, id string) (*entity.BatchResult, error) {
	b, ok := j.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (j *fakeJournal) RecordRejection(_ context.Context, rec repository.RejectionRecord) error {
	j.rejections = append(j.rejections, rec)
	return nil
}

func (j *fakeJournal) LatestRejections(_ context.Context, _ string, ids []string) (map[string]*entity.Rejection, error) {
	out := map[string]*entity.Rejection{}
	for _, id := range ids {
		if r, ok := j.latest[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// pendingDoc, authorizedDoc y cancelledDoc construyen notas de prueba.
func pendingDoc(id string, n int64) *entity.NFCom {
	return &entity.NFCom{ID: id, Number: n, Series: "1", Status: entity.NFComStatusPending, Total: dec("29.00")}
}

func authorizedDoc(id string, n int64) *entity.NFCom {
	d := pendingDoc(id, n)
	d.Status = entity.NFComStatusAuthorized
	d.Protocol = strPtr(fmt.Sprintf("3432400000%05d", n))
	return d
}

func cancelledDoc(id string, n int64) *entity.NFCom {
	d := authorizedDoc(id, n)
	d.Status = entity.NFComStatusCancelled
	return d
}
