package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
	catalog "github.com/jhoicas/nfcom-bff/pkg/nfcom"
)

const defaultUnit = "UN"

// Header campos de cabecera copiados del primer contrato del lote.
type Header struct {
	ClientID       string
	ContractNumber string
	ContractStart  *time.Time
	ContractEnd    *time.Time
}

// Composition ítems, faturas y cabecera resultantes de componer contratos de un cliente.
type Composition struct {
	Header      Header
	Items       []entity.LineItem
	Faturas     []entity.Fatura
	ContractIDs []string
	Total       decimal.Decimal
}

// Composer transforma contratos en ítems y faturas de la NFCom. No persiste nada.
type Composer struct {
	services repository.ServiceRepository
	series   string
	log      *logger.Logger
}

// NewComposer construye el compositor. series es la serie usada en los borradores.
func NewComposer(services repository.ServiceRepository, series string, log *logger.Logger) *Composer {
	if series == "" {
		series = catalog.DefaultSeries
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Composer{services: services, series: series, log: log.Component("composer")}
}

// Compose compone los contratos activos de un mismo cliente. Los inactivos se omiten.
// Un contrato sin cliente o sin servicio, o con fechas invertidas, falla con ErrInvalidInput.
func (c *Composer) Compose(ctx context.Context, sess entity.Session, contracts []*entity.Contract, ref time.Time) (*Composition, error) {
	active := make([]*entity.Contract, 0, len(contracts))
	for _, ct := range contracts {
		if ct != nil && ct.Active {
			active = append(active, ct)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: ningún contrato activo para componer", domain.ErrInvalidInput)
	}

	// ── 1. Validaciones previas a cualquier consulta ─────────────────────────
	clientID := active[0].ClientID
	for _, ct := range active {
		if err := nfcom.ValidateContract(ct); err != nil {
			return nil, err
		}
		if ct.ClientID == "" {
			return nil, fmt.Errorf("%w: contrato %s sin cliente", domain.ErrInvalidInput, ct.Number)
		}
		if ct.ServiceID == "" {
			return nil, fmt.Errorf("%w: contrato %s sin servicio", domain.ErrInvalidInput, ct.Number)
		}
		if ct.ClientID != clientID {
			return nil, fmt.Errorf("%w: contrato %s pertenece a otro cliente (%s)", domain.ErrInvalidInput, ct.Number, ct.ClientID)
		}
	}

	// ── 2. Cabecera: el primer contrato manda ───────────────────────────────
	first := active[0]
	comp := &Composition{
		Header: Header{
			ClientID:       clientID,
			ContractNumber: first.Number,
			ContractStart:  first.StartDate,
			ContractEnd:    first.EndDate,
		},
		Total: decimal.Zero,
	}

	// ── 3. Ítems y faturas, uno por contrato ─────────────────────────────────
	for _, ct := range active {
		svc := c.fallbackService(ctx, sess, ct)
		item := buildItem(ct, svc)
		comp.Items = append(comp.Items, item)
		comp.Faturas = append(comp.Faturas, buildFatura(ct, ref))
		comp.ContractIDs = append(comp.ContractIDs, ct.ID)
	}
	comp.Total = nfcom.DocumentTotal(comp.Items)
	return comp, nil
}

// Draft arma el payload de creación de la NFCom en estado pendiente.
func (c *Composer) Draft(comp *Composition, ref time.Time) *entity.NFCom {
	return &entity.NFCom{
		Series:         c.series,
		ClientID:       comp.Header.ClientID,
		IssueDate:      nfcom.DateOnly(ref),
		Items:          comp.Items,
		Faturas:        comp.Faturas,
		Total:          comp.Total,
		Status:         entity.NFComStatusPending,
		EmailStatus:    entity.EmailStatusUnknown,
		ContractNumber: comp.Header.ContractNumber,
		ContractStart:  comp.Header.ContractStart,
		ContractEnd:    comp.Header.ContractEnd,
		ContractIDs:    comp.ContractIDs,
	}
}

// fallbackService se consulta una sola vez y solo si falta un campo fiscal obligatorio.
// Un error no es fatal: se registra y se sigue sin defaults.
func (c *Composer) fallbackService(ctx context.Context, sess entity.Session, ct *entity.Contract) *entity.Service {
	if !ct.NeedsServiceFallback() || c.services == nil {
		return nil
	}
	svc, err := c.services.GetByID(ctx, sess, ct.ServiceID)
	if err != nil {
		c.log.Warn().Err(err).
			Str("company_id", sess.CompanyID).
			Str("contract_id", ct.ID).
			Str("service_id", ct.ServiceID).
			Msg("servicio de respaldo no disponible, se continúa sin defaults")
		return nil
	}
	return svc
}

func buildItem(ct *entity.Contract, svc *entity.Service) entity.LineItem {
	if svc == nil {
		svc = &entity.Service{}
	}
	t := ct.Tax
	item := entity.LineItem{
		ContractID:  ct.ID,
		ServiceID:   ct.ServiceID,
		ClassCode:   strOr(t.ClassCode, svc.ClassCode),
		Description: firstText(ct.Description, svc.Description, "Contrato "+ct.Number),
		Unit:        firstText(svc.Unit, defaultUnit),
		Quantity:    ct.Quantity,
		UnitValue:   ct.UnitPrice,
		Discount:    decOr(t.Discount, svc.Discount),
		Other:       decOr(t.Other, svc.Other),
		CFOP:        strOr(t.CFOP, svc.CFOP),
		NCM:         strOr(t.NCM, svc.NCM),
		ICMSBase:    decOr(t.ICMSBase, svc.ICMSBase),
		ICMSRate:    decOr(t.ICMSRate, svc.ICMSRate),
		PISBase:     decOr(t.PISBase, svc.PISBase),
		PISRate:     decOr(t.PISRate, svc.PISRate),
		COFINSBase:  decOr(t.COFINSBase, svc.COFINSBase),
		COFINSRate:  decOr(t.COFINSRate, svc.COFINSRate),
	}
	item.Total = nfcom.LineTotal(item.Quantity, item.UnitValue, item.Discount, item.Other)
	return item
}

// buildFatura monto: total guardado del contrato, si no cantidad*valor unitario.
func buildFatura(ct *entity.Contract, ref time.Time) entity.Fatura {
	amount := ct.Quantity.Mul(ct.UnitPrice).Round(2)
	if ct.StoredTotal != nil {
		amount = ct.StoredTotal.Round(2)
	}
	return entity.Fatura{
		ContractID: ct.ID,
		Number:     firstText(ct.Number, ct.ID),
		DueDate:    nfcom.ResolveDueDate(ct, ref),
		Amount:     amount,
	}
}

func strOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

func decOr(p *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if p != nil {
		return *p
	}
	return fallback
}

func firstText(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
