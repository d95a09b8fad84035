package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

// LifecycleUseCase transiciones de una nota individual: crear desde contratos,
// transmitir, reenviar tras rechazo, cancelar y editar.
//
// Un rechazo de la SEFAZ vuelve como *domain.RejectionError con el motivo literal;
// nunca se reintenta automáticamente.
type LifecycleUseCase struct {
	contracts repository.ContractRepository
	gateway   repository.NFComGateway
	composer  *Composer
	journal   repository.JournalRepository
	clock     Clock
	log       *logger.Logger
}

// NewLifecycleUseCase construye el caso de uso. journal puede ser nil.
func NewLifecycleUseCase(
	contracts repository.ContractRepository,
	gateway repository.NFComGateway,
	composer *Composer,
	journal repository.JournalRepository,
	clock Clock,
	log *logger.Logger,
) *LifecycleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LifecycleUseCase{
		contracts: contracts,
		gateway:   gateway,
		composer:  composer,
		journal:   journal,
		clock:     clock,
		log:       log.Component("lifecycle"),
	}
}

// Create compone una nota con los contratos de un mismo cliente y la crea pendiente.
// Con Transmit la envía enseguida. Si la transmisión no se completa la nota ya
// existe: se devuelve igual, con el rechazo o con un aviso, para que el reintento
// sea un Resend y no otra creación.
func (uc *LifecycleUseCase) Create(ctx context.Context, sess entity.Session, in dto.CreateNFComRequest) (*dto.NFComResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	ids := nfcom.UniqueIDs(in.ContractIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: seleccione al menos un contrato", domain.ErrInvalidInput)
	}
	today := uc.clock.now()
	ref := today
	if in.ReferenceDate != "" {
		t, ok := parseDate(in.ReferenceDate)
		if !ok {
			return nil, fmt.Errorf("%w: reference_date debe ser YYYY-MM-DD", domain.ErrInvalidInput)
		}
		ref = *t
	}

	// ── 1. Contratos elegibles ───────────────────────────────────────────────
	contracts := make([]*entity.Contract, 0, len(ids))
	for _, id := range ids {
		ct, err := uc.contracts.GetByID(ctx, sess, id)
		if err != nil {
			return nil, fmt.Errorf("obtener contrato %s: %w", id, err)
		}
		if !nfcom.IsEligibleForEmission(ct, today) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, nfcom.IneligibilityReason(ct, today))
		}
		contracts = append(contracts, ct)
	}

	// ── 2. Composición y creación ────────────────────────────────────────────
	comp, err := uc.composer.Compose(ctx, sess, contracts, ref)
	if err != nil {
		return nil, err
	}
	created, err := uc.gateway.Create(ctx, sess, uc.composer.Draft(comp, ref))
	if err != nil {
		return nil, fmt.Errorf("crear NFCom: %w", err)
	}
	uc.log.Info().Str("company_id", sess.CompanyID).Str("nfcom_id", created.ID).Int64("numero", created.Number).Msg("NFCom creada")

	if !in.Transmit {
		out := toNFComResponse(created)
		return &out, nil
	}
	res, err := uc.transmit(ctx, sess, created, "transmit")
	if err == nil {
		return &res.NFCom, nil
	}
	out := toNFComResponse(created)
	var rej *domain.RejectionError
	if !errors.As(err, &rej) {
		out.Warning = "NFCom creada; transmisión pendiente: " + err.Error()
	}
	return &out, nil
}

// Transmit envía una nota pendiente a la SEFAZ.
func (uc *LifecycleUseCase) Transmit(ctx context.Context, sess entity.Session, id string) (*dto.AuthorityResultResponse, error) {
	return uc.load(ctx, sess, id, "transmit")
}

// Resend reintenta la transmisión de una nota rechazada. La SEFAZ detecta duplicados,
// así que repetirlo es seguro.
func (uc *LifecycleUseCase) Resend(ctx context.Context, sess entity.Session, id string) (*dto.AuthorityResultResponse, error) {
	return uc.load(ctx, sess, id, "resend")
}

func (uc *LifecycleUseCase) load(ctx context.Context, sess entity.Session, id, action string) (*dto.AuthorityResultResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	doc, err := uc.gateway.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return uc.transmit(ctx, sess, doc, action)
}

func (uc *LifecycleUseCase) transmit(ctx context.Context, sess entity.Session, doc *entity.NFCom, action string) (*dto.AuthorityResultResponse, error) {
	if err := nfcom.CanTransmit(doc); err != nil {
		return nil, err
	}
	res, err := uc.gateway.Transmit(ctx, sess, doc.ID)
	if err != nil {
		uc.log.Warn().Err(err).Str("nfcom_id", doc.ID).Str("action", action).Msg("transmisión fallida")
		return nil, err
	}
	if err := nfcom.ApplyTransmitResult(doc, res, uc.clock.now()); err != nil {
		var rej *domain.RejectionError
		if errors.As(err, &rej) {
			uc.recordRejection(ctx, sess, doc, action, doc.Rejection)
		}
		return nil, err
	}
	uc.log.Info().Str("company_id", sess.CompanyID).Str("nfcom_id", doc.ID).Str("protocolo", *doc.Protocol).Msg("NFCom autorizada")
	return &dto.AuthorityResultResponse{
		Accepted: true,
		Code:     res.Code,
		Reason:   res.Reason,
		NFCom:    toNFComResponse(doc),
	}, nil
}

// Cancel registra el evento de cancelamiento. La justificación se valida antes de
// cualquier request; si la SEFAZ rechaza, la nota sigue autorizada.
func (uc *LifecycleUseCase) Cancel(ctx context.Context, sess entity.Session, id string, in dto.CancelNFComRequest) (*dto.AuthorityResultResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	justification, err := nfcom.ValidateJustification(in.Justification)
	if err != nil {
		return nil, err
	}
	doc, err := uc.gateway.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := nfcom.CanCancel(doc); err != nil {
		return nil, err
	}

	res, err := uc.gateway.Cancel(ctx, sess, doc.ID, *doc.Protocol, justification)
	if err != nil {
		return nil, err
	}
	if err := nfcom.ApplyCancelResult(doc, res); err != nil {
		var rej *domain.RejectionError
		if errors.As(err, &rej) {
			uc.recordRejection(ctx, sess, doc, "cancel", &entity.Rejection{
				Code: rej.Code, Reason: rej.Reason, Raw: rej.Raw, ReceivedAt: uc.clock.now(),
			})
		}
		return nil, err
	}
	uc.log.Info().Str("company_id", sess.CompanyID).Str("nfcom_id", doc.ID).Msg("NFCom cancelada")
	return &dto.AuthorityResultResponse{
		Accepted: true,
		Code:     res.Code,
		Reason:   res.Reason,
		NFCom:    toNFComResponse(doc),
	}, nil
}

// Update reemplaza ítems y faturas de una nota pendiente. Los totales se recalculan.
func (uc *LifecycleUseCase) Update(ctx context.Context, sess entity.Session, id string, in dto.UpdateNFComRequest) (*dto.NFComResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	items, faturas, issue, err := validateUpdate(in)
	if err != nil {
		return nil, err
	}
	doc, err := uc.gateway.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := nfcom.CanEdit(doc); err != nil {
		return nil, err
	}

	doc.Items = items
	doc.Faturas = faturas
	doc.Total = nfcom.DocumentTotal(items)
	if issue != nil {
		doc.IssueDate = *issue
	}
	updated, err := uc.gateway.Update(ctx, sess, doc)
	if err != nil {
		return nil, err
	}
	out := toNFComResponse(updated)
	return &out, nil
}

func validateUpdate(in dto.UpdateNFComRequest) ([]entity.LineItem, []entity.Fatura, *time.Time, error) {
	if len(in.Items) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: la NFCom necesita al menos un ítem", domain.ErrInvalidInput)
	}
	items := make([]entity.LineItem, 0, len(in.Items))
	for i, it := range in.Items {
		if it.ServiceID == "" || it.Description == "" {
			return nil, nil, nil, fmt.Errorf("%w: ítem %d sin servicio o descripción", domain.ErrInvalidInput, i+1)
		}
		if it.Quantity.IsNegative() || it.UnitValue.IsNegative() || it.Discount.IsNegative() || it.Other.IsNegative() {
			return nil, nil, nil, fmt.Errorf("%w: ítem %d con valores negativos", domain.ErrInvalidInput, i+1)
		}
		items = append(items, fromLineItemDTO(it))
	}
	faturas := make([]entity.Fatura, 0, len(in.Faturas))
	for i, f := range in.Faturas {
		due, ok := parseDate(f.DueDate)
		if !ok || due == nil {
			return nil, nil, nil, fmt.Errorf("%w: fatura %d con vencimiento inválido", domain.ErrInvalidInput, i+1)
		}
		fat := entity.Fatura{ContractID: f.ContractID, Number: f.Number, DueDate: *due, Amount: f.Amount.Round(2)}
		if f.Barcode != "" {
			b := f.Barcode
			fat.Barcode = &b
		}
		faturas = append(faturas, fat)
	}
	issue, ok := parseDate(in.IssueDate)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: issue_date debe ser YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return items, faturas, issue, nil
}

func (uc *LifecycleUseCase) recordRejection(ctx context.Context, sess entity.Session, doc *entity.NFCom, action string, rej *entity.Rejection) {
	if rej == nil {
		return
	}
	uc.log.Warn().
		Str("company_id", sess.CompanyID).
		Str("nfcom_id", doc.ID).
		Str("action", action).
		Str("cstat", rej.Code).
		Str("xmotivo", rej.Reason).
		Msg("rechazo de la SEFAZ")
	if uc.journal == nil {
		return
	}
	if action == "resend" {
		action = "transmit"
	}
	err := uc.journal.RecordRejection(context.WithoutCancel(ctx), repository.RejectionRecord{
		CompanyID: sess.CompanyID,
		NFComID:   doc.ID,
		Number:    doc.Number,
		Action:    action,
		Rejection: *rej,
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("nfcom_id", doc.ID).Msg("bitácora: no se pudo registrar el rechazo")
	}
}
