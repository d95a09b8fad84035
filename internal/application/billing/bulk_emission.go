package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

const reasonCancelled = "operación interrumpida antes de procesar este ítem"

// BulkEmissionUseCase orquesta las acciones masivas: emisión desde contratos
// (dry run, creación, transmisión), transmisión y envío de e-mail de notas existentes.
//
// Ningún ítem aborta el lote: cada uno termina en un éxito o en una falla con motivo.
type BulkEmissionUseCase struct {
	contracts repository.ContractRepository
	gateway   repository.NFComGateway
	composer  *Composer
	journal   repository.JournalRepository // nil: sin bitácora
	guard     *BatchGuard
	clock     Clock
	log       *logger.Logger
}

// NewBulkEmissionUseCase construye el caso de uso. journal puede ser nil.
func NewBulkEmissionUseCase(
	contracts repository.ContractRepository,
	gateway repository.NFComGateway,
	composer *Composer,
	journal repository.JournalRepository,
	guard *BatchGuard,
	clock Clock,
	log *logger.Logger,
) *BulkEmissionUseCase {
	if guard == nil {
		guard = NewBatchGuard()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BulkEmissionUseCase{
		contracts: contracts,
		gateway:   gateway,
		composer:  composer,
		journal:   journal,
		guard:     guard,
		clock:     clock,
		log:       log.Component("bulk"),
	}
}

// BulkEmit procesa contrato por contrato: buscar → elegibilidad → componer →
// (dry run | crear pendiente) → transmitir si se pidió.
func (uc *BulkEmissionUseCase) BulkEmit(ctx context.Context, sess entity.Session, in dto.BulkEmitRequest) (*dto.BatchResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	ids := nfcom.UniqueIDs(in.ContractIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: seleccione al menos un contrato", domain.ErrInvalidInput)
	}
	if in.Transmit && !in.Execute {
		return nil, fmt.Errorf("%w: transmitir requiere execute=true", domain.ErrInvalidInput)
	}
	now := uc.clock.now()
	ref := now
	if in.ReferenceDate != "" {
		t, ok := parseDate(in.ReferenceDate)
		if !ok {
			return nil, fmt.Errorf("%w: reference_date debe ser YYYY-MM-DD", domain.ErrInvalidInput)
		}
		ref = *t
	}

	release, err := uc.guard.Acquire(sess.CompanyID, entity.BatchActionEmit, ids)
	if err != nil {
		return nil, err
	}
	defer release()

	result := uc.newResult(entity.BatchActionEmit, in.Execute, in.Transmit, now)
	for i, id := range ids {
		if ctx.Err() != nil {
			uc.abortRemaining(result, ids[i:], true)
			break
		}
		uc.emitOne(ctx, sess, id, in, ref, result)
	}

	uc.finish(ctx, sess, result)
	return toBatchResponse(result, selectionOr(in.Selection, ids)), nil
}

func (uc *BulkEmissionUseCase) emitOne(ctx context.Context, sess entity.Session, contractID string, in dto.BulkEmitRequest, ref time.Time, result *entity.BatchResult) {
	fail := func(err error) {
		uc.log.Warn().Err(err).Str("company_id", sess.CompanyID).Str("contract_id", contractID).Msg("emisión: ítem fallido")
		result.AddFailure(entity.BatchFailure{ContractID: contractID, Reason: err.Error(), Retryable: domain.IsRetryable(err)})
	}

	// ── 1. Contrato y elegibilidad ───────────────────────────────────────────
	ct, err := uc.contracts.GetByID(ctx, sess, contractID)
	if err != nil {
		fail(fmt.Errorf("obtener contrato %s: %w", contractID, err))
		return
	}
	if today := uc.clock.now(); !nfcom.IsEligibleForEmission(ct, today) {
		fail(fmt.Errorf("%w: %s", domain.ErrInvalidInput, nfcom.IneligibilityReason(ct, today)))
		return
	}

	// ── 2. Composición ───────────────────────────────────────────────────────
	comp, err := uc.composer.Compose(ctx, sess, []*entity.Contract{ct}, ref)
	if err != nil {
		fail(err)
		return
	}
	draft := uc.composer.Draft(comp, ref)
	if !in.Execute {
		result.AddSuccess(entity.BatchSuccess{
			ContractID: contractID,
			Status:     entity.NFComStatusPending,
			Total:      draft.Total,
			DryRun:     true,
		})
		return
	}

	// ── 3. Creación (pendiente) ──────────────────────────────────────────────
	created, err := uc.gateway.Create(ctx, sess, draft)
	if err != nil {
		fail(fmt.Errorf("crear NFCom del contrato %s: %w", ct.Number, err))
		return
	}
	success := entity.BatchSuccess{
		ContractID: contractID,
		NFComID:    created.ID,
		Number:     created.Number,
		Status:     entity.NFComStatusPending,
		Total:      created.Total,
	}
	if success.Total.IsZero() {
		success.Total = draft.Total
	}
	if !in.Transmit {
		result.AddSuccess(success)
		return
	}

	// ── 4. Transmisión ───────────────────────────────────────────────────────
	// La nota ya existe: desde aquí el contrato cuenta como éxito aunque la
	// transmisión falle, para no duplicarla en un reintento.
	uc.transmitCreated(ctx, sess, created, &success)
	result.AddSuccess(success)
}

func (uc *BulkEmissionUseCase) transmitCreated(ctx context.Context, sess entity.Session, doc *entity.NFCom, success *entity.BatchSuccess) {
	res, err := uc.gateway.Transmit(ctx, sess, doc.ID)
	if err == nil {
		err = nfcom.ApplyTransmitResult(doc, res, uc.clock.now())
	}
	var rej *domain.RejectionError
	switch {
	case err == nil:
		success.Status = entity.NFComStatusAuthorized
		success.Protocol = *doc.Protocol
	case errors.As(err, &rej):
		success.Status = entity.NFComStatusRejected
		success.Rejection = doc.Rejection
		uc.recordRejection(ctx, sess, doc, "transmit")
	default:
		success.Warning = "NFCom creada; transmisión pendiente: " + err.Error()
		uc.log.Warn().Err(err).Str("company_id", sess.CompanyID).Str("nfcom_id", doc.ID).Msg("emisión: transmisión no completada")
	}
}

// BulkTransmit transmite notas existentes. Solo pendientes; el resto se rechaza por ítem.
func (uc *BulkEmissionUseCase) BulkTransmit(ctx context.Context, sess entity.Session, in dto.BulkDocumentsRequest) (*dto.BatchResponse, error) {
	return uc.forward(ctx, sess, in, entity.BatchActionTransmit, nfcom.CanTransmit, uc.gateway.BulkTransmit)
}

// SendEmails envía por e-mail notas no canceladas.
func (uc *BulkEmissionUseCase) SendEmails(ctx context.Context, sess entity.Session, in dto.BulkDocumentsRequest) (*dto.BatchResponse, error) {
	return uc.forward(ctx, sess, in, entity.BatchActionEmail, nfcom.CanSendEmail, uc.gateway.SendEmails)
}

type bulkCall func(ctx context.Context, sess entity.Session, ids []string) (*entity.BatchResult, error)

// forward valida cada nota localmente y reenvía las válidas al endpoint masivo.
func (uc *BulkEmissionUseCase) forward(
	ctx context.Context,
	sess entity.Session,
	in dto.BulkDocumentsRequest,
	action string,
	check func(*entity.NFCom) error,
	call bulkCall,
) (*dto.BatchResponse, error) {
	if !sess.Valid() {
		return nil, domain.ErrUnauthorized
	}
	ids := nfcom.UniqueIDs(in.NFComIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: seleccione al menos una NFCom", domain.ErrInvalidInput)
	}
	release, err := uc.guard.Acquire(sess.CompanyID, action, ids)
	if err != nil {
		return nil, err
	}
	defer release()

	result := uc.newResult(action, true, action == entity.BatchActionTransmit, uc.clock.now())

	// ── 1. Validación local por ítem ─────────────────────────────────────────
	docs := make(map[string]*entity.NFCom, len(ids))
	valid := make([]string, 0, len(ids))
	for i, id := range ids {
		if ctx.Err() != nil {
			uc.abortRemaining(result, ids[i:], false)
			break
		}
		doc, err := uc.gateway.Get(ctx, sess, id)
		if err != nil {
			result.AddFailure(entity.BatchFailure{NFComID: id, Reason: err.Error(), Retryable: domain.IsRetryable(err)})
			continue
		}
		if err := check(doc); err != nil {
			result.AddFailure(entity.BatchFailure{NFComID: id, Reason: err.Error()})
			continue
		}
		docs[id] = doc
		valid = append(valid, id)
	}

	// ── 2. Envío masivo de las válidas ───────────────────────────────────────
	if len(valid) > 0 && ctx.Err() == nil {
		env, err := call(ctx, sess, valid)
		if err != nil {
			for _, id := range valid {
				result.AddFailure(entity.BatchFailure{NFComID: id, Reason: err.Error(), Retryable: domain.IsRetryable(err)})
			}
		} else {
			uc.mergeEnvelope(ctx, sess, result, env, valid, docs)
		}
	} else if len(valid) > 0 {
		uc.abortRemaining(result, valid, false)
	}

	uc.finish(ctx, sess, result)
	return toBatchResponse(result, selectionOr(in.Selection, ids)), nil
}

// mergeEnvelope incorpora la respuesta del back office. Un id válido ausente del
// sobre se informa como falla reintentable. En transmisión, solo una falla con
// cStat es un rechazo de la SEFAZ; sin código se trata como transitoria.
func (uc *BulkEmissionUseCase) mergeEnvelope(ctx context.Context, sess entity.Session, result *entity.BatchResult, env *entity.BatchResult, sent []string, docs map[string]*entity.NFCom) {
	seen := make(map[string]bool, len(sent))
	for _, s := range env.Successes {
		seen[s.NFComID] = true
		if doc := docs[s.NFComID]; doc != nil && s.Number == 0 {
			s.Number = doc.Number
		}
		if result.Action == entity.BatchActionTransmit && s.Protocol != "" {
			s.Status = entity.NFComStatusAuthorized
		}
		result.AddSuccess(s)
	}
	for _, f := range env.Failures {
		seen[f.NFComID] = true
		rejected := result.Action == entity.BatchActionTransmit && f.Code != ""
		// un rechazo de la SEFAZ necesita corrección; lo demás se puede reintentar
		f.Retryable = !rejected
		if rejected {
			if doc := docs[f.NFComID]; doc != nil {
				doc.Rejection = &entity.Rejection{Code: f.Code, Reason: f.Reason, ReceivedAt: uc.clock.now()}
				uc.recordRejection(ctx, sess, doc, "transmit")
			}
		}
		result.AddFailure(f)
	}
	for _, id := range sent {
		if !seen[id] {
			result.AddFailure(entity.BatchFailure{NFComID: id, Reason: "el back office no informó resultado para esta NFCom", Retryable: true})
		}
	}
}

func (uc *BulkEmissionUseCase) newResult(action string, execute, transmit bool, now time.Time) *entity.BatchResult {
	return &entity.BatchResult{
		ID:        uuid.NewString(),
		Action:    action,
		Execute:   execute,
		Transmit:  transmit,
		CreatedAt: now,
	}
}

// abortRemaining ítems no iniciados tras la cancelación del contexto: reintentables.
func (uc *BulkEmissionUseCase) abortRemaining(result *entity.BatchResult, ids []string, contracts bool) {
	for _, id := range ids {
		f := entity.BatchFailure{Reason: reasonCancelled, Retryable: true}
		if contracts {
			f.ContractID = id
		} else {
			f.NFComID = id
		}
		result.AddFailure(f)
	}
}

// finish registra el resumen y guarda el manifiesto. Los dry runs no se guardan.
func (uc *BulkEmissionUseCase) finish(ctx context.Context, sess entity.Session, result *entity.BatchResult) {
	uc.log.Info().
		Str("company_id", sess.CompanyID).
		Str("batch_id", result.ID).
		Str("action", result.Action).
		Bool("execute", result.Execute).
		Int("processed", result.TotalProcessed).
		Int("success", result.TotalSuccess).
		Int("failed", result.TotalFailed).
		Msg("lote procesado")

	if uc.journal == nil || !result.Execute {
		return
	}
	// el manifiesto se guarda aunque el request haya sido cancelado
	if err := uc.journal.SaveBatch(context.WithoutCancel(ctx), sess, result); err != nil {
		uc.log.Warn().Err(err).Str("batch_id", result.ID).Msg("bitácora: no se pudo guardar el lote")
	}
}

func (uc *BulkEmissionUseCase) recordRejection(ctx context.Context, sess entity.Session, doc *entity.NFCom, action string) {
	if doc.Rejection == nil {
		return
	}
	uc.log.Warn().
		Str("company_id", sess.CompanyID).
		Str("nfcom_id", doc.ID).
		Str("cstat", doc.Rejection.Code).
		Str("xmotivo", doc.Rejection.Reason).
		Msg("rechazo de la SEFAZ")
	if uc.journal == nil {
		return
	}
	rec := repository.RejectionRecord{
		CompanyID: sess.CompanyID,
		NFComID:   doc.ID,
		Number:    doc.Number,
		Action:    action,
		Rejection: *doc.Rejection,
	}
	if err := uc.journal.RecordRejection(context.WithoutCancel(ctx), rec); err != nil {
		uc.log.Warn().Err(err).Str("nfcom_id", doc.ID).Msg("bitácora: no se pudo registrar el rechazo")
	}
}

func selectionOr(selection, ids []string) []string {
	if len(selection) > 0 {
		return selection
	}
	return ids
}
