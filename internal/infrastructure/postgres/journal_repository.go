package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/internal/infrastructure/sefaz"
)

var _ repository.JournalRepository = (*JournalRepo)(nil)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// JournalRepo bitácora de lotes y rechazos sobre PostgreSQL.
type JournalRepo struct {
	q Querier
}

// NewJournalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJournalRepository(q Querier) *JournalRepo {
	return &JournalRepo{q: q}
}

// SaveBatch guarda cabecera e ítems del lote en una sola transacción.
func (r *JournalRepo) SaveBatch(ctx context.Context, sess entity.Session, res *entity.BatchResult) error {
	if res == nil || res.ID == "" {
		return fmt.Errorf("%w: lote sin id", domain.ErrInvalidInput)
	}
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO nfcom_batches (id, company_id, user_id, action, execute, transmit,
		                           total_processed, total_success, total_failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, sess.CompanyID, sess.UserID, res.Action, res.Execute, res.Transmit,
		res.TotalProcessed, res.TotalSuccess, res.TotalFailed, createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lote %s ya registrado", domain.ErrConflict, res.ID)
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	const insertItem = `
		INSERT INTO nfcom_batch_items (batch_id, position, outcome, contract_id, nfcom_id, number,
		                               status, protocol, total, dry_run, warning, reason, retryable,
		                               rejection_code, rejection_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	b := &pgx.Batch{}
	pos := 0
	for _, s := range res.Successes {
		var code, reason *string
		if s.Rejection != nil {
			code, reason = nullIfEmpty(s.Rejection.Code), nullIfEmpty(s.Rejection.Reason)
		}
		total := s.Total
		b.Queue(insertItem, res.ID, pos, outcomeSuccess,
			nullIfEmpty(s.ContractID), nullIfEmpty(s.NFComID), s.Number,
			nullIfEmpty(s.Status), nullIfEmpty(s.Protocol), &total, s.DryRun,
			nullIfEmpty(s.Warning), nil, false, code, reason)
		pos++
	}
	for _, f := range res.Failures {
		b.Queue(insertItem, res.ID, pos, outcomeFailure,
			nullIfEmpty(f.ContractID), nullIfEmpty(f.NFComID), nil,
			nil, nil, nil, false,
			nil, nullIfEmpty(f.Reason), f.Retryable, nullIfEmpty(f.Code), nil)
		pos++
	}
	if b.Len() > 0 {
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert batch items: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetBatch recupera el manifiesto de un lote de la empresa.
func (r *JournalRepo) GetBatch(ctx context.Context, companyID, batchID string) (*entity.BatchResult, error) {
	res := &entity.BatchResult{ID: batchID}
	err := r.q.QueryRow(ctx, `
		SELECT action, execute, transmit, total_processed, total_success, total_failed, created_at
		FROM nfcom_batches
		WHERE id = $1 AND company_id = $2`, batchID, companyID,
	).Scan(&res.Action, &res.Execute, &res.Transmit,
		&res.TotalProcessed, &res.TotalSuccess, &res.TotalFailed, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT outcome, contract_id, nfcom_id, number, status, protocol, total, dry_run,
		       warning, reason, retryable, rejection_code, rejection_reason
		FROM nfcom_batch_items
		WHERE batch_id = $1
		ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			outcome                               string
			contractID, nfcomID, status, protocol *string
			warning, reason, rejCode, rejReason   *string
			number                                *int64
			total                                 *decimal.Decimal
			dryRun, retryable                     bool
		)
		if err := rows.Scan(&outcome, &contractID, &nfcomID, &number, &status, &protocol, &total,
			&dryRun, &warning, &reason, &retryable, &rejCode, &rejReason); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		// los contadores vienen de la cabecera; se agregan sin AddSuccess/AddFailure
		if outcome == outcomeFailure {
			res.Failures = append(res.Failures, entity.BatchFailure{
				ContractID: deref(contractID),
				NFComID:    deref(nfcomID),
				Code:       deref(rejCode),
				Reason:     deref(reason),
				Retryable:  retryable,
			})
			continue
		}
		s := entity.BatchSuccess{
			ContractID: deref(contractID),
			NFComID:    deref(nfcomID),
			Status:     deref(status),
			Protocol:   deref(protocol),
			DryRun:     dryRun,
			Warning:    deref(warning),
		}
		if number != nil {
			s.Number = *number
		}
		if total != nil {
			s.Total = *total
		}
		if rejCode != nil || rejReason != nil {
			s.Rejection = &entity.Rejection{Code: deref(rejCode), Reason: deref(rejReason)}
		}
		res.Successes = append(res.Successes, s)
	}
	return res, rows.Err()
}

// RecordRejection inserta el rechazo salvo que ya exista uno con la misma huella
// para la nota y la acción.
func (r *JournalRepo) RecordRejection(ctx context.Context, rec repository.RejectionRecord) error {
	rej := rec.Rejection
	receivedAt := rej.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO nfcom_rejections (company_id, nfcom_id, number, action, code, reason, raw, fingerprint, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT uq_nfcom_rejections_fingerprint DO NOTHING`,
		rec.CompanyID, rec.NFComID, rec.Number, rec.Action,
		rej.Code, rej.Reason, nullIfEmpty(rej.Raw),
		sefaz.Fingerprint(rej.Code, rej.Reason, rej.Raw), receivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rejection: %w", err)
	}
	return nil
}

// LatestRejections último rechazo de transmisión por nota.
func (r *JournalRepo) LatestRejections(ctx context.Context, companyID string, nfcomIDs []string) (map[string]*entity.Rejection, error) {
	out := make(map[string]*entity.Rejection, len(nfcomIDs))
	if len(nfcomIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT ON (nfcom_id) nfcom_id, code, reason, raw, received_at
		FROM nfcom_rejections
		WHERE company_id = $1 AND nfcom_id = ANY($2) AND action = $3
		ORDER BY nfcom_id, received_at DESC, id DESC`,
		companyID, nfcomIDs, entity.BatchActionTransmit)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			raw *string
			rej entity.Rejection
		)
		if err := rows.Scan(&id, &rej.Code, &rej.Reason, &raw, &rej.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan rejection: %w", err)
		}
		rej.Raw = deref(raw)
		out[id] = &rej
	}
	return out, rows.Err()
}
