package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
)

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func toNFComResponse(doc *entity.NFCom) dto.NFComResponse {
	out := dto.NFComResponse{
		ID:             doc.ID,
		Number:         doc.Number,
		Series:         doc.Series,
		ClientID:       doc.ClientID,
		IssueDate:      formatDate(&doc.IssueDate),
		Status:         nfcom.ViewStatus(doc),
		Total:          doc.Total,
		AuthorizedAt:   formatDate(doc.AuthorizedAt),
		EmailStatus:    doc.EmailStatus,
		ContractNumber: doc.ContractNumber,
		ContractStart:  formatDate(doc.ContractStart),
		ContractEnd:    formatDate(doc.ContractEnd),
		Rejection:      toRejectionResponse(doc.Rejection),
		Actions: dto.NFComActions{
			Transmit: nfcom.CanTransmit(doc) == nil && doc.Rejection == nil,
			Resend:   nfcom.CanTransmit(doc) == nil && doc.Rejection != nil,
			Edit:     nfcom.CanEdit(doc) == nil,
			Cancel:   nfcom.CanCancel(doc) == nil,
			Email:    nfcom.CanSendEmail(doc) == nil,
		},
	}
	if doc.EmailStatus == "" {
		out.EmailStatus = entity.EmailStatusUnknown
	}
	if doc.HasProtocol() {
		out.Protocol = *doc.Protocol
	}
	for _, it := range doc.Items {
		out.Items = append(out.Items, dto.LineItemDTO{
			ContractID:  it.ContractID,
			ServiceID:   it.ServiceID,
			ClassCode:   it.ClassCode,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitValue:   it.UnitValue,
			Discount:    it.Discount,
			Other:       it.Other,
			Total:       it.Total,
			CFOP:        it.CFOP,
			NCM:         it.NCM,
			ICMSBase:    it.ICMSBase,
			ICMSRate:    it.ICMSRate,
			PISBase:     it.PISBase,
			PISRate:     it.PISRate,
			COFINSBase:  it.COFINSBase,
			COFINSRate:  it.COFINSRate,
		})
	}
	for _, f := range doc.Faturas {
		fd := dto.FaturaDTO{
			ContractID: f.ContractID,
			Number:     f.Number,
			DueDate:    formatDate(&f.DueDate),
			Amount:     f.Amount,
		}
		if f.Barcode != nil {
			fd.Barcode = *f.Barcode
		}
		out.Faturas = append(out.Faturas, fd)
	}
	return out
}

func toRejectionResponse(r *entity.Rejection) *dto.RejectionResponse {
	if r == nil {
		return nil
	}
	return &dto.RejectionResponse{
		Code:       r.Code,
		Reason:     r.Reason,
		Raw:        r.Raw,
		ReceivedAt: formatDate(&r.ReceivedAt),
	}
}

// RejectionDetails detalle estructurado de un rechazo para el cuerpo de error HTTP.
func RejectionDetails(err error) *dto.RejectionResponse {
	var rej *domain.RejectionError
	if !errors.As(err, &rej) {
		return nil
	}
	return &dto.RejectionResponse{Code: rej.Code, Reason: rej.Reason, Raw: rej.Raw}
}

func toBatchResponse(r *entity.BatchResult, selection []string) *dto.BatchResponse {
	out := &dto.BatchResponse{
		BatchID:            r.ID,
		Action:             r.Action,
		Execute:            r.Execute,
		Transmit:           r.Transmit,
		TotalProcessed:     r.TotalProcessed,
		TotalSuccess:       r.TotalSuccess,
		TotalFailed:        r.TotalFailed,
		Successes:          make([]dto.BatchSuccessDTO, 0, len(r.Successes)),
		Failures:           make([]dto.BatchFailureDTO, 0, len(r.Failures)),
		RemainingSelection: nfcom.RemainingSelection(selection, r),
	}
	for _, s := range r.Successes {
		out.Successes = append(out.Successes, dto.BatchSuccessDTO{
			ContractID: s.ContractID,
			NFComID:    s.NFComID,
			Number:     s.Number,
			Status:     s.Status,
			Protocol:   s.Protocol,
			Total:      s.Total,
			DryRun:     s.DryRun,
			Rejection:  toRejectionResponse(s.Rejection),
			Warning:    s.Warning,
		})
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, dto.BatchFailureDTO{
			ContractID: f.ContractID,
			NFComID:    f.NFComID,
			Code:       f.Code,
			Reason:     f.Reason,
			Retryable:  f.Retryable,
		})
	}
	return out
}

func toContractResponse(c *entity.Contract, today time.Time, selected bool) dto.ContractResponse {
	due := nfcom.ResolveDueDate(c, today)
	return dto.ContractResponse{
		ID:          c.ID,
		Number:      c.Number,
		ClientID:    c.ClientID,
		ServiceID:   c.ServiceID,
		Description: c.Description,
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice,
		Periodicity: c.Periodicity,
		EmissionDay: c.EmissionDay,
		StartDate:   formatDate(c.StartDate),
		EndDate:     formatDate(c.EndDate),
		Active:      c.Active,
		Status:      c.Status,
		Expired:     nfcom.IsExpired(c, today),
		Eligible:    nfcom.IsEligibleForEmission(c, today),
		NextDueDate: formatDate(&due),
		Selected:    selected,
	}
}

// fromLineItemDTO recalcula siempre el total; el enviado por el cliente se descarta.
func fromLineItemDTO(in dto.LineItemDTO) entity.LineItem {
	it := entity.LineItem{
		ContractID:  in.ContractID,
		ServiceID:   in.ServiceID,
		ClassCode:   in.ClassCode,
		Description: in.Description,
		Unit:        firstText(in.Unit, defaultUnit),
		Quantity:    in.Quantity,
		UnitValue:   in.UnitValue,
		Discount:    in.Discount,
		Other:       in.Other,
		CFOP:        in.CFOP,
		NCM:         in.NCM,
		ICMSBase:    in.ICMSBase,
		ICMSRate:    in.ICMSRate,
		PISBase:     in.PISBase,
		PISRate:     in.PISRate,
		COFINSBase:  in.COFINSBase,
		COFINSRate:  in.COFINSRate,
	}
	it.Total = nfcom.LineTotal(it.Quantity, it.UnitValue, it.Discount, it.Other)
	return it
}

func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func parseDecimal(s string) (*decimal.Decimal, bool) {
	if s == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return &d, true
}
