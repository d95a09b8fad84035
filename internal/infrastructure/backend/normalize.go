package backend

import (
	"strings"
	"time"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	catalog "github.com/jhoicas/nfcom-bff/pkg/nfcom"
)

// normalizeContract produce la forma canónica del contrato. Los campos fiscales
// pueden venir planos o dentro de "servico"; los planos tienen prioridad.
func normalizeContract(w *wireContract) *entity.Contract {
	c := &entity.Contract{
		ID:          w.ID.String(),
		CompanyID:   w.EmpresaID.String(),
		Number:      firstNonEmpty(w.NumeroContrato.String(), w.Numero.String()),
		ClientID:    w.ClienteID.String(),
		ServiceID:   w.ServicoID.String(),
		Description: strings.TrimSpace(w.Descricao),
		Quantity:    w.Quantidade.OrZero(),
		UnitPrice:   w.ValorUnitario.OrZero(),
		StoredTotal: w.ValorTotal.Ptr(),
		Periodicity: strings.ToUpper(strings.TrimSpace(w.Periodicidade)),
		DueDate:     parseDate(w.DataVencimento),
		StartDate:   parseDate(w.DataInicio),
		EndDate:     parseDate(w.DataFim),
		Status:      strings.ToUpper(strings.TrimSpace(w.Status)),
	}
	if c.Number == "" {
		c.Number = c.ID
	}
	if w.DiaEmissao.Set {
		d := int(w.DiaEmissao.Value)
		c.EmissionDay = &d
	}
	if w.Ativo.Set {
		c.Active = w.Ativo.Value
	} else {
		c.Active = c.Status == catalog.ContractStatusActive
	}
	if c.Status != "" && !catalog.ValidContractStatuses[c.Status] {
		c.Status = ""
	}

	c.Tax = taxFields(&w.wireTax)
	if w.Servico != nil {
		if c.ServiceID == "" {
			c.ServiceID = w.Servico.ID.String()
		}
		if c.Description == "" {
			c.Description = strings.TrimSpace(w.Servico.Descricao)
		}
		if !w.ValorUnitario.Set {
			c.UnitPrice = w.Servico.ValorUnitario.OrZero()
		}
		mergeTax(&c.Tax, taxFields(&w.Servico.wireTax))
	}
	return c
}

func taxFields(w *wireTax) entity.TaxFields {
	return entity.TaxFields{
		CFOP:       strPtr(w.CFOP.String()),
		NCM:        strPtr(w.NCM.String()),
		ClassCode:  strPtr(w.CClass.String()),
		ICMSBase:   w.ICMSBase.Ptr(),
		ICMSRate:   w.ICMSRate.Ptr(),
		PISBase:    w.PISBase.Ptr(),
		PISRate:    w.PISRate.Ptr(),
		COFINSBase: w.COFINSBase.Ptr(),
		COFINSRate: w.COFINSRate.Ptr(),
		Discount:   w.Desconto.Ptr(),
		Other:      w.Outros.Ptr(),
	}
}

// mergeTax completa en dst solo los campos ausentes.
func mergeTax(dst *entity.TaxFields, src entity.TaxFields) {
	if dst.CFOP == nil {
		dst.CFOP = src.CFOP
	}
	if dst.NCM == nil {
		dst.NCM = src.NCM
	}
	if dst.ClassCode == nil {
		dst.ClassCode = src.ClassCode
	}
	if dst.ICMSBase == nil {
		dst.ICMSBase = src.ICMSBase
	}
	if dst.ICMSRate == nil {
		dst.ICMSRate = src.ICMSRate
	}
	if dst.PISBase == nil {
		dst.PISBase = src.PISBase
	}
	if dst.PISRate == nil {
		dst.PISRate = src.PISRate
	}
	if dst.COFINSBase == nil {
		dst.COFINSBase = src.COFINSBase
	}
	if dst.COFINSRate == nil {
		dst.COFINSRate = src.COFINSRate
	}
	if dst.Discount == nil {
		dst.Discount = src.Discount
	}
	if dst.Other == nil {
		dst.Other = src.Other
	}
}

func normalizeService(w *wireService) *entity.Service {
	return &entity.Service{
		ID:          w.ID.String(),
		CompanyID:   w.EmpresaID.String(),
		Code:        w.Codigo.String(),
		Description: strings.TrimSpace(w.Descricao),
		Unit:        strings.TrimSpace(w.Unidade),
		UnitPrice:   w.ValorUnitario.OrZero(),
		CFOP:        w.CFOP.String(),
		NCM:         w.NCM.String(),
		ClassCode:   w.CClass.String(),
		ICMSBase:    w.ICMSBase.OrZero(),
		ICMSRate:    w.ICMSRate.OrZero(),
		PISBase:     w.PISBase.OrZero(),
		PISRate:     w.PISRate.OrZero(),
		COFINSBase:  w.COFINSBase.OrZero(),
		COFINSRate:  w.COFINSRate.OrZero(),
		Discount:    w.Desconto.OrZero(),
		Other:       w.Outros.OrZero(),
	}
}

// normalizeStatus acepta las variantes en portugués del back office.
func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "authorized", "autorizada", "autorizado":
		return entity.NFComStatusAuthorized
	case "cancelled", "canceled", "cancelada", "cancelado":
		return entity.NFComStatusCancelled
	default:
		return entity.NFComStatusPending
	}
}

func normalizeEmailStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sent", "enviado":
		return entity.EmailStatusSent
	case "pending", "pendente":
		return entity.EmailStatusPending
	case "failed", "erro", "falha":
		return entity.EmailStatusFailed
	default:
		return entity.EmailStatusUnknown
	}
}

func normalizeNFCom(w *wireNFCom) *entity.NFCom {
	doc := &entity.NFCom{
		ID:             w.ID.String(),
		CompanyID:      w.EmpresaID.String(),
		Number:         w.Numero.Value,
		Series:         w.Serie.String(),
		ClientID:       w.ClienteID.String(),
		Total:          w.ValorTotal.OrZero(),
		Status:         normalizeStatus(w.Status),
		EmailStatus:    normalizeEmailStatus(w.EmailStatus),
		ContractNumber: w.NumeroContrato.String(),
		ContractStart:  parseDate(w.DataInicioContrato),
		ContractEnd:    parseDate(w.DataFimContrato),
		AuthorizedAt:   parseDate(w.DataAutorizacao),
	}
	if t := parseDate(w.DataEmissao); t != nil {
		doc.IssueDate = *t
	}
	// Los listados suelen omitir el protocolo. La nota sigue autorizada; quien
	// necesita el protocolo (cancelamiento) lo exige por su cuenta.
	if p := strPtr(w.ProtocoloAutorizacao); p != nil {
		doc.Protocol = p
	}
	if code := w.CodigoRejeicao.String(); code != "" || w.MotivoRejeicao != "" {
		rej := &entity.Rejection{Code: code, Reason: w.MotivoRejeicao, Raw: w.XMLRetorno}
		if t := parseDate(w.DataRejeicao); t != nil {
			rej.ReceivedAt = *t
		}
		doc.Rejection = rej
	}
	for _, id := range w.ContratoIDs {
		if id != "" {
			doc.ContractIDs = append(doc.ContractIDs, id.String())
		}
	}
	for i := range w.Itens {
		it := &w.Itens[i]
		doc.Items = append(doc.Items, entity.LineItem{
			ContractID:  it.ContratoID.String(),
			ServiceID:   it.ServicoID.String(),
			ClassCode:   it.CClass.String(),
			Description: it.Descricao,
			Unit:        it.Unidade,
			Quantity:    it.Quantidade.OrZero(),
			UnitValue:   it.ValorUnitario.OrZero(),
			Discount:    it.Desconto.OrZero(),
			Other:       it.Outros.OrZero(),
			Total:       it.ValorTotal.OrZero(),
			CFOP:        it.CFOP.String(),
			NCM:         it.NCM.String(),
			ICMSBase:    it.ICMSBase.OrZero(),
			ICMSRate:    it.ICMSRate.OrZero(),
			PISBase:     it.PISBase.OrZero(),
			PISRate:     it.PISRate.OrZero(),
			COFINSBase:  it.COFINSBase.OrZero(),
			COFINSRate:  it.COFINSRate.OrZero(),
		})
	}
	for i := range w.Faturas {
		f := &w.Faturas[i]
		fat := entity.Fatura{
			ContractID: f.ContratoID.String(),
			Number:     f.Numero.String(),
			Amount:     f.Valor.OrZero(),
			Barcode:    strPtr(f.CodigoBarras),
		}
		if t := parseDate(f.DataVencimento); t != nil {
			fat.DueDate = *t
		}
		doc.Faturas = append(doc.Faturas, fat)
	}
	return doc
}

func toNFComRequest(doc *entity.NFCom) nfcomRequest {
	req := nfcomRequest{
		Serie:          doc.Series,
		ClienteID:      doc.ClientID,
		DataEmissao:    doc.IssueDate.Format("2006-01-02"),
		ValorTotal:     doc.Total,
		NumeroContrato: doc.ContractNumber,
		DataInicio:     formatDate(doc.ContractStart),
		DataFim:        formatDate(doc.ContractEnd),
		ContratoIDs:    doc.ContractIDs,
	}
	for _, it := range doc.Items {
		req.Itens = append(req.Itens, itemRequest{
			ContratoID:    it.ContractID,
			ServicoID:     it.ServiceID,
			CClass:        it.ClassCode,
			Descricao:     it.Description,
			Unidade:       it.Unit,
			Quantidade:    it.Quantity,
			ValorUnitario: it.UnitValue,
			Desconto:      it.Discount,
			Outros:        it.Other,
			ValorTotal:    it.Total,
			CFOP:          it.CFOP,
			NCM:           it.NCM,
			ICMSBase:      it.ICMSBase,
			ICMSRate:      it.ICMSRate,
			PISBase:       it.PISBase,
			PISRate:       it.PISRate,
			COFINSBase:    it.COFINSBase,
			COFINSRate:    it.COFINSRate,
		})
	}
	for _, f := range doc.Faturas {
		fr := fatRequest{
			ContratoID:     f.ContractID,
			Numero:         f.Number,
			DataVencimento: f.DueDate.Format("2006-01-02"),
			Valor:          f.Amount,
		}
		if f.Barcode != nil {
			fr.CodigoBarras = *f.Barcode
		}
		req.Faturas = append(req.Faturas, fr)
	}
	return req
}

func toBatchResult(w *wireEnvelope, action string) *entity.BatchResult {
	res := &entity.BatchResult{Action: action, Execute: true, CreatedAt: time.Now()}
	for _, s := range w.Successes {
		res.AddSuccess(entity.BatchSuccess{
			ContractID: s.ContractID.String(),
			NFComID:    s.NFComID.String(),
			Number:     s.Numero.Value,
			Status:     s.Status,
			Protocol:   s.Protocolo.String(),
		})
	}
	for _, f := range w.Failures {
		res.AddFailure(entity.BatchFailure{
			ContractID: f.ContractID.String(),
			NFComID:    f.NFComID.String(),
			Code:       f.CStat.String(),
			Reason:     firstNonEmpty(f.XMotivo, f.Reason, f.Error, "falla sin motivo informado"),
		})
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
