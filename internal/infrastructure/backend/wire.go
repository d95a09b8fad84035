package backend

import "github.com/shopspring/decimal"

// ── Formas JSON del back office ─────────────────────────────────────────────

// wireTax campos fiscales. Aparecen planos en el contrato o anidados en "servico".
type wireTax struct {
	CFOP       flexString  `json:"cfop"`
	NCM        flexString  `json:"ncm"`
	CClass     flexString  `json:"cclass"`
	ICMSBase   flexDecimal `json:"base_calculo_icms"`
	ICMSRate   flexDecimal `json:"aliquota_icms"`
	PISBase    flexDecimal `json:"base_calculo_pis"`
	PISRate    flexDecimal `json:"aliquota_pis"`
	COFINSBase flexDecimal `json:"base_calculo_cofins"`
	COFINSRate flexDecimal `json:"aliquota_cofins"`
	Desconto   flexDecimal `json:"desconto"`
	Outros     flexDecimal `json:"outros"`
}

type wireService struct {
	wireTax
	ID            flexString  `json:"id"`
	EmpresaID     flexString  `json:"empresa_id"`
	Codigo        flexString  `json:"codigo"`
	Descricao     string      `json:"descricao"`
	Unidade       string      `json:"unidade"`
	ValorUnitario flexDecimal `json:"valor_unitario"`
}

type wireContract struct {
	wireTax
	ID             flexString   `json:"id"`
	EmpresaID      flexString   `json:"empresa_id"`
	NumeroContrato flexString   `json:"numero_contrato"`
	Numero         flexString   `json:"numero"`
	ClienteID      flexString   `json:"cliente_id"`
	ServicoID      flexString   `json:"servico_id"`
	Descricao      string       `json:"descricao"`
	Quantidade     flexDecimal  `json:"quantidade"`
	ValorUnitario  flexDecimal  `json:"valor_unitario"`
	ValorTotal     flexDecimal  `json:"valor_total"`
	Periodicidade  string       `json:"periodicidade"`
	DiaEmissao     flexInt      `json:"dia_emissao"`
	DataVencimento string       `json:"data_vencimento"`
	DataInicio     string       `json:"data_inicio"`
	DataFim        string       `json:"data_fim"`
	Ativo          flexBool     `json:"ativo"`
	Status         string       `json:"status"`
	Servico        *wireService `json:"servico"`
}

type wireItem struct {
	ContratoID    flexString  `json:"contrato_id"`
	ServicoID     flexString  `json:"servico_id"`
	CClass        flexString  `json:"cclass"`
	Descricao     string      `json:"descricao"`
	Unidade       string      `json:"unidade"`
	Quantidade    flexDecimal `json:"quantidade"`
	ValorUnitario flexDecimal `json:"valor_unitario"`
	Desconto      flexDecimal `json:"desconto"`
	Outros        flexDecimal `json:"outros"`
	ValorTotal    flexDecimal `json:"valor_total"`
	CFOP          flexString  `json:"cfop"`
	NCM           flexString  `json:"ncm"`
	ICMSBase      flexDecimal `json:"base_calculo_icms"`
	ICMSRate      flexDecimal `json:"aliquota_icms"`
	PISBase       flexDecimal `json:"base_calculo_pis"`
	PISRate       flexDecimal `json:"aliquota_pis"`
	COFINSBase    flexDecimal `json:"base_calculo_cofins"`
	COFINSRate    flexDecimal `json:"aliquota_cofins"`
}

type wireFatura struct {
	ContratoID     flexString  `json:"contrato_id"`
	Numero         flexString  `json:"numero"`
	DataVencimento string      `json:"data_vencimento"`
	Valor          flexDecimal `json:"valor"`
	CodigoBarras   string      `json:"codigo_barras"`
}

type wireNFCom struct {
	ID                   flexString   `json:"id"`
	EmpresaID            flexString   `json:"empresa_id"`
	Numero               flexInt      `json:"numero"`
	Serie                flexString   `json:"serie"`
	ClienteID            flexString   `json:"cliente_id"`
	DataEmissao          string       `json:"data_emissao"`
	Itens                []wireItem   `json:"itens"`
	Faturas              []wireFatura `json:"faturas"`
	ValorTotal           flexDecimal  `json:"valor_total"`
	ProtocoloAutorizacao string       `json:"protocolo_autorizacao"`
	DataAutorizacao      string       `json:"data_autorizacao"`
	Status               string       `json:"status"`
	CodigoRejeicao       flexString   `json:"codigo_rejeicao"`
	MotivoRejeicao       string       `json:"motivo_rejeicao"`
	XMLRetorno           string       `json:"xml_retorno"`
	DataRejeicao         string       `json:"data_rejeicao"`
	EmailStatus          string       `json:"email_status"`
	NumeroContrato       flexString   `json:"numero_contrato"`
	DataInicioContrato   string       `json:"data_inicio_contrato"`
	DataFimContrato      string       `json:"data_fim_contrato"`
	ContratoIDs          []flexString `json:"contrato_ids"`
}

// wirePage listado paginado. Algunos endpoints usan "data", otros "items".
type wirePage[T any] struct {
	Data  []T     `json:"data"`
	Items []T     `json:"items"`
	Total flexInt `json:"total"`
	Page  flexInt `json:"page"`
	Limit flexInt `json:"limit"`
}

func (p wirePage[T]) rows() []T {
	if len(p.Data) > 0 {
		return p.Data
	}
	return p.Items
}

// wireAuthority respuesta de transmitir o cancelar.
type wireAuthority struct {
	Success         flexBool   `json:"success"`
	Protocolo       flexString `json:"protocolo"`
	CStat           flexString `json:"cStat"`
	XMotivo         string     `json:"xMotivo"`
	XMLRetorno      string     `json:"xml_retorno"`
	DataRecebimento string     `json:"dh_recebimento"`
}

// wireEnvelope sobre uniforme de los endpoints masivos.
type wireEnvelope struct {
	TotalProcessed flexInt       `json:"total_processed"`
	TotalSuccess   flexInt       `json:"total_success"`
	TotalFailed    flexInt       `json:"total_failed"`
	Successes      []wireOutcome `json:"successes"`
	Failures       []wireOutcome `json:"failures"`
}

type wireOutcome struct {
	ContractID flexString `json:"contract_id"`
	NFComID    flexString `json:"nfcom_id"`
	Numero     flexInt    `json:"numero"`
	Status     string     `json:"status"`
	Protocolo  flexString `json:"protocolo"`
	CStat      flexString `json:"cStat"`
	XMotivo    string     `json:"xMotivo"`
	Reason     string     `json:"reason"`
	Error      string     `json:"error"`
}

// wireError cuerpo de error. Cuando la SEFAZ rechaza, trae cStat/xMotivo.
type wireError struct {
	Error      string     `json:"error"`
	Message    string     `json:"message"`
	Detail     string     `json:"detail"`
	CStat      flexString `json:"cStat"`
	XMotivo    string     `json:"xMotivo"`
	XMLRetorno string     `json:"xml_retorno"`
}

func (e wireError) text() string {
	for _, s := range []string{e.XMotivo, e.Message, e.Error, e.Detail} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ── Requests ────────────────────────────────────────────────────────────────

type nfcomRequest struct {
	Serie          string          `json:"serie"`
	ClienteID      string          `json:"cliente_id"`
	DataEmissao    string          `json:"data_emissao"`
	Itens          []itemRequest   `json:"itens"`
	Faturas        []fatRequest    `json:"faturas"`
	ValorTotal     decimal.Decimal `json:"valor_total"`
	NumeroContrato string          `json:"numero_contrato,omitempty"`
	DataInicio     string          `json:"data_inicio_contrato,omitempty"`
	DataFim        string          `json:"data_fim_contrato,omitempty"`
	ContratoIDs    []string        `json:"contrato_ids,omitempty"`
}

type itemRequest struct {
	ContratoID    string          `json:"contrato_id,omitempty"`
	ServicoID     string          `json:"servico_id"`
	CClass        string          `json:"cclass,omitempty"`
	Descricao     string          `json:"descricao"`
	Unidade       string          `json:"unidade,omitempty"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	Desconto      decimal.Decimal `json:"desconto"`
	Outros        decimal.Decimal `json:"outros"`
	ValorTotal    decimal.Decimal `json:"valor_total"`
	CFOP          string          `json:"cfop,omitempty"`
	NCM           string          `json:"ncm,omitempty"`
	ICMSBase      decimal.Decimal `json:"base_calculo_icms"`
	ICMSRate      decimal.Decimal `json:"aliquota_icms"`
	PISBase       decimal.Decimal `json:"base_calculo_pis"`
	PISRate       decimal.Decimal `json:"aliquota_pis"`
	COFINSBase    decimal.Decimal `json:"base_calculo_cofins"`
	COFINSRate    decimal.Decimal `json:"aliquota_cofins"`
}

type fatRequest struct {
	ContratoID     string          `json:"contrato_id,omitempty"`
	Numero         string          `json:"numero"`
	DataVencimento string          `json:"data_vencimento"`
	Valor          decimal.Decimal `json:"valor"`
	CodigoBarras   string          `json:"codigo_barras,omitempty"`
}

type idsRequest struct {
	NFComIDs []string `json:"nfcom_ids"`
	Formato  string   `json:"formato,omitempty"`
}

type cancelRequest struct {
	ProtocoloAutorizacao string `json:"protocolo_autorizacao"`
	Justificativa        string `json:"justificativa"`
}
