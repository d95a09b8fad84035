package dto

import "github.com/shopspring/decimal"

// NFComResponse nota en respuestas. Status es el estado de vista
// (pending | rejected | authorized | cancelled).
type NFComResponse struct {
	ID             string             `json:"id"`
	Number         int64              `json:"number"`
	Series         string             `json:"series"`
	ClientID       string             `json:"client_id"`
	IssueDate      string             `json:"issue_date"`
	Status         string             `json:"status"`
	Total          decimal.Decimal    `json:"total"`
	Protocol       string             `json:"protocol,omitempty"`
	AuthorizedAt   string             `json:"authorized_at,omitempty"`
	EmailStatus    string             `json:"email_status"`
	ContractNumber string             `json:"contract_number,omitempty"`
	ContractStart  string             `json:"contract_start,omitempty"`
	ContractEnd    string             `json:"contract_end,omitempty"`
	Rejection      *RejectionResponse `json:"rejection,omitempty"`
	Warning        string             `json:"warning,omitempty"`
	Items          []LineItemDTO      `json:"items,omitempty"`
	Faturas        []FaturaDTO        `json:"faturas,omitempty"`
	Actions        NFComActions       `json:"actions"`
}

// NFComActions acciones habilitadas en la vista para la nota.
type NFComActions struct {
	Transmit bool `json:"transmit"`
	Resend   bool `json:"resend"`
	Edit     bool `json:"edit"`
	Cancel   bool `json:"cancel"`
	Email    bool `json:"email"`
}

// RejectionResponse rechazo de la SEFAZ. Reason se muestra tal cual.
type RejectionResponse struct {
	Code       string `json:"code"`
	Reason     string `json:"reason"`
	Raw        string `json:"raw,omitempty"`
	ReceivedAt string `json:"received_at,omitempty"`
}

// LineItemDTO ítem de la nota. En requests Total se ignora: siempre se recalcula.
type LineItemDTO struct {
	ContractID  string          `json:"contract_id,omitempty"`
	ServiceID   string          `json:"service_id"`
	ClassCode   string          `json:"class_code,omitempty"`
	Description string          `json:"description"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	Discount    decimal.Decimal `json:"discount"`
	Other       decimal.Decimal `json:"other"`
	Total       decimal.Decimal `json:"total"`
	CFOP        string          `json:"cfop,omitempty"`
	NCM         string          `json:"ncm,omitempty"`
	ICMSBase    decimal.Decimal `json:"icms_base"`
	ICMSRate    decimal.Decimal `json:"icms_rate"`
	PISBase     decimal.Decimal `json:"pis_base"`
	PISRate     decimal.Decimal `json:"pis_rate"`
	COFINSBase  decimal.Decimal `json:"cofins_base"`
	COFINSRate  decimal.Decimal `json:"cofins_rate"`
}

// FaturaDTO boleto de la nota.
type FaturaDTO struct {
	ContractID string          `json:"contract_id,omitempty"`
	Number     string          `json:"number"`
	DueDate    string          `json:"due_date"` // YYYY-MM-DD
	Amount     decimal.Decimal `json:"amount"`
	Barcode    string          `json:"barcode,omitempty"`
}

// NFComListRequest filtros de GET /api/nfcom.
type NFComListRequest struct {
	PageRequest
	From     string `query:"from"` // YYYY-MM-DD
	To       string `query:"to"`
	Status   string `query:"status"`
	MinTotal string `query:"min_total"`
	MaxTotal string `query:"max_total"`
	Search   string `query:"q"`
}

// NFComListResponse página de notas.
type NFComListResponse struct {
	Items []NFComResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// CreateNFComRequest body para POST /api/nfcom: una nota que agrupa contratos
// del mismo cliente. El primer contrato define la cabecera.
type CreateNFComRequest struct {
	ContractIDs   []string `json:"contract_ids"`
	ReferenceDate string   `json:"reference_date,omitempty"` // YYYY-MM-DD, por defecto hoy
	Transmit      bool     `json:"transmit"`
}

// UpdateNFComRequest body para PUT /api/nfcom/:id (solo pendientes).
type UpdateNFComRequest struct {
	IssueDate string        `json:"issue_date,omitempty"`
	Items     []LineItemDTO `json:"items"`
	Faturas   []FaturaDTO   `json:"faturas"`
}

// CancelNFComRequest body para POST /api/nfcom/:id/cancel.
type CancelNFComRequest struct {
	Justification string `json:"justification"`
}

// AuthorityResultResponse resultado de transmitir, reenviar o cancelar.
type AuthorityResultResponse struct {
	Accepted bool          `json:"accepted"`
	Code     string        `json:"code,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	NFCom    NFComResponse `json:"nfcom"`
}

// EmailStatusResponse respuesta de GET /api/nfcom/:id/email-status.
type EmailStatusResponse struct {
	ID          string `json:"id"`
	EmailStatus string `json:"email_status"`
}
