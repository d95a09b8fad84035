package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados persistidos de la NFCom en el back office.
const (
	NFComStatusPending    = "pending"
	NFComStatusAuthorized = "authorized"
	NFComStatusCancelled  = "cancelled"
)

// NFComStatusRejected estado de vista: pendiente con rechazo de la SEFAZ.
// No existe como estado persistido.
const NFComStatusRejected = "rejected"

// Estados del envío de e-mail.
const (
	EmailStatusUnknown = "unknown"
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

// Rejection detalle del rechazo devuelto por la SEFAZ (cStat, xMotivo y XML crudo).
type Rejection struct {
	Code       string
	Reason     string
	Raw        string
	ReceivedAt time.Time
}

// NFCom Nota Fiscal de Comunicação. El número lo asigna el back office en orden
// estrictamente creciente por empresa.
type NFCom struct {
	ID             string
	CompanyID      string
	Number         int64
	Series         string
	ClientID       string
	IssueDate      time.Time
	Items          []LineItem
	Faturas        []Fatura
	Total          decimal.Decimal
	Protocol       *string // protocolo de autorización
	AuthorizedAt   *time.Time
	Status         string // pending | authorized | cancelled
	Rejection      *Rejection
	EmailStatus    string
	ContractNumber string
	ContractStart  *time.Time
	ContractEnd    *time.Time
	ContractIDs    []string
}

// HasProtocol indica si la nota tiene protocolo de autorización.
func (n *NFCom) HasProtocol() bool {
	return n.Protocol != nil && *n.Protocol != ""
}

// AuthorityResponse resultado de una transmisión o evento ante la SEFAZ,
// tal como lo devuelve el back office.
type AuthorityResponse struct {
	Accepted    bool
	Protocol    string
	ProcessedAt *time.Time
	Code        string // cStat
	Reason      string // xMotivo
	Raw         string // XML de retorno, si viene
}
