package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxFields atributos fiscales opcionales. nil significa "no informado" y habilita
// el fallback al catálogo de servicios.
type TaxFields struct {
	CFOP       *string
	NCM        *string
	ClassCode  *string // cClass de la NFCom
	ICMSBase   *decimal.Decimal
	ICMSRate   *decimal.Decimal
	PISBase    *decimal.Decimal
	PISRate    *decimal.Decimal
	COFINSBase *decimal.Decimal
	COFINSRate *decimal.Decimal
	Discount   *decimal.Decimal
	Other      *decimal.Decimal // outras despesas acessórias
}

// Contract suscripción de un cliente a un servicio. Nunca lo modifica el
// subsistema fiscal.
type Contract struct {
	ID          string
	CompanyID   string
	Number      string
	ClientID    string
	ServiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	StoredTotal *decimal.Decimal // valor total guardado en el contrato, si existe
	Periodicity string           // MENSAL | UNICA
	EmissionDay *int             // día de emisión/vencimiento 1-31
	DueDate     *time.Time       // vencimiento explícito
	StartDate   *time.Time
	EndDate     *time.Time
	Active      bool
	Status      string // ATIVO | SUSPENSO | CANCELADO | PENDENTE_INSTALACAO
	Tax         TaxFields
}

// NeedsServiceFallback indica si falta algún campo fiscal obligatorio
// (CFOP, base ICMS, alícuota ICMS o descuento).
func (c *Contract) NeedsServiceFallback() bool {
	return c.Tax.CFOP == nil || c.Tax.ICMSBase == nil || c.Tax.ICMSRate == nil || c.Tax.Discount == nil
}
