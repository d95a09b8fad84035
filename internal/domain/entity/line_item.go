package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem ítem facturable de la NFCom. Total siempre es derivado
// (quantity*unit_value - discount + other).
type LineItem struct {
	ContractID  string
	ServiceID   string
	ClassCode   string
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitValue   decimal.Decimal
	Discount    decimal.Decimal
	Other       decimal.Decimal
	Total       decimal.Decimal
	CFOP        string
	NCM         string
	ICMSBase    decimal.Decimal
	ICMSRate    decimal.Decimal
	PISBase     decimal.Decimal
	PISRate     decimal.Decimal
	COFINSBase  decimal.Decimal
	COFINSRate  decimal.Decimal
}

// Fatura boleto asociado a la NFCom. Uno por contrato.
type Fatura struct {
	ContractID string
	Number     string
	DueDate    time.Time
	Amount     decimal.Decimal
	Barcode    *string
}
