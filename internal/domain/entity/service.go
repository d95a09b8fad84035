package entity

import "github.com/shopspring/decimal"

// Service ítem del catálogo. Fuente de valores fiscales por defecto cuando el
// contrato no los trae.
type Service struct {
	ID          string
	CompanyID   string
	Code        string
	Description string
	Unit        string
	UnitPrice   decimal.Decimal
	CFOP        string
	NCM         string
	ClassCode   string
	ICMSBase    decimal.Decimal
	ICMSRate    decimal.Decimal
	PISBase     decimal.Decimal
	PISRate     decimal.Decimal
	COFINSBase  decimal.Decimal
	COFINSRate  decimal.Decimal
	Discount    decimal.Decimal
	Other       decimal.Decimal
}
