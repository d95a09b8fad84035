package nfcom

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// LineTotal total del ítem: quantity*unit_value - discount + other, redondeado a 2 decimales.
func LineTotal(quantity, unitValue, discount, other decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitValue).Sub(discount).Add(other).Round(2)
}

// DocumentTotal suma de los totales de los ítems.
func DocumentTotal(items []entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	return total.Round(2)
}
