package nfcom

import (
	"fmt"
	"time"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// ValidateContract verifica que la fecha fin no sea anterior a la de inicio.
func ValidateContract(c *entity.Contract) error {
	if c == nil {
		return fmt.Errorf("%w: contrato nulo", domain.ErrInvalidInput)
	}
	if c.StartDate != nil && c.EndDate != nil && civil(*c.EndDate).Before(civil(*c.StartDate)) {
		return fmt.Errorf("%w: contrato %s con fecha fin %s anterior al inicio %s",
			domain.ErrInvalidInput, c.Number,
			c.EndDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02"))
	}
	return nil
}

// IsExpired solo aplica a contratos activos: uno inactivo nunca se marca vencido.
func IsExpired(c *entity.Contract, today time.Time) bool {
	if c == nil || c.EndDate == nil || !c.Active {
		return false
	}
	return civil(*c.EndDate).Before(civil(today))
}

// IsEligibleForEmission activo y no vencido.
func IsEligibleForEmission(c *entity.Contract, today time.Time) bool {
	return c != nil && c.Active && !IsExpired(c, today)
}

// EligibleContracts filtra los contratos que pueden generar NFCom, preservando el orden.
func EligibleContracts(contracts []*entity.Contract, today time.Time) []*entity.Contract {
	out := make([]*entity.Contract, 0, len(contracts))
	for _, c := range contracts {
		if IsEligibleForEmission(c, today) {
			out = append(out, c)
		}
	}
	return out
}

// IneligibilityReason explica por qué un contrato no puede emitir. Vacío si es elegible.
func IneligibilityReason(c *entity.Contract, today time.Time) string {
	switch {
	case c == nil:
		return "contrato no encontrado"
	case !c.Active:
		return fmt.Sprintf("contrato %s inactivo", c.Number)
	case IsExpired(c, today):
		return fmt.Sprintf("contrato %s vencido el %s", c.Number, c.EndDate.Format("2006-01-02"))
	}
	return ""
}
