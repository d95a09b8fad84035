package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// ErrTransient falla de red, timeout o 5xx del back office. Reintentable.
	ErrTransient = errors.New("falla transitoria, reintente")
	// ErrAuthorityRejected la SEFAZ rechazó el documento o el evento.
	// No se reintenta sin corrección.
	ErrAuthorityRejected = errors.New("rechazo de la SEFAZ")
	// ErrIntegrityViolation la acción rompería la numeración fiscal o apunta a un
	// documento inmutable. Se rechaza completa, sin acción parcial.
	ErrIntegrityViolation = errors.New("violación de integridad fiscal")
)

// RejectionError rechazo estructurado de la autoridad fiscal (cStat + xMotivo).
// Reason se muestra tal cual; nunca se parafrasea.
type RejectionError struct {
	Code   string
	Reason string
	Raw    string
}

func (e *RejectionError) Error() string {
	if e.Code == "" {
		return "SEFAZ: " + e.Reason
	}
	return fmt.Sprintf("SEFAZ [%s]: %s", e.Code, e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrAuthorityRejected }

// Reglas del guard de secuencia.
const (
	RuleImmutable   = "immutable"
	RuleGap         = "gap"
	RuleNotTrailing = "not_trailing"
	RuleEmpty       = "empty_selection"
)

// IntegrityError indica qué regla falló y qué números la provocaron.
// Numbers puede venir recortado; Count es la cantidad real.
type IntegrityError struct {
	Rule    string
	Numbers []int64
	Count   int
	Message string
}

func (e *IntegrityError) Error() string {
	if len(e.Numbers) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Numbers))
	for _, n := range e.Numbers {
		parts = append(parts, strconv.FormatInt(n, 10))
	}
	msg := e.Message + ": " + strings.Join(parts, ", ")
	if e.Count > len(e.Numbers) {
		msg += " y " + strconv.Itoa(e.Count-len(e.Numbers)) + " más"
	}
	return msg
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrityViolation }

// IsRetryable informa si el error admite reintento sin corrección del usuario.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
