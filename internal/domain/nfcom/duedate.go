// Package nfcom reúne las reglas puras del ciclo de la NFCom: vencimiento,
// elegibilidad de contratos, totales de ítems, máquina de estados y el guard de
// secuencia para exclusión masiva. No hace I/O.
package nfcom

import (
	"time"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// DateOnly trunca t al inicio del día en su propia zona.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// civil convierte a fecha calendario en UTC para comparar fechas de zonas distintas.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveDueDate calcula el vencimiento de la fatura de un contrato.
//
// Prioridad:
//  1. vencimiento explícito del contrato, sin cambios;
//  2. día de emisión: se ajusta al último día válido del mes de referencia y, si
//     queda antes de ref, pasa al mismo día (ajustado) del mes siguiente;
//  3. fecha fin y luego fecha inicio del contrato;
//  4. ref.
//
// Días fuera de rango se ajustan sin error.
func ResolveDueDate(c *entity.Contract, ref time.Time) time.Time {
	ref = DateOnly(ref)
	if c == nil {
		return ref
	}
	if c.DueDate != nil {
		return *c.DueDate
	}
	if c.EmissionDay != nil {
		day := *c.EmissionDay
		candidate := clampedDate(ref.Year(), ref.Month(), day, ref.Location())
		if candidate.Before(ref) {
			next := time.Date(ref.Year(), ref.Month()+1, 1, 0, 0, 0, 0, ref.Location())
			candidate = clampedDate(next.Year(), next.Month(), day, ref.Location())
		}
		return candidate
	}
	if c.EndDate != nil {
		return DateOnly(*c.EndDate)
	}
	if c.StartDate != nil {
		return DateOnly(*c.StartDate)
	}
	return ref
}

// clampedDate construye la fecha con el día limitado a [1, último día del mes].
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	last := daysIn(year, month, loc)
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
