package nfcom

import (
	"sort"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// CanBulkDelete valida que la exclusión de selected no deje huecos en la
// numeración fiscal. all es el universo de notas de la empresa.
//
// Reglas, en orden:
//   - ninguna seleccionada puede estar autorizada o cancelada;
//   - los números seleccionados forman un rango continuo;
//   - el mayor seleccionado es el mayor entre las pendientes.
//
// Las canceladas no cuentan para la última regla: su número ya quedó consumido
// ante la SEFAZ. La serie no se considera (numeración por empresa).
func CanBulkDelete(selected, all []*entity.NFCom) error {
	if len(selected) == 0 {
		return &domain.IntegrityError{Rule: domain.RuleEmpty, Message: "no hay notas seleccionadas"}
	}

	var immutable []int64
	for _, doc := range selected {
		if IsImmutable(doc) {
			immutable = append(immutable, doc.Number)
		}
	}
	if len(immutable) > 0 {
		immutable = sortedUnique(immutable)
		return integrityError(domain.RuleImmutable, immutable, len(immutable),
			"no se pueden excluir notas autorizadas o canceladas")
	}

	nums := make([]int64, 0, len(selected))
	for _, doc := range selected {
		nums = append(nums, doc.Number)
	}
	nums = sortedUnique(nums)
	minSel, maxSel := nums[0], nums[len(nums)-1]

	present := make(map[int64]bool, len(nums))
	for _, n := range nums {
		present[n] = true
	}
	// el rango puede ser enorme: solo se recolectan los primeros faltantes
	if span := maxSel - minSel + 1; span > int64(len(nums)) {
		missing := make([]int64, 0, maxReportedNumbers)
		for n := minSel; n <= maxSel && len(missing) < maxReportedNumbers; n++ {
			if !present[n] {
				missing = append(missing, n)
			}
		}
		return integrityError(domain.RuleGap, missing, int(span)-len(nums),
			"la selección deja huecos en la numeración; faltan")
	}

	var above []int64
	for _, doc := range all {
		if doc.Status == entity.NFComStatusPending && doc.Number > maxSel {
			above = append(above, doc.Number)
		}
	}
	if len(above) > 0 {
		above = sortedUnique(above)
		return integrityError(domain.RuleNotTrailing, above, len(above),
			"solo se excluyen las últimas notas pendientes; existen pendientes posteriores")
	}
	return nil
}

// maxReportedNumbers tope de números listados en un IntegrityError.
const maxReportedNumbers = 20

func integrityError(rule string, numbers []int64, count int, msg string) *domain.IntegrityError {
	if len(numbers) > maxReportedNumbers {
		numbers = numbers[:maxReportedNumbers]
	}
	return &domain.IntegrityError{Rule: rule, Numbers: numbers, Count: count, Message: msg}
}

// DeletionOrder devuelve las notas de mayor a menor número, el orden en que se excluyen.
func DeletionOrder(selected []*entity.NFCom) []*entity.NFCom {
	out := append([]*entity.NFCom(nil), selected...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

func sortedUnique(nums []int64) []int64 {
	cp := append([]int64(nil), nums...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := make([]int64, 0, len(cp))
	for _, n := range cp {
		if len(out) == 0 || out[len(out)-1] != n {
			out = append(out, n)
		}
	}
	return out
}
