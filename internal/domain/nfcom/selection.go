package nfcom

import (
	"time"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// SelectAll estado del checkbox "seleccionar todo".
type SelectAll string

const (
	SelectAllChecked       SelectAll = "checked"
	SelectAllIndeterminate SelectAll = "indeterminate"
	SelectAllUnchecked     SelectAll = "unchecked"
)

// SelectAllState calcula el tri-estado considerando solo los contratos elegibles.
// Los ids seleccionados que no son elegibles se ignoran.
func SelectAllState(contracts []*entity.Contract, selected []string, today time.Time) SelectAll {
	eligible := EligibleContracts(contracts, today)
	if len(eligible) == 0 {
		return SelectAllUnchecked
	}
	sel := toSet(selected)
	n := 0
	for _, c := range eligible {
		if sel[c.ID] {
			n++
		}
	}
	switch {
	case n == 0:
		return SelectAllUnchecked
	case n == len(eligible):
		return SelectAllChecked
	default:
		return SelectAllIndeterminate
	}
}

// ToggleSelectAll aplica el clic en "seleccionar todo": si estaba marcado quita los
// elegibles de la selección, si no los agrega. Los ids ajenos a la página se conservan.
func ToggleSelectAll(contracts []*entity.Contract, selected []string, today time.Time) []string {
	eligible := EligibleContracts(contracts, today)
	if SelectAllState(contracts, selected, today) == SelectAllChecked {
		drop := make(map[string]bool, len(eligible))
		for _, c := range eligible {
			drop[c.ID] = true
		}
		out := make([]string, 0, len(selected))
		for _, id := range selected {
			if !drop[id] {
				out = append(out, id)
			}
		}
		return out
	}
	out := append([]string(nil), selected...)
	sel := toSet(selected)
	for _, c := range eligible {
		if !sel[c.ID] {
			out = append(out, c.ID)
			sel[c.ID] = true
		}
	}
	return out
}

// RemainingSelection quita de la selección solo los ids que tuvieron éxito.
// Los fallidos quedan seleccionados para reintentar. Los éxitos de un dry run
// no persisten nada y no se quitan.
func RemainingSelection(selection []string, result *entity.BatchResult) []string {
	if result == nil {
		return append([]string(nil), selection...)
	}
	done := make(map[string]bool, len(result.Successes))
	for _, s := range result.Successes {
		if s.DryRun {
			continue
		}
		if s.ContractID != "" {
			done[s.ContractID] = true
		}
		if s.NFComID != "" {
			done[s.NFComID] = true
		}
	}
	out := make([]string, 0, len(selection))
	for _, id := range selection {
		if !done[id] {
			out = append(out, id)
		}
	}
	return out
}

// UniqueIDs elimina vacíos y duplicados preservando el orden.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
