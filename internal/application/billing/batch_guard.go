package billing

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/nfcom-bff/internal/domain"
)

// BatchGuard impide enviar dos veces el mismo lote mientras el primero sigue en curso.
// Lotes distintos no se serializan.
type BatchGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewBatchGuard construye el guard vacío.
func NewBatchGuard() *BatchGuard {
	return &BatchGuard{inflight: make(map[string]struct{})}
}

// Acquire reserva el lote (empresa, acción, conjunto de ids). El orden de ids no importa.
// Devuelve ErrConflict si ya hay uno idéntico en curso; release libera la reserva.
func (g *BatchGuard) Acquire(companyID, action string, ids []string) (release func(), err error) {
	key := batchKey(companyID, action, ids)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, fmt.Errorf("%w: ya hay un lote idéntico de %s en curso", domain.ErrConflict, action)
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

func batchKey(companyID, action string, ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return companyID + "|" + action + "|" + strings.Join(sorted, ",")
}
