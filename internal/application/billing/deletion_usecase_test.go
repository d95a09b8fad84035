package billing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
)

// fiveDocs notas 1..5: 1 autorizada, 2 cancelada, 3..5 pendientes.
func fiveDocs() *fakeGateway {
	return newFakeGateway(
		authorizedDoc("n1", 1),
		cancelledDoc("n2", 2),
		pendingDoc("n3", 3),
		pendingDoc("n4", 4),
		pendingDoc("n5", 5),
	)
}

func integrityRule(t *testing.T, err error) *domain.IntegrityError {
	t.Helper()
	var ie *domain.IntegrityError
	require.True(t, errors.As(err, &ie), "se esperaba IntegrityError, se obtuvo %v", err)
	return ie
}

// ── BulkDelete ────────────────────────────────────────────────────────────────

func TestBulkDelete_ColaValida_OrdenDescendente(t *testing.T) {
	gw := fiveDocs()
	uc := billing.NewDeletionUseCase(gw, nil, 2, nil)

	out, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n4", "n3", "n5"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"n5", "n4", "n3"}, gw.deleted)
	assert.Equal(t, []int64{5, 4, 3}, out.Numbers)
}

func TestBulkDelete_Hueco_SinRequests(t *testing.T) {
	gw := fiveDocs()
	uc := billing.NewDeletionUseCase(gw, nil, 10, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n3", "n5"}})

	ie := integrityRule(t, err)
	assert.Equal(t, domain.RuleGap, ie.Rule)
	assert.Equal(t, []int64{4}, ie.Numbers)
	assert.Empty(t, gw.deleted)
}

func TestBulkDelete_NoEsCola_SinRequests(t *testing.T) {
	gw := fiveDocs()
	uc := billing.NewDeletionUseCase(gw, nil, 10, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n3", "n4"}})

	ie := integrityRule(t, err)
	assert.Equal(t, domain.RuleNotTrailing, ie.Rule)
	assert.Equal(t, []int64{5}, ie.Numbers)
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	assert.Empty(t, gw.deleted)
}

func TestBulkDelete_Inmutable_SinRequests(t *testing.T) {
	gw := fiveDocs()
	uc := billing.NewDeletionUseCase(gw, nil, 10, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n1", "n2"}})

	ie := integrityRule(t, err)
	assert.Equal(t, domain.RuleImmutable, ie.Rule)
	assert.Equal(t, []int64{1, 2}, ie.Numbers)
	assert.Empty(t, gw.deleted)
}

func TestBulkDelete_SeleccionVacia(t *testing.T) {
	uc := billing.NewDeletionUseCase(fiveDocs(), nil, 10, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{})

	ie := integrityRule(t, err)
	assert.Equal(t, domain.RuleEmpty, ie.Rule)
}

func TestBulkDelete_IdDesconocido_NotFound(t *testing.T) {
	gw := fiveDocs()
	uc := billing.NewDeletionUseCase(gw, nil, 10, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n5", "n9"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, gw.deleted)
}

func TestBulkDelete_FallaAMitad_InformaLoEliminado(t *testing.T) {
	gw := fiveDocs()
	gw.deleteErrOn["n4"] = fmt.Errorf("%w: 503", domain.ErrTransient)
	uc := billing.NewDeletionUseCase(gw, nil, 10, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n3", "n4", "n5"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Contains(t, err.Error(), "ya eliminadas: 5")
	assert.Equal(t, []string{"n5"}, gw.deleted, "lo eliminado sigue siendo la cola")
}

func TestBulkDelete_LoteEnCurso_Conflict(t *testing.T) {
	gw := fiveDocs()
	guard := billing.NewBatchGuard()
	release, err := guard.Acquire(testSess.CompanyID, "delete", []string{"n5"})
	require.NoError(t, err)
	defer release()
	uc := billing.NewDeletionUseCase(gw, guard, 10, nil)

	_, err = uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n5"}})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, gw.deleted)
}

// ── Listado sin total ─────────────────────────────────────────────────────────

func TestBulkDelete_SinTotal_RecorreHastaPaginaCorta(t *testing.T) {
	gw := newFakeGateway(
		pendingDoc("a97", 97),
		pendingDoc("a98", 98),
		pendingDoc("a99", 99),
		pendingDoc("b00", 100),
	)
	gw.unknownTotal = true
	uc := billing.NewDeletionUseCase(gw, nil, 2, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"a97", "a98"}})

	ie := integrityRule(t, err)
	assert.Equal(t, domain.RuleNotTrailing, ie.Rule)
	assert.Equal(t, []int64{99, 100}, ie.Numbers)
	assert.Empty(t, gw.deleted)
}

func TestBulkDelete_SinTotal_ColaValida(t *testing.T) {
	gw := newFakeGateway(
		pendingDoc("a97", 97),
		pendingDoc("a98", 98),
		pendingDoc("a99", 99),
		pendingDoc("b00", 100),
	)
	gw.unknownTotal = true
	uc := billing.NewDeletionUseCase(gw, nil, 2, nil)

	out, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"a99", "b00"}})
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 99}, out.Numbers)
}

func TestBulkDelete_PaginacionIgnorada_Transitorio(t *testing.T) {
	gw := newFakeGateway(
		pendingDoc("a97", 97),
		pendingDoc("a98", 98),
		pendingDoc("a99", 99),
	)
	gw.unknownTotal = true
	gw.ignorePage = true
	uc := billing.NewDeletionUseCase(gw, nil, 2, nil)

	_, err := uc.BulkDelete(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"a97", "a98"}})

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.True(t, domain.IsRetryable(err))
	assert.Empty(t, gw.deleted, "el guard no corre sobre un universo parcial")
}
