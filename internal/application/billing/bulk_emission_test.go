package billing_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

type bulkFixture struct {
	contracts *fakeContracts
	gateway   *fakeGateway
	journal   *fakeJournal
	guard     *billing.BatchGuard
	uc        *billing.BulkEmissionUseCase
}

func newBulkFixture(cs ...*entity.Contract) *bulkFixture {
	f := &bulkFixture{
		contracts: newFakeContracts(cs...),
		gateway:   newFakeGateway(),
		journal:   newFakeJournal(),
		guard:     billing.NewBatchGuard(),
	}
	composer := billing.NewComposer(&fakeServices{}, "", nil)
	f.uc = billing.NewBulkEmissionUseCase(f.contracts, f.gateway, composer, f.journal, f.guard, fixedClock(day(2024, 3, 1)), nil)
	return f
}

func fiveContracts() []*entity.Contract {
	cs := make([]*entity.Contract, 0, 5)
	for i := 1; i <= 5; i++ {
		cs = append(cs, fullContract(fmt.Sprintf("c%d", i)))
	}
	return cs
}

// ── BulkEmit ──────────────────────────────────────────────────────────────────

func TestBulkEmit_FallaParcial_ContinuaYConservaSeleccion(t *testing.T) {
	cs := fiveContracts()
	cs[2].ClientID = ""
	f := newBulkFixture(cs...)
	ids := []string{"c1", "c2", "c3", "c4", "c5"}

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: ids, Execute: true})
	require.NoError(t, err)

	assert.Equal(t, 5, out.TotalProcessed)
	assert.Equal(t, 4, out.TotalSuccess)
	assert.Equal(t, 1, out.TotalFailed)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "c3", out.Failures[0].ContractID)
	assert.False(t, out.Failures[0].Retryable)
	assert.Equal(t, []string{"c3"}, out.RemainingSelection)
	assert.Len(t, f.gateway.created, 4)

	saved, ok := f.journal.batches[out.BatchID]
	require.True(t, ok, "el manifiesto se guarda en la bitácora")
	assert.Equal(t, 4, saved.TotalSuccess)
}

func TestBulkEmit_DryRun_NoCreaNiGuarda(t *testing.T) {
	f := newBulkFixture(fiveContracts()...)

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1", "c2"}})
	require.NoError(t, err)

	assert.Equal(t, 2, out.TotalSuccess)
	assert.Empty(t, f.gateway.created)
	assert.Empty(t, f.journal.batches)
	for _, s := range out.Successes {
		assert.True(t, s.DryRun)
		assert.True(t, s.Total.Equal(dec("29.00")))
	}
	assert.Equal(t, []string{"c1", "c2"}, out.RemainingSelection, "un dry run no consume la selección")
}

func TestBulkEmit_ContratoVencidoOInactivo_Falla(t *testing.T) {
	expired := fullContract("c1")
	end := day(2024, 2, 1)
	expired.EndDate = &end
	inactive := fullContract("c2")
	inactive.Active = false
	f := newBulkFixture(expired, inactive)

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1", "c2"}, Execute: true})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalFailed)
	assert.Empty(t, f.gateway.created)
}

func TestBulkEmit_ContratoInexistente_FallaPorItem(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))
	f.contracts.errOn["c9"] = fmt.Errorf("%w: timeout", domain.ErrTransient)

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c9", "c1"}, Execute: true})
	require.NoError(t, err)
	require.Len(t, out.Failures, 1)
	assert.True(t, out.Failures[0].Retryable)
	assert.Equal(t, 1, out.TotalSuccess)
}

func TestBulkEmit_TransmitRechazada_ExitoConRechazo(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))
	f.gateway.transmitResp = &entity.AuthorityResponse{Accepted: false, Code: "539", Reason: "Duplicidade de NFCom"}

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1"}, Execute: true, Transmit: true})
	require.NoError(t, err)

	require.Len(t, out.Successes, 1)
	s := out.Successes[0]
	assert.Equal(t, entity.NFComStatusRejected, s.Status)
	require.NotNil(t, s.Rejection)
	assert.Equal(t, "539", s.Rejection.Code)
	assert.Equal(t, "Duplicidade de NFCom", s.Rejection.Reason)

	require.Len(t, f.journal.rejections, 1)
	assert.Equal(t, "transmit", f.journal.rejections[0].Action)
	assert.Empty(t, out.RemainingSelection, "la nota existe: no se reintenta la creación")
}

func TestBulkEmit_TransmitAutorizada(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))
	f.gateway.transmitResp = &entity.AuthorityResponse{Accepted: true, Protocol: "343240000012345", Code: "100"}

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1"}, Execute: true, Transmit: true})
	require.NoError(t, err)

	require.Len(t, out.Successes, 1)
	assert.Equal(t, entity.NFComStatusAuthorized, out.Successes[0].Status)
	assert.Equal(t, "343240000012345", out.Successes[0].Protocol)
}

func TestBulkEmit_TransmitTransitoria_ExitoConAdvertencia(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))
	f.gateway.transmitErr = fmt.Errorf("%w: 503", domain.ErrTransient)

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1"}, Execute: true, Transmit: true})
	require.NoError(t, err)

	require.Len(t, out.Successes, 1)
	assert.Equal(t, entity.NFComStatusPending, out.Successes[0].Status)
	assert.NotEmpty(t, out.Successes[0].Warning)
}

func TestBulkEmit_TransmitSinExecute_InvalidInput(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))

	_, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1"}, Transmit: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBulkEmit_SinContratos_InvalidInput(t *testing.T) {
	f := newBulkFixture()

	_, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"", ""}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBulkEmit_SesionInvalida_Unauthorized(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))

	_, err := f.uc.BulkEmit(context.Background(), entity.Session{}, dto.BulkEmitRequest{ContractIDs: []string{"c1"}})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBulkEmit_ContextoCancelado_RestantesReintentables(t *testing.T) {
	f := newBulkFixture(fiveContracts()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.uc.BulkEmit(ctx, testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1", "c2", "c3"}, Execute: true})
	require.NoError(t, err)

	assert.Equal(t, 3, out.TotalFailed)
	for _, fl := range out.Failures {
		assert.True(t, fl.Retryable)
	}
	assert.Empty(t, f.gateway.created)
	assert.Len(t, f.journal.batches, 1, "el manifiesto se guarda aun con el request cancelado")
}

func TestBulkEmit_LoteEnCurso_Conflict(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))
	release, err := f.guard.Acquire(testSess.CompanyID, entity.BatchActionEmit, []string{"c1"})
	require.NoError(t, err)
	defer release()

	_, err = f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{ContractIDs: []string{"c1"}, Execute: true})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.gateway.created)
}

func TestBulkEmit_SeleccionExplicita_QuitaSoloExitos(t *testing.T) {
	f := newBulkFixture(fullContract("c1"))

	out, err := f.uc.BulkEmit(context.Background(), testSess, dto.BulkEmitRequest{
		ContractIDs: []string{"c1"},
		Execute:     true,
		Selection:   []string{"c1", "c7"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c7"}, out.RemainingSelection)
}

// ── BulkTransmit / SendEmails ─────────────────────────────────────────────────

func TestBulkTransmit_NoPendientes_FallanPorItem(t *testing.T) {
	f := newBulkFixture()
	f.gateway.docs["n1"] = pendingDoc("n1", 1)
	f.gateway.docs["n2"] = authorizedDoc("n2", 2)
	f.gateway.docs["n3"] = cancelledDoc("n3", 3)

	out, err := f.uc.BulkTransmit(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n1", "n2", "n3"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"n1"}, f.gateway.bulkSent)
	assert.Equal(t, 1, out.TotalSuccess)
	assert.Equal(t, 2, out.TotalFailed)
	assert.Equal(t, []string{"n2", "n3"}, out.RemainingSelection)
	for _, fl := range out.Failures {
		assert.False(t, fl.Retryable)
	}
}

func TestBulkTransmit_SobreConRechazo_SeRegistraEnBitacora(t *testing.T) {
	f := newBulkFixture()
	f.gateway.docs["n1"] = pendingDoc("n1", 1)
	f.gateway.docs["n2"] = pendingDoc("n2", 2)
	env := &entity.BatchResult{}
	env.AddSuccess(entity.BatchSuccess{NFComID: "n1", Protocol: "343240000000001"})
	env.AddFailure(entity.BatchFailure{NFComID: "n2", Code: "207", Reason: "Rejeicao: CNPJ do emitente invalido"})
	f.gateway.bulkResp = env

	out, err := f.uc.BulkTransmit(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n1", "n2"}})
	require.NoError(t, err)

	require.Len(t, out.Successes, 1)
	assert.Equal(t, entity.NFComStatusAuthorized, out.Successes[0].Status)
	assert.Equal(t, int64(1), out.Successes[0].Number)
	require.Len(t, out.Failures, 1)
	assert.False(t, out.Failures[0].Retryable)
	assert.Equal(t, "207", out.Failures[0].Code)
	require.Len(t, f.journal.rejections, 1)
	assert.Equal(t, "n2", f.journal.rejections[0].NFComID)
	assert.Equal(t, "207", f.journal.rejections[0].Rejection.Code)
}

func TestBulkTransmit_FallaSinCStat_ReintentableYSinBitacora(t *testing.T) {
	f := newBulkFixture()
	f.gateway.docs["n1"] = pendingDoc("n1", 1)
	env := &entity.BatchResult{}
	env.AddFailure(entity.BatchFailure{NFComID: "n1", Reason: "timeout consultando a SEFAZ"})
	f.gateway.bulkResp = env

	out, err := f.uc.BulkTransmit(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n1"}})
	require.NoError(t, err)

	require.Len(t, out.Failures, 1)
	assert.True(t, out.Failures[0].Retryable)
	assert.Empty(t, out.Failures[0].Code)
	assert.Empty(t, f.journal.rejections, "sin cStat no es rechazo de la SEFAZ")
	assert.Equal(t, []string{"n1"}, out.RemainingSelection)
}

func TestSendEmails_IdAusenteDelSobre_Reintentable(t *testing.T) {
	f := newBulkFixture()
	f.gateway.docs["n1"] = authorizedDoc("n1", 1)
	f.gateway.docs["n2"] = authorizedDoc("n2", 2)
	env := &entity.BatchResult{}
	env.AddSuccess(entity.BatchSuccess{NFComID: "n1"})
	f.gateway.bulkResp = env

	out, err := f.uc.SendEmails(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n1", "n2"}})
	require.NoError(t, err)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, "n2", out.Failures[0].NFComID)
	assert.True(t, out.Failures[0].Retryable)
}

func TestSendEmails_FallaTransitoriaDelEndpoint_TodasReintentables(t *testing.T) {
	f := newBulkFixture()
	f.gateway.docs["n1"] = pendingDoc("n1", 1)
	f.gateway.docs["n2"] = cancelledDoc("n2", 2)
	f.gateway.bulkErr = fmt.Errorf("%w: 502", domain.ErrTransient)

	out, err := f.uc.SendEmails(context.Background(), testSess, dto.BulkDocumentsRequest{NFComIDs: []string{"n1", "n2"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"n1"}, f.gateway.bulkSent, "la cancelada no se envía")
	require.Len(t, out.Failures, 2)
	byID := map[string]dto.BatchFailureDTO{}
	for _, fl := range out.Failures {
		byID[fl.NFComID] = fl
	}
	assert.True(t, byID["n1"].Retryable)
	assert.False(t, byID["n2"].Retryable)
}
