package billing_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/application/dto"
	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
)

func newLifecycle(gw *fakeGateway, j repository.JournalRepository, cs ...*entity.Contract) *billing.LifecycleUseCase {
	composer := billing.NewComposer(&fakeServices{}, "", nil)
	return billing.NewLifecycleUseCase(newFakeContracts(cs...), gw, composer, j, fixedClock(day(2024, 3, 1)), nil)
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreate_VariosContratos_UnaNota(t *testing.T) {
	gw := newFakeGateway()
	uc := newLifecycle(gw, newFakeJournal(), fullContract("c1"), fullContract("c2"))

	out, err := uc.Create(context.Background(), testSess, dto.CreateNFComRequest{ContractIDs: []string{"c1", "c2"}})
	require.NoError(t, err)

	require.Len(t, gw.created, 1)
	assert.Len(t, gw.created[0].Items, 2)
	assert.Len(t, gw.created[0].Faturas, 2)
	assert.Equal(t, entity.NFComStatusPending, out.Status)
	assert.Equal(t, 0, gw.transmits)
}

func TestCreate_ConTransmitRechazada_NotaQuedaCreada(t *testing.T) {
	gw := newFakeGateway()
	gw.transmitResp = &entity.AuthorityResponse{Accepted: false, Code: "225", Reason: "Falha no Schema XML"}
	j := newFakeJournal()
	uc := newLifecycle(gw, j, fullContract("c1"))

	out, err := uc.Create(context.Background(), testSess, dto.CreateNFComRequest{ContractIDs: []string{"c1"}, Transmit: true})
	require.NoError(t, err)

	assert.Len(t, gw.created, 1)
	assert.Equal(t, gw.created[0].ID, out.ID)
	assert.Equal(t, entity.NFComStatusRejected, out.Status)
	require.NotNil(t, out.Rejection)
	assert.Equal(t, "225", out.Rejection.Code)
	assert.Equal(t, "Falha no Schema XML", out.Rejection.Reason)
	assert.True(t, out.Actions.Resend)
	assert.Empty(t, out.Warning)
	assert.Len(t, j.rejections, 1)
}

func TestCreate_ConTransmitTransitorio_DevuelveNotaConAviso(t *testing.T) {
	gw := newFakeGateway()
	gw.transmitErr = fmt.Errorf("%w: back office 503", domain.ErrTransient)
	j := newFakeJournal()
	uc := newLifecycle(gw, j, fullContract("c1"))

	out, err := uc.Create(context.Background(), testSess, dto.CreateNFComRequest{ContractIDs: []string{"c1"}, Transmit: true})
	require.NoError(t, err)
	require.Len(t, gw.created, 1)
	assert.Equal(t, gw.created[0].ID, out.ID)
	assert.Equal(t, gw.created[0].Number, out.Number)
	assert.Equal(t, entity.NFComStatusPending, out.Status)
	assert.Contains(t, out.Warning, "transmisión pendiente")
	assert.True(t, out.Actions.Transmit)
	assert.Empty(t, j.rejections)

	// el reintento va por Transmit sobre la misma nota: no se crea otra
	gw.transmitErr = nil
	gw.transmitResp = &entity.AuthorityResponse{Accepted: true, Code: "100", Protocol: "343240000000001"}
	res, err := uc.Transmit(context.Background(), testSess, out.ID)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Len(t, gw.created, 1)
}

func TestCreate_ContratoInactivo_InvalidInput(t *testing.T) {
	ct := fullContract("c1")
	ct.Active = false
	gw := newFakeGateway()
	uc := newLifecycle(gw, nil, ct)

	_, err := uc.Create(context.Background(), testSess, dto.CreateNFComRequest{ContractIDs: []string{"c1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gw.created)
}

func TestCreate_FechaReferenciaInvalida_InvalidInput(t *testing.T) {
	uc := newLifecycle(newFakeGateway(), nil, fullContract("c1"))

	_, err := uc.Create(context.Background(), testSess, dto.CreateNFComRequest{ContractIDs: []string{"c1"}, ReferenceDate: "01/03/2024"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Transmit / Resend ─────────────────────────────────────────────────────────

func TestTransmit_Autorizada(t *testing.T) {
	gw := newFakeGateway(pendingDoc("n1", 10))
	gw.transmitResp = &entity.AuthorityResponse{Accepted: true, Protocol: "343240000000010", Code: "100", Reason: "Autorizado o uso da NFCom"}
	uc := newLifecycle(gw, newFakeJournal())

	out, err := uc.Transmit(context.Background(), testSess, "n1")
	require.NoError(t, err)

	assert.True(t, out.Accepted)
	assert.Equal(t, entity.NFComStatusAuthorized, out.NFCom.Status)
	assert.Equal(t, "343240000000010", out.NFCom.Protocol)
	assert.True(t, out.NFCom.Actions.Cancel)
	assert.False(t, out.NFCom.Actions.Edit)
}

func TestTransmit_Rechazada_RejectionErrorYBitacora(t *testing.T) {
	gw := newFakeGateway(pendingDoc("n1", 10))
	gw.transmitResp = &entity.AuthorityResponse{Accepted: false, Code: "539", Reason: "Rejeição: Duplicidade de NFCom", Raw: "<retNFCom/>"}
	j := newFakeJournal()
	uc := newLifecycle(gw, j)

	_, err := uc.Transmit(context.Background(), testSess, "n1")

	var rej *domain.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "Rejeição: Duplicidade de NFCom", rej.Reason, "el motivo se devuelve literal")
	assert.ErrorIs(t, err, domain.ErrAuthorityRejected)
	require.Len(t, j.rejections, 1)
	assert.Equal(t, int64(10), j.rejections[0].Number)
	assert.Equal(t, "<retNFCom/>", j.rejections[0].Rejection.Raw)
}

func TestTransmit_NoPendiente_Conflict(t *testing.T) {
	gw := newFakeGateway(authorizedDoc("n1", 10))
	uc := newLifecycle(gw, nil)

	_, err := uc.Transmit(context.Background(), testSess, "n1")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, gw.transmits)
}

func TestResend_RegistraComoTransmit(t *testing.T) {
	doc := pendingDoc("n1", 10)
	doc.Rejection = &entity.Rejection{Code: "539", Reason: "Duplicidade"}
	gw := newFakeGateway(doc)
	gw.transmitResp = &entity.AuthorityResponse{Accepted: false, Code: "204", Reason: "Duplicidade de NFCom"}
	j := newFakeJournal()
	uc := newLifecycle(gw, j)

	_, err := uc.Resend(context.Background(), testSess, "n1")
	require.Error(t, err)
	require.Len(t, j.rejections, 1)
	assert.Equal(t, "transmit", j.rejections[0].Action)
	assert.Equal(t, "204", j.rejections[0].Rejection.Code)
}

func TestTransmit_NotaInexistente_NotFound(t *testing.T) {
	uc := newLifecycle(newFakeGateway(), nil)

	_, err := uc.Transmit(context.Background(), testSess, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func TestCancel_JustificacionCorta_SinRequest(t *testing.T) {
	gw := newFakeGateway(authorizedDoc("n1", 10))
	uc := newLifecycle(gw, nil)

	_, err := uc.Cancel(context.Background(), testSess, "n1", dto.CancelNFComRequest{Justification: strings.Repeat("a", 14)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, gw.canceled)
}

func TestCancel_Aceptada(t *testing.T) {
	gw := newFakeGateway(authorizedDoc("n1", 10))
	gw.cancelResp = &entity.AuthorityResponse{Accepted: true, Code: "135", Reason: "Evento registrado"}
	uc := newLifecycle(gw, nil)

	out, err := uc.Cancel(context.Background(), testSess, "n1", dto.CancelNFComRequest{Justification: "  Cliente solicitou o cancelamento  "})
	require.NoError(t, err)
	assert.Equal(t, entity.NFComStatusCancelled, out.NFCom.Status)
	assert.Equal(t, []string{"n1"}, gw.canceled)
	assert.False(t, out.NFCom.Actions.Email)
}

func TestCancel_Rechazada_SigueAutorizada(t *testing.T) {
	gw := newFakeGateway(authorizedDoc("n1", 10))
	gw.cancelResp = &entity.AuthorityResponse{Accepted: false, Code: "501", Reason: "Prazo de cancelamento superior ao previsto"}
	j := newFakeJournal()
	uc := newLifecycle(gw, j)

	_, err := uc.Cancel(context.Background(), testSess, "n1", dto.CancelNFComRequest{Justification: "Cliente solicitou o cancelamento"})

	var rej *domain.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "501", rej.Code)
	assert.Equal(t, entity.NFComStatusAuthorized, gw.docs["n1"].Status)
	require.Len(t, j.rejections, 1)
	assert.Equal(t, "cancel", j.rejections[0].Action)
}

func TestCancel_Pendiente_Conflict(t *testing.T) {
	gw := newFakeGateway(pendingDoc("n1", 10))
	uc := newLifecycle(gw, nil)

	_, err := uc.Cancel(context.Background(), testSess, "n1", dto.CancelNFComRequest{Justification: "Cliente solicitou o cancelamento"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, gw.canceled)
}

// ── Update ────────────────────────────────────────────────────────────────────

func validUpdate() dto.UpdateNFComRequest {
	return dto.UpdateNFComRequest{
		IssueDate: "2024-03-05",
		Items: []dto.LineItemDTO{{
			ServiceID:   "svc-1",
			Description: "Internet 500MB",
			Quantity:    decimal.NewFromInt(2),
			UnitValue:   dec("49.90"),
			Discount:    dec("4.80"),
		}},
		Faturas: []dto.FaturaDTO{{Number: "CT-c1", DueDate: "2024-03-10", Amount: dec("95.00")}},
	}
}

func TestUpdate_Pendiente_RecalculaTotal(t *testing.T) {
	gw := newFakeGateway(pendingDoc("n1", 10))
	uc := newLifecycle(gw, nil)

	out, err := uc.Update(context.Background(), testSess, "n1", validUpdate())
	require.NoError(t, err)

	require.Len(t, gw.updated, 1)
	assert.True(t, gw.updated[0].Total.Equal(dec("95.00")))
	assert.Equal(t, day(2024, 3, 5), gw.updated[0].IssueDate)
	assert.True(t, out.Total.Equal(dec("95.00")))
}

func TestUpdate_Autorizada_Conflict(t *testing.T) {
	gw := newFakeGateway(authorizedDoc("n1", 10))
	uc := newLifecycle(gw, nil)

	_, err := uc.Update(context.Background(), testSess, "n1", validUpdate())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, gw.updated)
}

func TestUpdate_Validaciones(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.UpdateNFComRequest)
	}{
		{"sin ítems", func(r *dto.UpdateNFComRequest) { r.Items = nil }},
		{"ítem sin servicio", func(r *dto.UpdateNFComRequest) { r.Items[0].ServiceID = "" }},
		{"cantidad negativa", func(r *dto.UpdateNFComRequest) { r.Items[0].Quantity = dec("-1") }},
		{"vencimiento inválido", func(r *dto.UpdateNFComRequest) { r.Faturas[0].DueDate = "10/03/2024" }},
		{"fecha de emisión inválida", func(r *dto.UpdateNFComRequest) { r.IssueDate = "ayer" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway(pendingDoc("n1", 10))
			uc := newLifecycle(gw, nil)
			in := validUpdate()
			tt.mutate(&in)

			_, err := uc.Update(context.Background(), testSess, "n1", in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, gw.updated)
		})
	}
}
