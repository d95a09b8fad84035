package nfcom_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/nfcom"
)

func TestLineTotal_ConDescuentoYOtros(t *testing.T) {
	got := nfcom.LineTotal(decimal.NewFromInt(3), decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.NewFromInt(1))
	assert.True(t, decimal.RequireFromString("29.00").Equal(got), "got %s", got)
}

func TestDocumentTotal_SumaItems(t *testing.T) {
	items := []entity.LineItem{
		{Total: decimal.RequireFromString("29.00")},
		{Total: decimal.RequireFromString("10.50")},
	}
	assert.Equal(t, "39.5", nfcom.DocumentTotal(items).String())
}

func pending(n int64) *entity.NFCom {
	return &entity.NFCom{ID: "doc", Number: n, Status: entity.NFComStatusPending}
}

func TestViewStatus_PendienteConRechazoEsRejected(t *testing.T) {
	doc := pending(1)
	assert.Equal(t, entity.NFComStatusPending, nfcom.ViewStatus(doc))
	doc.Rejection = &entity.Rejection{Code: "539", Reason: "Duplicidade"}
	assert.Equal(t, entity.NFComStatusRejected, nfcom.ViewStatus(doc))
}

func TestApplyTransmitResult_Autoriza(t *testing.T) {
	doc := pending(10)
	doc.Rejection = &entity.Rejection{Code: "999"}
	now := date(2024, 5, 10)

	err := nfcom.ApplyTransmitResult(doc, &entity.AuthorityResponse{Accepted: true, Protocol: "362240000000001", Code: "100"}, now)
	require.NoError(t, err)
	assert.Equal(t, entity.NFComStatusAuthorized, doc.Status)
	require.NotNil(t, doc.Protocol)
	assert.Equal(t, "362240000000001", *doc.Protocol)
	assert.Equal(t, now, *doc.AuthorizedAt)
	assert.Nil(t, doc.Rejection)
}

func TestApplyTransmitResult_RechazoQuedaPendiente(t *testing.T) {
	doc := pending(10)
	err := nfcom.ApplyTransmitResult(doc, &entity.AuthorityResponse{Code: "539", Reason: "Rejeição: Duplicidade de NFCom"}, date(2024, 5, 10))

	var rej *domain.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "539", rej.Code)
	assert.Equal(t, "Rejeição: Duplicidade de NFCom", rej.Reason)
	assert.True(t, errors.Is(err, domain.ErrAuthorityRejected))
	assert.Equal(t, entity.NFComStatusPending, doc.Status)
	assert.Nil(t, doc.Protocol)
	assert.Equal(t, entity.NFComStatusRejected, nfcom.ViewStatus(doc))
}

func TestApplyTransmitResult_AceptadaSinProtocoloNoAutoriza(t *testing.T) {
	doc := pending(10)
	err := nfcom.ApplyTransmitResult(doc, &entity.AuthorityResponse{Accepted: true}, date(2024, 5, 10))
	require.Error(t, err)
	assert.Equal(t, entity.NFComStatusPending, doc.Status)
}

func TestCanTransmit_AutorizadaYCanceladaRechazan(t *testing.T) {
	for _, st := range []string{entity.NFComStatusAuthorized, entity.NFComStatusCancelled} {
		err := nfcom.CanTransmit(&entity.NFCom{Status: st})
		assert.True(t, errors.Is(err, domain.ErrConflict), st)
	}
	assert.NoError(t, nfcom.CanTransmit(pending(1)))
}

func TestCanCancel(t *testing.T) {
	p := "123"
	empty := ""
	assert.NoError(t, nfcom.CanCancel(&entity.NFCom{Status: entity.NFComStatusAuthorized, Protocol: &p}))
	assert.Error(t, nfcom.CanCancel(&entity.NFCom{Status: entity.NFComStatusAuthorized, Protocol: &empty}))
	assert.Error(t, nfcom.CanCancel(pending(1)))
	assert.Error(t, nfcom.CanCancel(&entity.NFCom{Status: entity.NFComStatusCancelled, Protocol: &p}))
}

func TestApplyCancelResult(t *testing.T) {
	p := "123"
	doc := &entity.NFCom{Status: entity.NFComStatusAuthorized, Protocol: &p}

	err := nfcom.ApplyCancelResult(doc, &entity.AuthorityResponse{Code: "218", Reason: "Rejeição: NFCom já cancelada"})
	assert.True(t, errors.Is(err, domain.ErrAuthorityRejected))
	assert.Equal(t, entity.NFComStatusAuthorized, doc.Status)

	require.NoError(t, nfcom.ApplyCancelResult(doc, &entity.AuthorityResponse{Accepted: true, Code: "135"}))
	assert.Equal(t, entity.NFComStatusCancelled, doc.Status)
}

func TestCanEditYCanSendEmail(t *testing.T) {
	p := "1"
	assert.NoError(t, nfcom.CanEdit(pending(1)))
	assert.Error(t, nfcom.CanEdit(&entity.NFCom{Status: entity.NFComStatusAuthorized, Protocol: &p}))

	assert.NoError(t, nfcom.CanSendEmail(&entity.NFCom{Status: entity.NFComStatusAuthorized, Protocol: &p}))
	assert.NoError(t, nfcom.CanSendEmail(pending(1)))
	assert.Error(t, nfcom.CanSendEmail(&entity.NFCom{Status: entity.NFComStatusCancelled}))
}

func TestValidateJustification_Limites(t *testing.T) {
	_, err := nfcom.ValidateJustification(strings.Repeat("a", 14))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	got, err := nfcom.ValidateJustification(strings.Repeat("a", 15))
	require.NoError(t, err)
	assert.Len(t, got, 15)

	_, err = nfcom.ValidateJustification(strings.Repeat("a", 255))
	assert.NoError(t, err)

	_, err = nfcom.ValidateJustification(strings.Repeat("a", 256))
	assert.Error(t, err)
}

func TestValidateJustification_CuentaCaracteresNoBytes(t *testing.T) {
	// "ç" y "ã" ocupan 2 bytes; 15 caracteres deben pasar
	got, err := nfcom.ValidateJustification("cobrança errada")
	require.NoError(t, err)
	assert.Equal(t, "cobrança errada", got)
}

func TestValidateJustification_NormalizaNFC(t *testing.T) {
	// "c" + cedilla combinante (U+0327) se compone en "ç"
	decomposed := "cobranc\u0327a errad"
	require.Equal(t, 15, len([]rune(decomposed)))
	_, err := nfcom.ValidateJustification(decomposed)
	assert.Error(t, err, "14 caracteres tras normalizar")
}
