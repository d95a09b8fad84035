package sefaz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfcom-bff/internal/infrastructure/sefaz"
)

const retAutorizado = `<?xml version="1.0" encoding="UTF-8"?>
<retNFCom xmlns="http://www.portalfiscal.inf.br/nfcom" versao="1.00">
  <tpAmb>2</tpAmb>
  <cStat>104</cStat>
  <xMotivo>Lote processado</xMotivo>
  <protNFCom versao="1.00">
    <infProt>
      <tpAmb>2</tpAmb>
      <verAplic>SVRS202405</verAplic>
      <chNFCom>43240512345678000190620010000001001000001007</chNFCom>
      <dhRecbto>2024-05-10T10:20:30-03:00</dhRecbto>
      <nProt>343240000000123</nProt>
      <cStat>100</cStat>
      <xMotivo>Autorizado o uso da NFCom</xMotivo>
    </infProt>
  </protNFCom>
</retNFCom>`

const retRechazado = `<retNFCom xmlns="http://www.portalfiscal.inf.br/nfcom" versao="1.00">
  <protNFCom versao="1.00">
    <infProt>
      <verAplic>SVRS202405</verAplic>
      <dhRecbto>2024-05-10T10:20:30-03:00</dhRecbto>
      <cStat>539</cStat>
      <xMotivo>Rejeição: Duplicidade de NFCom com diferença na Chave de Acesso</xMotivo>
    </infProt>
  </protNFCom>
</retNFCom>`

func TestParseReturn_PrefiereInfProt(t *testing.T) {
	r, err := sefaz.ParseReturn(retAutorizado)
	require.NoError(t, err)
	assert.Equal(t, "100", r.CStat)
	assert.Equal(t, "Autorizado o uso da NFCom", r.XMotivo)
	assert.Equal(t, "343240000000123", r.NProt)
	require.NotNil(t, r.Processed)
	assert.Equal(t, 2024, r.Processed.Year())
}

func TestTransmitResponse_Autorizado(t *testing.T) {
	res, err := sefaz.TransmitResponse(retAutorizado)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "343240000000123", res.Protocol)
}

func TestTransmitResponse_RechazoMotivoLiteral(t *testing.T) {
	res, err := sefaz.TransmitResponse(retRechazado)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "539", res.Code)
	assert.Equal(t, "Rejeição: Duplicidade de NFCom com diferença na Chave de Acesso", res.Reason)
	assert.Equal(t, retRechazado, res.Raw)
}

func TestCancelResponse_EventoRegistrado(t *testing.T) {
	raw := `<retEventoNFCom versao="1.00"><infEvento><cStat>135</cStat>` +
		`<xMotivo>Evento registrado e vinculado a NFCom</xMotivo><nProt>343240000000999</nProt>` +
		`<dhRegEvento>2024-05-11T08:00:00-03:00</dhRegEvento></infEvento></retEventoNFCom>`
	res, err := sefaz.CancelResponse(raw)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "135", res.Code)
}

func TestParseReturn_SinCStatFalla(t *testing.T) {
	_, err := sefaz.ParseReturn(`<retNFCom><xMotivo>x</xMotivo></retNFCom>`)
	assert.Error(t, err)
	_, err = sefaz.ParseReturn("no es xml")
	assert.Error(t, err)
}

func TestFingerprint_IgnoraCamposVolatiles(t *testing.T) {
	otro := `<retNFCom xmlns="http://www.portalfiscal.inf.br/nfcom" versao="1.00"><protNFCom versao="1.00"><infProt>` +
		`<verAplic>SVRS202406</verAplic><dhRecbto>2024-06-01T09:00:00-03:00</dhRecbto>` +
		`<cStat>539</cStat><xMotivo>Rejeição: Duplicidade de NFCom com diferença na Chave de Acesso</xMotivo>` +
		`</infProt></protNFCom></retNFCom>`

	a := sefaz.Fingerprint("539", "x", retRechazado)
	b := sefaz.Fingerprint("539", "x", otro)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprint_SinXMLUsaCodigoYMotivo(t *testing.T) {
	a := sefaz.Fingerprint("539", "Duplicidade", "")
	b := sefaz.Fingerprint("539", "Duplicidade", "")
	c := sefaz.Fingerprint("540", "Duplicidade", "")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
