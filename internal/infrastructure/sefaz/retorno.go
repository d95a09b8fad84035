// Package sefaz interpreta los XML de retorno de la SEFAZ que el back office
// reenvía junto con sus respuestas (retNFCom, retEventoNFCom).
package sefaz

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	catalog "github.com/jhoicas/nfcom-bff/pkg/nfcom"
)

// Return campos relevantes de un retorno de autorización o de evento.
type Return struct {
	CStat     string
	XMotivo   string
	NProt     string
	ChNFCom   string
	Processed *time.Time // dhRecbto o dhRegEvento
}

// elementos volátiles: cambian en cada reenvío aunque el rechazo sea el mismo.
var volatileTags = []string{"dhRecbto", "dhRegEvento", "verAplic", "digVal", "nProt", "Signature"}

// ParseReturn lee cStat, xMotivo, nProt y la fecha de proceso. Prefiere los valores
// de infProt / infEvento sobre los del lote.
func ParseReturn(raw string) (*Return, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(strings.TrimSpace(raw)); err != nil {
		return nil, fmt.Errorf("sefaz: parsear retorno: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("sefaz: retorno sin raíz")
	}

	scope := doc.FindElement("//infProt")
	if scope == nil {
		scope = doc.FindElement("//infEvento")
	}
	if scope == nil {
		scope = doc.Root()
	}

	r := &Return{
		CStat:   childText(scope, doc, "cStat"),
		XMotivo: childText(scope, doc, "xMotivo"),
		NProt:   childText(scope, doc, "nProt"),
		ChNFCom: childText(scope, doc, "chNFCom"),
	}
	for _, tag := range []string{"dhRecbto", "dhRegEvento"} {
		if s := childText(scope, doc, tag); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				r.Processed = &t
				break
			}
		}
	}
	if r.CStat == "" {
		return nil, fmt.Errorf("sefaz: retorno sin cStat")
	}
	return r, nil
}

// childText busca primero dentro de scope y luego en todo el documento.
func childText(scope *etree.Element, doc *etree.Document, tag string) string {
	if el := scope.FindElement(".//" + tag); el != nil {
		return strings.TrimSpace(el.Text())
	}
	if el := doc.FindElement("//" + tag); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// AuthorityResponse traduce un retorno a la respuesta de dominio.
// accepted decide qué cStat cuentan como éxito (transmisión o evento).
func (r *Return) AuthorityResponse(raw string, accepted map[string]bool) *entity.AuthorityResponse {
	return &entity.AuthorityResponse{
		Accepted:    accepted[r.CStat],
		Protocol:    r.NProt,
		ProcessedAt: r.Processed,
		Code:        r.CStat,
		Reason:      r.XMotivo,
		Raw:         raw,
	}
}

// TransmitResponse atajo para retornos de autorización.
func TransmitResponse(raw string) (*entity.AuthorityResponse, error) {
	r, err := ParseReturn(raw)
	if err != nil {
		return nil, err
	}
	return r.AuthorityResponse(raw, catalog.AcceptedTransmitCodes), nil
}

// CancelResponse atajo para retornos del evento de cancelamiento.
func CancelResponse(raw string) (*entity.AuthorityResponse, error) {
	r, err := ParseReturn(raw)
	if err != nil {
		return nil, err
	}
	return r.AuthorityResponse(raw, catalog.AcceptedCancelCodes), nil
}

// Fingerprint huella estable de un rechazo. Con XML crudo: se quitan los elementos
// volátiles, se canonicaliza (C14N) y se hace SHA-256. Sin XML: SHA-256 de código y motivo.
func Fingerprint(code, reason, raw string) string {
	if canon, err := canonicalReturn(raw); err == nil {
		sum := sha256.Sum256(canon)
		return hex.EncodeToString(sum[:])
	}
	sum := sha256.Sum256([]byte(code + "\x00" + reason))
	return hex.EncodeToString(sum[:])
}

func canonicalReturn(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("sefaz: retorno vacío")
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("sefaz: retorno sin raíz")
	}
	for _, tag := range volatileTags {
		for _, el := range doc.FindElements("//" + tag) {
			if parent := el.Parent(); parent != nil {
				parent.RemoveChild(el)
			}
		}
	}
	out := etree.NewDocument()
	out.SetRoot(doc.Root().Copy())
	stripWhitespace(out.Root())
	b, err := out.WriteToBytes()
	if err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// stripWhitespace quita los nodos de texto que solo contienen indentación.
func stripWhitespace(e *etree.Element) {
	for _, tok := range append([]etree.Token(nil), e.Child...) {
		switch t := tok.(type) {
		case *etree.CharData:
			if t.IsWhitespace() {
				e.RemoveChild(t)
			}
		case *etree.Element:
			stripWhitespace(t)
		}
	}
}
