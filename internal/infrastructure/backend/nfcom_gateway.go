package backend

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/internal/domain/repository"
	"github.com/jhoicas/nfcom-bff/internal/infrastructure/sefaz"
	catalog "github.com/jhoicas/nfcom-bff/pkg/nfcom"
)

var _ repository.NFComGateway = (*NFComGateway)(nil)

// NFComGateway documentos fiscales vía /nfcom.
type NFComGateway struct{ c *Client }

// NewNFComGateway construye el adaptador.
func NewNFComGateway(c *Client) *NFComGateway { return &NFComGateway{c: c} }

func nfcomPath(id string, suffix ...string) string {
	p := "/nfcom/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (g *NFComGateway) Create(ctx context.Context, sess entity.Session, doc *entity.NFCom) (*entity.NFCom, error) {
	var w wireNFCom
	if err := g.c.doJSON(ctx, sess, http.MethodPost, "/nfcom", nil, toNFComRequest(doc), &w); err != nil {
		return nil, err
	}
	out := normalizeNFCom(&w)
	if out.ID == "" {
		return nil, fmt.Errorf("backend: creación de NFCom sin id en la respuesta")
	}
	return out, nil
}

func (g *NFComGateway) Update(ctx context.Context, sess entity.Session, doc *entity.NFCom) (*entity.NFCom, error) {
	var w wireNFCom
	if err := g.c.doJSON(ctx, sess, http.MethodPut, nfcomPath(doc.ID), nil, toNFComRequest(doc), &w); err != nil {
		return nil, err
	}
	out := normalizeNFCom(&w)
	if out.ID == "" {
		out.ID = doc.ID
	}
	return out, nil
}

func (g *NFComGateway) Get(ctx context.Context, sess entity.Session, id string) (*entity.NFCom, error) {
	var w wireNFCom
	if err := g.c.doJSON(ctx, sess, http.MethodGet, nfcomPath(id), nil, nil, &w); err != nil {
		return nil, err
	}
	return normalizeNFCom(&w), nil
}

func (g *NFComGateway) Delete(ctx context.Context, sess entity.Session, id string) error {
	return g.c.doJSON(ctx, sess, http.MethodDelete, nfcomPath(id), nil, nil, nil)
}

func (g *NFComGateway) List(ctx context.Context, sess entity.Session, f repository.NFComFilter) (*repository.NFComPage, error) {
	q := url.Values{}
	q.Set("empresa_id", sess.CompanyID)
	if f.From != nil {
		q.Set("data_inicio", f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		q.Set("data_fim", f.To.Format("2006-01-02"))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.MinTotal != nil {
		q.Set("valor_min", f.MinTotal.String())
	}
	if f.MaxTotal != nil {
		q.Set("valor_max", f.MaxTotal.String())
	}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	q.Set("page", strconv.Itoa(max(f.Page, 1)))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	var page wirePage[wireNFCom]
	if err := g.c.doJSON(ctx, sess, http.MethodGet, "/nfcom", q, nil, &page); err != nil {
		return nil, err
	}
	rows := page.rows()
	out := &repository.NFComPage{
		Items: make([]*entity.NFCom, 0, len(rows)),
		Total: int(page.Total.Value),
		Page:  int(page.Page.Value),
		Limit: int(page.Limit.Value),
	}
	for i := range rows {
		out.Items = append(out.Items, normalizeNFCom(&rows[i]))
	}
	if !page.Total.Set {
		out.Total = repository.TotalUnknown
	}
	return out, nil
}

// Transmit envía a la SEFAZ. Un rechazo no es error: vuelve como respuesta no aceptada.
func (g *NFComGateway) Transmit(ctx context.Context, sess entity.Session, id string) (*entity.AuthorityResponse, error) {
	var w wireAuthority
	err := g.c.doJSON(ctx, sess, http.MethodPost, nfcomPath(id, "transmitir"), nil, struct{}{}, &w)
	if rej, ok := isRejection(err); ok {
		return rejectionResponse(rej), nil
	}
	if err != nil {
		return nil, err
	}
	return authorityResponse(&w, catalog.AcceptedTransmitCodes, sefaz.TransmitResponse), nil
}

// Cancel registra el evento de cancelamiento.
func (g *NFComGateway) Cancel(ctx context.Context, sess entity.Session, id, protocol, justification string) (*entity.AuthorityResponse, error) {
	var w wireAuthority
	body := cancelRequest{ProtocoloAutorizacao: protocol, Justificativa: justification}
	err := g.c.doJSON(ctx, sess, http.MethodPost, nfcomPath(id, "cancelar"), nil, body, &w)
	if rej, ok := isRejection(err); ok {
		return rejectionResponse(rej), nil
	}
	if err != nil {
		return nil, err
	}
	return authorityResponse(&w, catalog.AcceptedCancelCodes, sefaz.CancelResponse), nil
}

func (g *NFComGateway) BulkTransmit(ctx context.Context, sess entity.Session, ids []string) (*entity.BatchResult, error) {
	var w wireEnvelope
	if err := g.c.doJSON(ctx, sess, http.MethodPost, "/nfcom/bulk-transmit", nil, idsRequest{NFComIDs: ids}, &w); err != nil {
		return nil, err
	}
	return toBatchResult(&w, entity.BatchActionTransmit), nil
}

func (g *NFComGateway) SendEmails(ctx context.Context, sess entity.Session, ids []string) (*entity.BatchResult, error) {
	var w wireEnvelope
	if err := g.c.doJSON(ctx, sess, http.MethodPost, "/nfcom/send-emails", nil, idsRequest{NFComIDs: ids}, &w); err != nil {
		return nil, err
	}
	return toBatchResult(&w, entity.BatchActionEmail), nil
}

func (g *NFComGateway) EmailStatus(ctx context.Context, sess entity.Session, id string) (string, error) {
	var w struct {
		Status      string `json:"status"`
		EmailStatus string `json:"email_status"`
	}
	if err := g.c.doJSON(ctx, sess, http.MethodGet, nfcomPath(id, "email-status"), nil, nil, &w); err != nil {
		return "", err
	}
	return normalizeEmailStatus(firstNonEmpty(w.EmailStatus, w.Status)), nil
}

// Download un id: GET /nfcom/:id/{xml|danfe}. Varios: POST /nfcom/download → zip.
func (g *NFComGateway) Download(ctx context.Context, sess entity.Session, ids []string, format string) (*repository.Download, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: sin documentos para descargar", domain.ErrInvalidInput)
	}
	var (
		raw *rawResponse
		err error
	)
	if len(ids) == 1 {
		raw, err = g.c.do(ctx, sess, http.MethodGet, nfcomPath(ids[0], format), nil, nil)
	} else {
		raw, err = g.c.do(ctx, sess, http.MethodPost, "/nfcom/download", nil, idsRequest{NFComIDs: ids, Formato: format})
	}
	if err != nil {
		return nil, err
	}
	return &repository.Download{
		FileName:    downloadName(raw.Disposition, ids, format),
		ContentType: firstNonEmpty(raw.ContentType, defaultContentType(len(ids), format)),
		Content:     raw.Body,
	}, nil
}

func downloadName(disposition string, ids []string, format string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	if len(ids) > 1 {
		return fmt.Sprintf("nfcom_%s.zip", format)
	}
	ext := "xml"
	if format == catalog.DownloadDANFE {
		ext = "pdf"
	}
	return fmt.Sprintf("nfcom_%s.%s", ids[0], ext)
}

func defaultContentType(n int, format string) string {
	switch {
	case n > 1:
		return "application/zip"
	case format == catalog.DownloadDANFE:
		return "application/pdf"
	default:
		return "application/xml"
	}
}

// authorityResponse usa los campos JSON; si falta cStat y vino el XML de retorno, lo parsea.
func authorityResponse(w *wireAuthority, accepted map[string]bool, fromXML func(string) (*entity.AuthorityResponse, error)) *entity.AuthorityResponse {
	if w.CStat.String() == "" && strings.TrimSpace(w.XMLRetorno) != "" {
		if res, err := fromXML(w.XMLRetorno); err == nil {
			if w.Success.Set {
				res.Accepted = w.Success.Value
			}
			return res
		}
	}
	res := &entity.AuthorityResponse{
		Protocol:    w.Protocolo.String(),
		ProcessedAt: parseDate(w.DataRecebimento),
		Code:        w.CStat.String(),
		Reason:      w.XMotivo,
		Raw:         w.XMLRetorno,
	}
	if w.Success.Set {
		res.Accepted = w.Success.Value
	} else {
		res.Accepted = accepted[res.Code]
	}
	return res
}

func rejectionResponse(rej *domain.RejectionError) *entity.AuthorityResponse {
	return &entity.AuthorityResponse{Code: rej.Code, Reason: rej.Reason, Raw: rej.Raw}
}
