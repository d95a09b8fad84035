// Package backend adapta la API REST del back office NFCom a los puertos del dominio.
// Toda respuesta se normaliza a la forma canónica antes de llegar a las reglas.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	"github.com/jhoicas/nfcom-bff/pkg/config"
	"github.com/jhoicas/nfcom-bff/pkg/logger"
)

const maxBodyBytes = 32 << 20 // zips de DANFE pueden ser grandes

// Client cliente HTTP del back office. Usa net/http de la stdlib.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. El timeout de red se toma de BACKEND_TIMEOUT_SECONDS.
func NewClient(cfg config.BackendConfig, log *logger.Logger) *Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}, log)
}

// NewClientWithHTTP permite inyectar el *http.Client (tests con httptest).
func NewClientWithHTTP(baseURL string, hc *http.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		log:        log.Component("backend"),
	}
}

// rawResponse respuesta cruda para descargas.
type rawResponse struct {
	Body        []byte
	ContentType string
	Disposition string
}

// doJSON envía body como JSON (si no es nil) y decodifica la respuesta en out.
// La respuesta puede venir envuelta en {"data": ...}.
func (c *Client) doJSON(ctx context.Context, sess entity.Session, method, path string, query url.Values, body, out any) error {
	raw, err := c.do(ctx, sess, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw.Body)) == 0 {
		return nil
	}
	payload := unwrapData(raw.Body)
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("backend: %s %s: respuesta ilegible: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, sess entity.Session, method, path string, query url.Values, body any) (*rawResponse, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: serializar request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: crear request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	if sess.CompanyID != "" {
		req.Header.Set("X-Company-ID", sess.CompanyID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend inaccesible")
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransient, method, path, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrTransient, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &rawResponse{
			Body:        data,
			ContentType: resp.Header.Get("Content-Type"),
			Disposition: resp.Header.Get("Content-Disposition"),
		}, nil
	}
	c.log.Debug().Int("status", resp.StatusCode).Str("method", method).Str("path", path).Msg("backend respondió error")
	return nil, classify(resp.StatusCode, data)
}

// classify traduce el status HTTP a la taxonomía de errores del dominio.
func classify(status int, body []byte) error {
	var we wireError
	_ = json.Unmarshal(unwrapData(body), &we)
	msg := we.text()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 300 {
			msg = msg[:300]
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	// rechazo de la SEFAZ reenviado como error HTTP
	if code := we.CStat.String(); code != "" && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict) {
		return &domain.RejectionError{Code: code, Reason: firstNonEmpty(we.XMotivo, msg), Raw: we.XMLRetorno}
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return fmt.Errorf("%w: back office HTTP %d: %s", domain.ErrTransient, status, msg)
	default:
		return fmt.Errorf("backend: HTTP %d: %s", status, msg)
	}
}

// unwrapData devuelve el contenido de "data" si el cuerpo es {"data": {...}}.
func unwrapData(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	// solo se desenvuelve un objeto; los listados paginados mantienen "data" como arreglo
	if d, ok := env["data"]; ok && len(env) <= 2 {
		if dt := bytes.TrimSpace(d); len(dt) > 0 && dt[0] == '{' {
			return dt
		}
	}
	return trimmed
}

// isRejection indica si err es un rechazo estructurado de la SEFAZ.
func isRejection(err error) (*domain.RejectionError, bool) {
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
