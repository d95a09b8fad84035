package nfcom

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/nfcom-bff/internal/domain"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
	catalog "github.com/jhoicas/nfcom-bff/pkg/nfcom"
)

// ── Máquina de estados ──────────────────────────────────────────────────────
//
//	pending ──transmit ok──▶ authorized ──cancel ok──▶ cancelled
//	   ▲  └─transmit rechazo─▶ pending (+rejection) = "rejected" en vista
//	   └──────── corrección / update ───────┘
//
// authorized y cancelled no vuelven atrás.

// ViewStatus estado que ve el usuario: un pendiente con rechazo se muestra como rejected.
func ViewStatus(doc *entity.NFCom) string {
	if doc.Status == entity.NFComStatusPending && doc.Rejection != nil {
		return entity.NFComStatusRejected
	}
	return doc.Status
}

// IsImmutable autorizadas y canceladas no se editan ni se excluyen.
func IsImmutable(doc *entity.NFCom) bool {
	return doc.Status == entity.NFComStatusAuthorized || doc.Status == entity.NFComStatusCancelled
}

// CanTransmit solo un pendiente (incluido el rechazado) puede transmitirse.
func CanTransmit(doc *entity.NFCom) error {
	if doc.Status != entity.NFComStatusPending {
		return fmt.Errorf("%w: NFCom %d en estado %s no puede transmitirse", domain.ErrConflict, doc.Number, doc.Status)
	}
	return nil
}

// CanEdit solo pendientes.
func CanEdit(doc *entity.NFCom) error {
	if doc.Status != entity.NFComStatusPending {
		return fmt.Errorf("%w: NFCom %d en estado %s no admite edición", domain.ErrConflict, doc.Number, doc.Status)
	}
	return nil
}

// CanCancel exige autorizada con protocolo.
func CanCancel(doc *entity.NFCom) error {
	if doc.Status != entity.NFComStatusAuthorized {
		return fmt.Errorf("%w: solo se cancela una NFCom autorizada (NFCom %d está %s)", domain.ErrConflict, doc.Number, doc.Status)
	}
	if !doc.HasProtocol() {
		return fmt.Errorf("%w: NFCom %d autorizada sin protocolo", domain.ErrConflict, doc.Number)
	}
	return nil
}

// CanSendEmail cualquier nota no cancelada puede enviarse por e-mail.
func CanSendEmail(doc *entity.NFCom) error {
	if doc.Status == entity.NFComStatusCancelled {
		return fmt.Errorf("%w: NFCom %d cancelada no se envía por e-mail", domain.ErrConflict, doc.Number)
	}
	return nil
}

// ValidateJustification normaliza a NFC y exige entre 15 y 255 caracteres.
// Devuelve el texto normalizado que debe enviarse.
func ValidateJustification(s string) (string, error) {
	j := strings.TrimSpace(norm.NFC.String(s))
	n := utf8.RuneCountInString(j)
	if n < catalog.JustificationMinLen || n > catalog.JustificationMaxLen {
		return "", fmt.Errorf("%w: la justificación debe tener entre %d y %d caracteres (tiene %d)",
			domain.ErrInvalidInput, catalog.JustificationMinLen, catalog.JustificationMaxLen, n)
	}
	return j, nil
}

// ApplyTransmitResult aplica la respuesta de la SEFAZ a una transmisión.
// Aceptada: authorized con protocolo y se limpia el rechazo previo.
// Rechazada: sigue pending, se guarda el rechazo y se devuelve *domain.RejectionError.
func ApplyTransmitResult(doc *entity.NFCom, res *entity.AuthorityResponse, now time.Time) error {
	if err := CanTransmit(doc); err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("%w: respuesta vacía de la autoridad", domain.ErrTransient)
	}
	if !res.Accepted {
		doc.Rejection = &entity.Rejection{Code: res.Code, Reason: res.Reason, Raw: res.Raw, ReceivedAt: now}
		return &domain.RejectionError{Code: res.Code, Reason: res.Reason, Raw: res.Raw}
	}
	if res.Protocol == "" {
		return fmt.Errorf("%w: autorización de NFCom %d sin protocolo", domain.ErrConflict, doc.Number)
	}
	protocol := res.Protocol
	at := now
	if res.ProcessedAt != nil {
		at = *res.ProcessedAt
	}
	doc.Status = entity.NFComStatusAuthorized
	doc.Protocol = &protocol
	doc.AuthorizedAt = &at
	doc.Rejection = nil
	return nil
}

// ApplyCancelResult aplica la respuesta del evento de cancelamiento.
// Rechazado: la nota sigue authorized y se devuelve *domain.RejectionError.
func ApplyCancelResult(doc *entity.NFCom, res *entity.AuthorityResponse) error {
	if err := CanCancel(doc); err != nil {
		return err
	}
	if res == nil {
		return fmt.Errorf("%w: respuesta vacía de la autoridad", domain.ErrTransient)
	}
	if !res.Accepted {
		return &domain.RejectionError{Code: res.Code, Reason: res.Reason, Raw: res.Raw}
	}
	doc.Status = entity.NFComStatusCancelled
	return nil
}
