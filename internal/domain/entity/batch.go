package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Acciones masivas.
const (
	BatchActionEmit     = "emit"
	BatchActionTransmit = "transmit"
	BatchActionEmail    = "email"
	BatchActionDelete   = "delete"
)

// BatchSuccess resultado exitoso de un ítem del lote.
type BatchSuccess struct {
	ContractID string
	NFComID    string
	Number     int64
	Status     string // estado de vista resultante
	Protocol   string
	Total      decimal.Decimal
	DryRun     bool
	Rejection  *Rejection // transmitida pero rechazada: el documento sí fue creado
	Warning    string     // creada, pero la transmisión no llegó a completarse
}

// BatchFailure resultado fallido de un ítem del lote.
type BatchFailure struct {
	ContractID string
	NFComID    string
	Code       string // cStat; solo presente en rechazos de la SEFAZ
	Reason     string
	Retryable  bool
}

// BatchResult sobre uniforme de las operaciones masivas.
type BatchResult struct {
	ID             string
	Action         string
	Execute        bool
	Transmit       bool
	TotalProcessed int
	TotalSuccess   int
	TotalFailed    int
	Successes      []BatchSuccess
	Failures       []BatchFailure
	CreatedAt      time.Time
}

// AddSuccess agrega un éxito y actualiza contadores.
func (r *BatchResult) AddSuccess(s BatchSuccess) {
	r.Successes = append(r.Successes, s)
	r.TotalSuccess++
	r.TotalProcessed++
}

// AddFailure agrega una falla y actualiza contadores.
func (r *BatchResult) AddFailure(f BatchFailure) {
	r.Failures = append(r.Failures, f)
	r.TotalFailed++
	r.TotalProcessed++
}

// Merge incorpora otro sobre (por ejemplo, la respuesta del endpoint masivo).
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	for _, s := range other.Successes {
		r.AddSuccess(s)
	}
	for _, f := range other.Failures {
		r.AddFailure(f)
	}
}
