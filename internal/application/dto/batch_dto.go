package dto

import "github.com/shopspring/decimal"

// BulkEmitRequest body para POST /api/nfcom/bulk-emit.
// Execute=false es dry run; Transmit solo aplica con Execute=true.
type BulkEmitRequest struct {
	ContractIDs   []string `json:"contract_ids"`
	Execute       bool     `json:"execute"`
	Transmit      bool     `json:"transmit"`
	ReferenceDate string   `json:"reference_date,omitempty"`
	Selection     []string `json:"selection,omitempty"` // selección actual de la vista
}

// BulkDocumentsRequest body de las acciones masivas sobre notas existentes.
type BulkDocumentsRequest struct {
	NFComIDs  []string `json:"nfcom_ids"`
	Selection []string `json:"selection,omitempty"`
}

// DownloadRequest body para POST /api/nfcom/download.
type DownloadRequest struct {
	NFComIDs []string `json:"nfcom_ids"`
	Format   string   `json:"format"` // xml | danfe
}

// BatchResponse sobre uniforme de las acciones masivas.
type BatchResponse struct {
	BatchID            string            `json:"batch_id,omitempty"`
	Action             string            `json:"action"`
	Execute            bool              `json:"execute"`
	Transmit           bool              `json:"transmit"`
	TotalProcessed     int               `json:"total_processed"`
	TotalSuccess       int               `json:"total_success"`
	TotalFailed        int               `json:"total_failed"`
	Successes          []BatchSuccessDTO `json:"successes"`
	Failures           []BatchFailureDTO `json:"failures"`
	RemainingSelection []string          `json:"remaining_selection"`
}

// BatchSuccessDTO ítem exitoso.
type BatchSuccessDTO struct {
	ContractID string             `json:"contract_id,omitempty"`
	NFComID    string             `json:"nfcom_id,omitempty"`
	Number     int64              `json:"number,omitempty"`
	Status     string             `json:"status,omitempty"`
	Protocol   string             `json:"protocol,omitempty"`
	DryRun     bool               `json:"dry_run,omitempty"`
	Total      decimal.Decimal    `json:"total"`
	Rejection  *RejectionResponse `json:"rejection,omitempty"`
	Warning    string             `json:"warning,omitempty"`
}

// BatchFailureDTO ítem fallido.
type BatchFailureDTO struct {
	ContractID string `json:"contract_id,omitempty"`
	NFComID    string `json:"nfcom_id,omitempty"`
	Code       string `json:"code,omitempty"`
	Reason     string `json:"reason"`
	Retryable  bool   `json:"retryable"`
}

// BulkDeleteResponse resultado de POST /api/nfcom/bulk-delete.
type BulkDeleteResponse struct {
	Numbers []int64  `json:"numbers"`
	IDs     []string `json:"ids"`
}

// ContractListRequest filtros de GET /api/contracts.
type ContractListRequest struct {
	PageRequest
	Search    string `query:"q"`
	ClientID  string `query:"client_id"`
	Selected  string `query:"selected"` // ids separados por coma
	ToggleAll bool   `query:"toggle_all"`
}

// ContractResponse contrato con su elegibilidad calculada.
type ContractResponse struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	ClientID    string          `json:"client_id"`
	ServiceID   string          `json:"service_id"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Periodicity string          `json:"periodicity,omitempty"`
	EmissionDay *int            `json:"emission_day,omitempty"`
	StartDate   string          `json:"start_date,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	Active      bool            `json:"active"`
	Status      string          `json:"status,omitempty"`
	Expired     bool            `json:"expired"`
	Eligible    bool            `json:"eligible"`
	NextDueDate string          `json:"next_due_date"`
	Selected    bool            `json:"selected"`
}

// ContractListResponse página de contratos más el tri-estado de "seleccionar todo".
type ContractListResponse struct {
	Items     []ContractResponse `json:"items"`
	Page      PageResponse       `json:"page"`
	SelectAll string             `json:"select_all"` // checked | indeterminate | unchecked
	Selection []string           `json:"selection"`
}
