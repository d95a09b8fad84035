// Package nfcom contiene catálogos de la Nota Fiscal de Comunicação (modelo 62)
// y de las respuestas de la SEFAZ usados por la orquestación.
package nfcom

// Modelo y serie por defecto.
const (
	ModeloNFCom   = "62"
	DefaultSeries = "1"
)

// =============================================================================
// Periodicidad del contrato
// =============================================================================

const (
	PeriodicityMonthly = "MENSAL"
	PeriodicityOnce    = "UNICA"
)

// =============================================================================
// Estado del contrato en el back office
// =============================================================================

const (
	ContractStatusActive              = "ATIVO"
	ContractStatusSuspended           = "SUSPENSO"
	ContractStatusCancelled           = "CANCELADO"
	ContractStatusPendingInstallation = "PENDENTE_INSTALACAO"
)

// ValidContractStatuses estados aceptados al normalizar contratos.
var ValidContractStatuses = map[string]bool{
	ContractStatusActive:              true,
	ContractStatusSuspended:           true,
	ContractStatusCancelled:           true,
	ContractStatusPendingInstallation: true,
}

// =============================================================================
// cStat de la SEFAZ (MOC NFCom) - códigos de uso frecuente
// =============================================================================

const (
	CStatAuthorized          = "100" // Autorizado o uso da NFCom
	CStatCancelHomologated   = "101" // Cancelamento homologado
	CStatEventRegistered     = "135" // Evento registrado e vinculado
	CStatEventRegisteredLate = "136" // Evento registrado, não vinculado
	CStatDuplicate           = "204" // Duplicidade de NFCom
	CStatDuplicateDifferent  = "539" // Duplicidade com diferença na chave
)

// AcceptedTransmitCodes códigos que representan autorización.
var AcceptedTransmitCodes = map[string]bool{
	CStatAuthorized: true,
}

// AcceptedCancelCodes códigos que representan cancelamiento homologado.
var AcceptedCancelCodes = map[string]bool{
	CStatCancelHomologated:   true,
	CStatEventRegistered:     true,
	CStatEventRegisteredLate: true,
}

// =============================================================================
// Evento de cancelamiento (tpEvento 110111): límites de xJust
// =============================================================================

const (
	JustificationMinLen = 15
	JustificationMaxLen = 255
)

// =============================================================================
// Descargas
// =============================================================================

const (
	DownloadXML   = "xml"
	DownloadDANFE = "danfe"
)
