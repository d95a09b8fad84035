package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// DefaultPage aplica valores por defecto si Page/Limit son cero o exceden max.
func (p *PageRequest) DefaultPage(max int) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 || p.Limit > max {
		p.Limit = max
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva el detalle estructurado
// (rechazo de la SEFAZ o números que violan la secuencia).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
