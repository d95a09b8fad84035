package entity

// Session datos de la sesión del usuario (empresa activa y token) que se pasan
// explícitamente a cada caso de uso.
type Session struct {
	CompanyID string
	UserID    string
	Role      string
	Token     string // se reenvía al back office como Bearer
}

// Valid indica si la sesión tiene empresa y usuario.
func (s Session) Valid() bool {
	return s.CompanyID != "" && s.UserID != ""
}
