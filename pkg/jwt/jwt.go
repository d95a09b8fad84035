package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles reconocidos por el BFF.
const (
	RoleAdmin    = "admin"
	RoleBilling  = "faturista" // emite, transmite, cancela
	RoleReadOnly = "consulta"  // solo lectura y descargas
)

// Claims incluye los claims estándar JWT más la empresa activa, el rol y el token
// del back office que el BFF reenvía en cada llamada.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"user_id"`
	CompanyID    string `json:"company_id"`
	Role         string `json:"role"`
	BackendToken string `json:"backend_token,omitempty"`
}

// Identity datos que se firman en el token.
type Identity struct {
	UserID       string
	CompanyID    string
	Role         string
	BackendToken string
}

// Generate genera un token HS256 con la identidad dada.
func Generate(secret, issuer string, id Identity, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:       id.UserID,
		CompanyID:    id.CompanyID,
		Role:         id.Role,
		BackendToken: id.BackendToken,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}
