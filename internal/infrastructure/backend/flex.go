package backend

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// El back office no es consistente con los tipos: números llegan como string,
// con coma decimal o vacíos. Estos tipos aceptan todas las variantes y nunca
// fallan el decode completo por un campo.

// flexDecimal número tolerante. Set=false si vino ausente, null o "".
// Un valor no numérico cuenta como presente con valor cero.
type flexDecimal struct {
	Value decimal.Decimal
	Set   bool
}

func (d *flexDecimal) UnmarshalJSON(b []byte) error {
	s, ok := rawScalar(b)
	if !ok {
		return nil
	}
	v, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil {
		v = decimal.Zero
	}
	d.Value, d.Set = v, true
	return nil
}

// Ptr nil si no vino informado.
func (d flexDecimal) Ptr() *decimal.Decimal {
	if !d.Set {
		return nil
	}
	v := d.Value
	return &v
}

// OrZero valor o cero.
func (d flexDecimal) OrZero() decimal.Decimal {
	if !d.Set {
		return decimal.Zero
	}
	return d.Value
}

// flexInt entero tolerante ("05", 5, 5.0).
type flexInt struct {
	Value int64
	Set   bool
}

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s, ok := rawScalar(b)
	if !ok {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		n.Value, n.Set = v, true
		return nil
	}
	if v, err := decimal.NewFromString(normalizeNumber(s)); err == nil {
		n.Value, n.Set = v.IntPart(), true
	}
	return nil
}

// flexString acepta string o número (ids numéricos).
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s, _ := rawScalar(b)
	*f = flexString(s)
	return nil
}

func (f flexString) String() string { return string(f) }

// flexBool acepta true/false, "S"/"N", "sim"/"nao", 1/0.
type flexBool struct {
	Value bool
	Set   bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s, ok := rawScalar(b)
	if !ok {
		return nil
	}
	switch strings.ToLower(s) {
	case "true", "1", "s", "sim", "y", "yes", "t":
		f.Value, f.Set = true, true
	case "false", "0", "n", "nao", "não", "no", "f":
		f.Value, f.Set = false, true
	}
	return nil
}

// rawScalar devuelve el escalar JSON como texto. ok=false para null, "" u objetos.
func rawScalar(b []byte) (string, bool) {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return "", false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return "", false
		}
		str = strings.TrimSpace(str)
		return str, str != ""
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return "", false
	}
	return s, true
}

// normalizeNumber acepta "1.234,56" y "1234,56" además del formato con punto.
func normalizeNumber(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "02/01/2006"}

// parseDate nil si vacío o no reconocido.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
