package ecf

import (
	"bytes"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FormatAmount formatea un valor para el driver: punto decimal, al menos un decimal y como máximo dos.
// Ej: -10 → "-10.0", 90 → "90.0", 12.5 → "12.5", 12.345 → "12.35".
func FormatAmount(v decimal.Decimal) string {
	s := v.Round(2).StringFixed(2)
	if strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
	}
	if s == "-0.0" {
		return "0.0"
	}
	return s
}

// FormatCents devuelve el valor en centavos sin separadores (ej. 90.00 → "9000").
func FormatCents(v decimal.Decimal) string {
	return v.Round(2).Shift(2).StringFixed(0)
}

// ZeroPad deja solo los dígitos de s y completa con ceros a la izquierda hasta width.
// Si ya tiene más dígitos que width se devuelve completo.
func ZeroPad(s string, width int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if n := utf8.RuneCountInString(digits); n < width {
		digits = strings.Repeat("0", width-n) + digits
	}
	return digits
}

// FormatDate formatea la fecha como ddMMyyyy.
func FormatDate(t time.Time) string {
	return t.Format("02012006")
}

// PadRight completa el texto con espacios hasta cols columnas; si es más largo se corta.
func PadRight(text string, cols int) string {
	n := utf8.RuneCountInString(text)
	switch {
	case n == cols:
		return text
	case n < cols:
		return text + strings.Repeat(" ", cols-n)
	default:
		return string([]rune(text)[:cols])
	}
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents quita los diacríticos (ENDEREÇO → ENDERECO) para equipos que no los imprimen.
func FoldAccents(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		return s
	}
	return out
}

// EncodeLatin1 codifica texto al juego de caracteres de la bobina (ISO-8859-1).
// Los caracteres sin representación se reemplazan.
func EncodeLatin1(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, enc)
	if _, err := w.Write([]byte(s)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeLatin1 es la operación inversa de EncodeLatin1.
func DecodeLatin1(b []byte) (string, error) {
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
