package ecf

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrInvalidDocument el CPF/CNPJ no tiene la longitud o los dígitos verificadores correctos.
var ErrInvalidDocument = errors.New("ecf: CPF/CNPJ inválido")

// pesos módulo 11 de los dos dígitos verificadores, de izquierda a derecha.
var (
	cpfWeights1  = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidateDocument valida un CPF (11 dígitos) o CNPJ (14 dígitos), con o sin máscara.
// "123.456.789-09", "12345678909" y "11.222.333/0001-81" son válidos.
func ValidateDocument(doc string) error {
	digits := extractDigits(doc)
	switch len(digits) {
	case 11:
		return checkDigits(digits, cpfWeights1, cpfWeights2)
	case 14:
		return checkDigits(digits, cnpjWeights1, cnpjWeights2)
	}
	return fmt.Errorf("%w: se esperaban 11 o 14 dígitos, se encontraron %d", ErrInvalidDocument, len(digits))
}

func checkDigits(digits []byte, w1, w2 []int) error {
	if allSame(digits) {
		return fmt.Errorf("%w: dígitos repetidos", ErrInvalidDocument)
	}
	n := len(w1)
	if d := verificationDigit(digits[:n], w1); digits[n] != d {
		return fmt.Errorf("%w: primer dígito verificador esperado %c, recibido %c", ErrInvalidDocument, d, digits[n])
	}
	if d := verificationDigit(digits[:n+1], w2); digits[n+1] != d {
		return fmt.Errorf("%w: segundo dígito verificador esperado %c, recibido %c", ErrInvalidDocument, d, digits[n+1])
	}
	return nil
}

func verificationDigit(base []byte, weights []int) byte {
	var sum int
	for i, d := range base {
		sum += int(d-'0') * weights[i]
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0'
	}
	return byte('0' + (11 - remainder))
}

func allSame(digits []byte) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			out = append(out, byte(r))
		}
	}
	return out
}
