package dian

import (
	"fmt"
	"unicode"
)

// Pesos del dígito de verificación (módulo 11 DIAN) aplicados de derecha a izquierda
// sobre los 9 dígitos del NIT, aquí listados de izquierda a derecha.
var nitWeights = [9]int{41, 37, 29, 23, 19, 17, 13, 7, 3}

// ComputeNITVerificationDigit calcula el DV para los 9 primeros dígitos del NIT.
func ComputeNITVerificationDigit(taxID string) (byte, error) {
	digits := extractDigits(taxID)
	if len(digits) < 9 {
		return 0, fmt.Errorf("dian: se requieren al menos 9 dígitos para el DV, se encontraron %d", len(digits))
	}
	return checkDigit(digits[:9]), nil
}

// ValidateNITVerificationDigit acepta "123456789-1", "123.456.789-1" o "1234567891".
func ValidateNITVerificationDigit(taxID string) error {
	digits := extractDigits(taxID)
	if len(digits) != 10 {
		return fmt.Errorf("dian: el NIT debe tener 9 dígitos más el dígito de verificación, se recibieron %d", len(digits))
	}
	expected := checkDigit(digits[:9])
	if digits[9] != expected {
		return fmt.Errorf("dian: dígito de verificación del NIT inválido: esperado %c, recibido %c", expected, digits[9])
	}
	return nil
}

// NITBase devuelve los 9 dígitos del NIT sin DV (para CUFE y XML).
func NITBase(taxID string) string {
	digits := extractDigits(taxID)
	if len(digits) > 9 {
		digits = digits[:9]
	}
	return string(digits)
}

func checkDigit(base []byte) byte {
	var sum int
	for i, d := range base {
		sum += int(d-'0') * nitWeights[i]
	}
	r := sum % 11
	if r == 0 || r == 1 {
		return byte('0' + r)
	}
	return byte('0' + (11 - r))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
