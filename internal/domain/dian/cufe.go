// Package dian: códigos únicos de documento electrónico (CUFE para facturas,
// CUDE para notas crédito) según Anexo Técnico DIAN 1.9. Ambos son SHA-384
// sobre una concatenación sin separadores.
package dian

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Códigos de impuesto DIAN para la cadena del hash.
const (
	CodImpIVA         = "01"
	CodImpImpoconsumo = "04"
	CodImpICA         = "03"
)

// CufeParams datos para el CUFE/CUDE en el orden exigido por la DIAN.
type CufeParams struct {
	NumFac    string          // prefijo + número, sin espacios
	FecFac    string          // YYYY-MM-DD
	HorFac    string          // HH:MM:SS-05:00; solo lo exige el CUDE
	ValFac    decimal.Decimal // total sin impuestos
	ValImp_01 decimal.Decimal
	ValImp_04 decimal.Decimal
	ValImp_03 decimal.Decimal
	ValPag    decimal.Decimal // total a pagar
	NitOfe    string
	DocAdq    string
	ClTec     string // clave técnica (CUFE) o PIN del software (CUDE)
	TipoAmb   string // 1 producción, 2 pruebas
}

// CufeCalculatorService calcula CUFE y CUDE.
type CufeCalculatorService struct{}

func NewCufeCalculatorService() *CufeCalculatorService {
	return &CufeCalculatorService{}
}

// Calculate genera el CUFE de una factura:
// NumFac + FecFac + ValFac + 01 + ValImp01 + 04 + ValImp04 + 03 + ValImp03 + ValPag + NitOfe + DocAdq + ClTec + TipoAmb.
func (s *CufeCalculatorService) Calculate(p *CufeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dian: CufeParams es obligatorio")
	}
	if p.ClTec == "" {
		return "", fmt.Errorf("dian: ClTec es obligatoria para el CUFE")
	}
	return hashDocument(p, false)
}

// CalculateCUDE genera el CUDE de una nota crédito. Incluye la hora y usa el PIN del software.
func (s *CufeCalculatorService) CalculateCUDE(p *CufeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dian: CufeParams es obligatorio")
	}
	if p.ClTec == "" {
		return "", fmt.Errorf("dian: el PIN del software es obligatorio para el CUDE")
	}
	if p.HorFac == "" {
		return "", fmt.Errorf("dian: HorFac es obligatoria para el CUDE")
	}
	return hashDocument(p, true)
}

func hashDocument(p *CufeParams, withHour bool) (string, error) {
	numFac := strings.Join(strings.Fields(p.NumFac), "")
	if numFac == "" {
		return "", fmt.Errorf("dian: NumFac es obligatorio")
	}
	if p.FecFac == "" {
		return "", fmt.Errorf("dian: FecFac es obligatorio (YYYY-MM-DD)")
	}
	nitOfe := onlyDigits(p.NitOfe)
	docAdq := onlyDigits(p.DocAdq)
	if nitOfe == "" {
		return "", fmt.Errorf("dian: NitOfe es obligatorio")
	}
	if docAdq == "" {
		return "", fmt.Errorf("dian: DocAdq es obligatorio")
	}
	tipoAmb := p.TipoAmb
	if tipoAmb == "" {
		tipoAmb = "1"
	}

	var b strings.Builder
	b.WriteString(numFac)
	b.WriteString(p.FecFac)
	if withHour {
		b.WriteString(p.HorFac)
	}
	b.WriteString(formatAmount(p.ValFac))
	b.WriteString(CodImpIVA + formatAmount(p.ValImp_01))
	b.WriteString(CodImpImpoconsumo + formatAmount(p.ValImp_04))
	b.WriteString(CodImpICA + formatAmount(p.ValImp_03))
	b.WriteString(formatAmount(p.ValPag))
	b.WriteString(nitOfe)
	b.WriteString(docAdq)
	b.WriteString(p.ClTec)
	b.WriteString(tipoAmb)

	hash := sha512.Sum384([]byte(b.String()))
	return hex.EncodeToString(hash[:]), nil
}

// formatAmount: sin separador de miles, punto decimal, 2 decimales (1500.00).
func formatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QRData arma la cadena del QR de la representación gráfica.
func QRData(numFac, fecFac string, valFac, valImp decimal.Decimal, cufe, validationURL string) string {
	return strings.Join([]string{
		numFac, fecFac, formatAmount(valFac), CodImpIVA, formatAmount(valImp), cufe, validationURL,
	}, "|")
}
