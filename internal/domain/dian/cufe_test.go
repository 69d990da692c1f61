package dian_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/domain/dian"
)

// Vectores SHA-384 calculados a mano sobre la cadena concatenada.
//
//	CUFE = "SETP990000000" + "2023-11-29" + "1000000.00" + "01" + "190000.00" + "04" + "0.00" +
//	       "03" + "0.00" + "1190000.00" + "900123456" + "800987654" + ClTec + "2"
//	CUDE = "NC1" + "2024-03-15" + "10:30:00-05:00" + "100000.00" + "01" + "19000.00" + "04" + "0.00" +
//	       "03" + "0.00" + "119000.00" + "900123456" + "800987654" + "12345" + "2"
const (
	testCufeExpected = "f5693bff411776a0c3536bba5df32491df2ffc101a8ff4810cdfc04368b8a9286dc0d5c578fa2344e119d118947a0c4c"
	testCudeExpected = "d9e9b141522a43ac9b9d8d4590b1623bb0ceee507ef1e619ef82accf48a546db646d7aa6d95598bc425d97d6870bc4aa"

	testNitOfe = "900123456"
	testDocAdq = "800987654"
	testClTec  = "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c354673d3a603956897890cd"
)

func TestCalculateCufe_VectorExacto(t *testing.T) {
	cufe, err := dian.NewCufeCalculatorService().Calculate(buildInvoiceParams())
	require.NoError(t, err)
	assert.Equal(t, testCufeExpected, cufe)
	assert.Len(t, cufe, 96)
}

func TestCalculateCufe_IgnoraHora(t *testing.T) {
	p := buildInvoiceParams()
	p.HorFac = "08:00:00-05:00"

	cufe, err := dian.NewCufeCalculatorService().Calculate(p)
	require.NoError(t, err)
	assert.Equal(t, testCufeExpected, cufe)
}

func TestCalculateCufe_NITConPuntosYGuion(t *testing.T) {
	p := buildInvoiceParams()
	p.NitOfe = "900.123.456"
	p.NumFac = " SETP 990000000 "

	cufe, err := dian.NewCufeCalculatorService().Calculate(p)
	require.NoError(t, err)
	assert.Equal(t, testCufeExpected, cufe)
}

func TestCalculateCufe_SensibleAlAmbiente(t *testing.T) {
	svc := dian.NewCufeCalculatorService()
	p1 := buildInvoiceParams()
	p2 := buildInvoiceParams()
	p2.TipoAmb = "1"

	c1, _ := svc.Calculate(p1)
	c2, _ := svc.Calculate(p2)
	assert.NotEqual(t, c1, c2)
}

func TestCalculateCUDE_VectorExacto(t *testing.T) {
	p := &dian.CufeParams{
		NumFac:    "NC1",
		FecFac:    "2024-03-15",
		HorFac:    "10:30:00-05:00",
		ValFac:    decimal.NewFromInt(100_000),
		ValImp_01: decimal.NewFromInt(19_000),
		ValPag:    decimal.NewFromInt(119_000),
		NitOfe:    testNitOfe,
		DocAdq:    testDocAdq,
		ClTec:     "12345",
		TipoAmb:   "2",
	}
	cude, err := dian.NewCufeCalculatorService().CalculateCUDE(p)
	require.NoError(t, err)
	assert.Equal(t, testCudeExpected, cude)
}

func TestCalculateCUDE_SinHora(t *testing.T) {
	_, err := dian.NewCufeCalculatorService().CalculateCUDE(buildInvoiceParams())
	assert.Error(t, err)
}

// ── Errores de validación ─────────────────────────────────────────────────────

func TestCalculateCufe_Errores(t *testing.T) {
	svc := dian.NewCufeCalculatorService()

	_, err := svc.Calculate(nil)
	assert.Error(t, err)

	cases := map[string]func(p *dian.CufeParams){
		"sin NumFac": func(p *dian.CufeParams) { p.NumFac = "" },
		"sin FecFac": func(p *dian.CufeParams) { p.FecFac = "" },
		"sin NitOfe": func(p *dian.CufeParams) { p.NitOfe = "" },
		"sin DocAdq": func(p *dian.CufeParams) { p.DocAdq = "--" },
		"sin ClTec":  func(p *dian.CufeParams) { p.ClTec = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := buildInvoiceParams()
			mutate(p)
			_, err := svc.Calculate(p)
			assert.Error(t, err)
		})
	}
}

func TestQRData(t *testing.T) {
	qr := dian.QRData("FE10", "2024-01-02", decimal.NewFromInt(1000), decimal.NewFromInt(190), "abc", "https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey=abc")
	assert.Equal(t, "FE10|2024-01-02|1000.00|01|190.00|abc|https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey=abc", qr)
}

// ── helper ────────────────────────────────────────────────────────────────────

func buildInvoiceParams() *dian.CufeParams {
	return &dian.CufeParams{
		NumFac:    "SETP990000000",
		FecFac:    "2023-11-29",
		ValFac:    decimal.NewFromFloat(1_000_000),
		ValImp_01: decimal.NewFromFloat(190_000),
		ValImp_04: decimal.Zero,
		ValImp_03: decimal.Zero,
		ValPag:    decimal.NewFromFloat(1_190_000),
		NitOfe:    testNitOfe,
		DocAdq:    testDocAdq,
		ClTec:     testClTec,
		TipoAmb:   "2",
	}
}
