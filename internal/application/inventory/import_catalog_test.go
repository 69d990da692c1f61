package inventory_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

type fakeSheet struct{ rows [][]string }

func (f fakeSheet) ReadRows(io.Reader) ([][]string, error) { return f.rows, nil }

func newImporter(s *memstore.Store, sheet inventory.SheetReader) *inventory.ImportCatalogUseCase {
	return inventory.NewImportCatalogUseCase(s, s.Products(), s.Categories(), s.Warehouses(), sheet, s.Recorder())
}

func TestImport_CSVConPuntoYComaYLatin1(t *testing.T) {
	s := memstore.New()
	companyID, whID, userID := s.SeedCompany("900123456")
	ctx := context.Background()

	csv := "sku;nombre;precio;iva;categoria;etiquetas;stock_inicial;costo\n" +
		"CAF-01;Café tostado;12.500,00;19;Bebidas;café|granos;10;8000\n" +
		"AZU-01;Azúcar;4500;5;Despensa;;;\n"
	data, err := charmap.Windows1252.NewEncoder().Bytes([]byte(csv))
	require.NoError(t, err)

	res, err := newImporter(s, nil).Import(ctx, inventory.ImportInput{
		CompanyID: companyID, UserID: userID, Filename: "catalogo.csv", Data: data, WarehouseID: whID,
	})
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", res.Encoding)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Stocked)
	assert.Empty(t, res.Errors)

	p, err := s.Products().GetByCompanyAndSKU(ctx, companyID, "CAF-01")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Café tostado", p.Name)
	assert.True(t, p.Price.Equal(dec("12500")))
	assert.True(t, p.Cost.Equal(dec("8000")))
	assert.Equal(t, []string{"café", "granos"}, p.Tags)
	assert.NotEmpty(t, p.CategoryID)
	assert.True(t, s.StockOf(p.ID, whID).Equal(dec("10")))

	cats, _ := s.Categories().ListByCompany(ctx, companyID)
	assert.Len(t, cats, 2)
}

func TestImport_ActualizaPorSKUyReportaErrores(t *testing.T) {
	s := memstore.New()
	companyID, whID, userID := s.SeedCompany("900123456")
	ctx := context.Background()
	s.SeedProduct(companyID, whID, "A1", dec("100"), dec("50"), dec("19"), dec("0"))

	csv := "\xef\xbb\xbfsku,name,price,tax_rate,warehouse,initial_stock\n" +
		"A1,Nuevo nombre,150,19,,\n" +
		"B2,Sin precio,,0,,\n" +
		"C3,IVA raro,10,16,,\n" +
		"D4,Bodega inexistente,10,0,Sur,3\n" +
		"A1,Repetido,10,0,,\n" +
		",,,,,\n"
	res, err := newImporter(s, nil).Import(ctx, inventory.ImportInput{
		CompanyID: companyID, UserID: userID, Filename: "x.csv", Data: []byte(csv),
	})
	require.NoError(t, err)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Errors, 4)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.Equal(t, 5, res.Errors[2].Row)
	assert.Equal(t, 6, res.Errors[3].Row)

	p, _ := s.Products().GetByCompanyAndSKU(ctx, companyID, "A1")
	assert.Equal(t, "Nuevo nombre", p.Name)
	assert.True(t, p.Price.Equal(dec("150")))
}

func TestImport_DryRunNoPersiste(t *testing.T) {
	s := memstore.New()
	companyID, _, userID := s.SeedCompany("900123456")
	ctx := context.Background()

	sheet := fakeSheet{rows: [][]string{
		{"SKU", "Nombre", "Precio", "Stock", "Bodega"},
		{"X1", "Producto X", "1000", "4", "Principal"},
	}}
	res, err := newImporter(s, sheet).Import(ctx, inventory.ImportInput{
		CompanyID: companyID, UserID: userID, Filename: "libro.xlsx", Data: []byte("zip"), DryRun: true,
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.FormatXLSX, res.Format)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Stocked)

	list, total, _ := s.Products().List(ctx, companyID, repository.ProductFilter{})
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.Empty(t, s.AuditEntries())
}

func TestImport_Errores(t *testing.T) {
	s := memstore.New()
	companyID, _, userID := s.SeedCompany("900123456")
	imp := newImporter(s, nil)

	_, err := imp.Import(context.Background(), inventory.ImportInput{CompanyID: companyID, UserID: userID, Filename: "a.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = imp.Import(context.Background(), inventory.ImportInput{CompanyID: companyID, UserID: userID, Filename: "a.csv", Data: []byte("precio,iva\n1,2\n")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = imp.Import(context.Background(), inventory.ImportInput{CompanyID: companyID, UserID: userID, Filename: "a.csv", Data: []byte("sku,name\n")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"1234.5":      "1234.5",
		"1234,5":      "1234.5",
		"1.234,50":    "1234.5",
		"1,234.50":    "1234.5",
		"$ 12.000,00": "12000",
	}
	for in, want := range cases {
		got, err := inventory.ParseAmount(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(dec(want)), "%s -> %s", in, got)
	}
	_, err := inventory.ParseAmount("doce")
	assert.Error(t, err)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, inventory.SplitTags(" A | b c ,a,, "))
	assert.Empty(t, inventory.SplitTags(""))
}
