package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/pricing"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	maxImportRows = 5000
)

// Columnas reconocidas y sus alias en español.
var columnAliases = map[string]string{
	"sku": "sku", "codigo": "sku", "código": "sku", "referencia": "sku",
	"name": "name", "nombre": "name", "producto": "name",
	"description": "description", "descripcion": "description", "descripción": "description",
	"price": "price", "precio": "price", "precio_venta": "price",
	"tax_rate": "tax_rate", "iva": "tax_rate",
	"unit_measure": "unit_measure", "unidad": "unit_measure",
	"barcode": "barcode", "codigo_barras": "barcode", "ean": "barcode",
	"category": "category", "categoria": "category", "categoría": "category",
	"tags": "tags", "etiquetas": "tags",
	"initial_stock": "initial_stock", "stock": "initial_stock", "stock_inicial": "initial_stock", "cantidad": "initial_stock",
	"unit_cost": "unit_cost", "costo": "unit_cost", "costo_unitario": "unit_cost",
	"warehouse": "warehouse", "bodega": "warehouse",
}

// ImportInput archivo a importar. Format vacío se deduce de la extensión.
// WarehouseID es la bodega por defecto del stock inicial.
type ImportInput struct {
	CompanyID   string
	UserID      string
	Filename    string
	Format      string
	Data        []byte
	DryRun      bool
	WarehouseID string
}

// ImportCatalogUseCase carga masiva del catálogo desde CSV o XLSX, con upsert por SKU.
type ImportCatalogUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	warehouseRepo repository.WarehouseRepository
	sheets        SheetReader
	audit         ports.AuditRecorder
}

func NewImportCatalogUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	warehouseRepo repository.WarehouseRepository,
	sheets SheetReader,
	auditRec ports.AuditRecorder,
) *ImportCatalogUseCase {
	return &ImportCatalogUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		warehouseRepo: warehouseRepo,
		sheets:        sheets,
		audit:         auditRec,
	}
}

// importRow fila ya interpretada.
type importRow struct {
	line         int
	sku          string
	name         string
	description  string
	price        *decimal.Decimal
	taxRate      *decimal.Decimal
	unitMeasure  string
	barcode      string
	category     string
	tags         []string
	initialStock decimal.Decimal
	unitCost     *decimal.Decimal
	warehouse    string
}

// Import procesa el archivo fila por fila; cada fila se guarda en su propia transacción
// y sus errores se reportan sin detener el resto. En DryRun solo valida.
func (uc *ImportCatalogUseCase) Import(ctx context.Context, in ImportInput) (*dto.ImportResult, error) {
	format := strings.ToLower(in.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(in.Filename)), ".")
	}
	res := &dto.ImportResult{Format: format, DryRun: in.DryRun, Errors: []dto.ImportRowError{}}

	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV, "txt":
		res.Format = FormatCSV
		records, res.Encoding, err = ReadCSV(in.Data)
	case FormatXLSX:
		records, err = uc.sheets.ReadRows(bytes.NewReader(in.Data))
	default:
		return nil, fmt.Errorf("%w: formato %q no soportado (csv o xlsx)", domain.ErrInvalidInput, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: el archivo no tiene filas de datos", domain.ErrInvalidInput)
	}
	if len(records)-1 > maxImportRows {
		return nil, fmt.Errorf("%w: máximo %d filas por archivo", domain.ErrInvalidInput, maxImportRows)
	}

	cols, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}
	warehouses, err := uc.warehouseIndex(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	for i, rec := range records[1:] {
		line := i + 2
		if blank(rec) {
			continue
		}
		res.Rows++
		row, err := parseRow(line, rec, cols)
		if err == nil {
			if prev, dup := seen[row.sku]; dup {
				err = fmt.Errorf("SKU repetido (fila %d)", prev)
			}
		}
		if err != nil {
			res.Errors = append(res.Errors, dto.ImportRowError{Row: line, SKU: cell(rec, cols, "sku"), Message: err.Error()})
			continue
		}
		seen[row.sku] = line

		created, stocked, err := uc.applyRow(ctx, in, row, warehouses)
		if err != nil {
			res.Errors = append(res.Errors, dto.ImportRowError{Row: line, SKU: row.sku, Message: rowMessage(err)})
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		if stocked {
			res.Stocked++
		}
	}

	if !in.DryRun {
		uc.audit.Record(ctx, audit.Entry(in.CompanyID, in.UserID, entity.AuditImport, "product", "",
			fmt.Sprintf("importación %s: %d creados, %d actualizados, %d errores", in.Filename, res.Created, res.Updated, len(res.Errors)),
			nil, res))
	}
	return res, nil
}

func (uc *ImportCatalogUseCase) applyRow(ctx context.Context, in ImportInput, row *importRow, warehouses map[string]string) (created, stocked bool, err error) {
	whID := in.WarehouseID
	if row.warehouse != "" {
		id, ok := warehouses[strings.ToLower(row.warehouse)]
		if !ok {
			return false, false, fmt.Errorf("%w: bodega %q", domain.ErrNotFound, row.warehouse)
		}
		whID = id
	}
	if row.initialStock.IsPositive() && whID == "" {
		return false, false, fmt.Errorf("%w: el stock inicial requiere bodega", domain.ErrInvalidInput)
	}

	existing, err := uc.productRepo.GetByCompanyAndSKU(ctx, in.CompanyID, row.sku)
	if err != nil {
		return false, false, err
	}
	categoryID := ""
	if row.category != "" {
		categoryID, err = uc.resolveCategory(ctx, in.CompanyID, row.category, in.DryRun)
		if err != nil {
			return false, false, err
		}
	}

	now := time.Now()
	product := existing
	if product == nil {
		if row.price == nil {
			return false, false, fmt.Errorf("%w: precio requerido para productos nuevos", domain.ErrInvalidInput)
		}
		product = &entity.Product{
			ID:          uuid.New().String(),
			CompanyID:   in.CompanyID,
			SKU:         row.sku,
			Cost:        decimal.Zero,
			TaxRate:     decimal.Zero,
			UnitMeasure: dian.UnitUnit,
			Active:      true,
			CreatedAt:   now,
		}
	}
	mergeRow(product, row, categoryID)
	product.UpdatedAt = now
	stocked = row.initialStock.IsPositive()

	if in.DryRun {
		return existing == nil, stocked, nil
	}

	err = uc.txRunner.Run(ctx, func(r Repos) error {
		if existing == nil {
			if err := r.Products.Create(ctx, product); err != nil {
				return err
			}
		} else if err := r.Products.Update(ctx, product); err != nil {
			return err
		}
		if row.tags != nil {
			if err := r.Products.SetTags(ctx, product.ID, row.tags); err != nil {
				return err
			}
		}
		if !stocked {
			return nil
		}
		cost := product.Cost
		if row.unitCost != nil {
			cost = *row.unitCost
		}
		_, err := Apply(ctx, r, Move{
			Type:          entity.MovementTypeIN,
			ProductID:     product.ID,
			WarehouseID:   whID,
			Quantity:      row.initialStock,
			UnitCost:      &cost,
			TransactionID: uuid.New().String(),
			Reference:     "import:" + in.Filename,
			UserID:        in.UserID,
			At:            now,
		})
		return err
	})
	return existing == nil, stocked, err
}

func mergeRow(p *entity.Product, row *importRow, categoryID string) {
	if row.name != "" {
		p.Name = row.name
	}
	if row.description != "" {
		p.Description = row.description
	}
	if row.price != nil {
		p.Price = *row.price
	}
	if row.taxRate != nil {
		p.TaxRate = *row.taxRate
	}
	if row.unitMeasure != "" {
		p.UnitMeasure = row.unitMeasure
	}
	if row.barcode != "" {
		p.Barcode = row.barcode
	}
	if categoryID != "" {
		p.CategoryID = categoryID
	}
	if row.tags != nil {
		p.Tags = row.tags
	}
}

func (uc *ImportCatalogUseCase) resolveCategory(ctx context.Context, companyID, name string, dryRun bool) (string, error) {
	code := categoryCode(name)
	cat, err := uc.categoryRepo.GetByCompanyAndCode(ctx, companyID, code)
	if err != nil {
		return "", err
	}
	if cat != nil {
		return cat.ID, nil
	}
	if dryRun {
		return "", nil
	}
	now := time.Now()
	cat = &entity.Category{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      name,
		Code:      code,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.categoryRepo.Create(ctx, cat); err != nil {
		return "", err
	}
	return cat.ID, nil
}

// warehouseIndex bodegas de la empresa por id y por nombre en minúsculas.
func (uc *ImportCatalogUseCase) warehouseIndex(ctx context.Context, companyID string) (map[string]string, error) {
	list, err := uc.warehouseRepo.ListByCompany(ctx, companyID, 500, 0)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]string, len(list)*2)
	for _, w := range list {
		idx[strings.ToLower(w.ID)] = w.ID
		idx[strings.ToLower(w.Name)] = w.ID
	}
	return idx, nil
}

// ReadCSV decodifica el archivo detectando UTF-8 (con o sin BOM) o Windows-1252,
// y el separador ';' o ','. Devuelve las filas y la codificación usada.
func ReadCSV(data []byte) ([][]string, string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	encoding := "utf-8"
	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		encoding = "windows-1252"
		src = transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
	}

	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	r := csv.NewReader(src)
	r.Comma = ','
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		r.Comma = ';'
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, encoding, fmt.Errorf("leer csv: %w", err)
	}
	return records, encoding, nil
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if name, ok := columnAliases[key]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	for _, req := range []string{"sku", "name"} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q", domain.ErrInvalidInput, req)
		}
	}
	return cols, nil
}

func parseRow(line int, rec []string, cols map[string]int) (*importRow, error) {
	row := &importRow{
		line:        line,
		sku:         strings.TrimSpace(cell(rec, cols, "sku")),
		name:        strings.TrimSpace(cell(rec, cols, "name")),
		description: strings.TrimSpace(cell(rec, cols, "description")),
		unitMeasure: strings.ToUpper(strings.TrimSpace(cell(rec, cols, "unit_measure"))),
		barcode:     strings.TrimSpace(cell(rec, cols, "barcode")),
		category:    strings.TrimSpace(cell(rec, cols, "category")),
		warehouse:   strings.TrimSpace(cell(rec, cols, "warehouse")),
	}
	if row.sku == "" {
		return nil, errors.New("SKU vacío")
	}
	if len(row.sku) > 100 {
		return nil, errors.New("SKU supera 100 caracteres")
	}
	if row.name == "" {
		return nil, errors.New("nombre vacío")
	}

	var err error
	if row.price, err = optDecimal(cell(rec, cols, "price"), "precio"); err != nil {
		return nil, err
	}
	if row.price != nil && row.price.IsNegative() {
		return nil, errors.New("precio negativo")
	}
	if row.taxRate, err = optDecimal(strings.TrimSuffix(cell(rec, cols, "tax_rate"), "%"), "IVA"); err != nil {
		return nil, err
	}
	if row.taxRate != nil {
		r := pricing.NormalizeRate(*row.taxRate)
		if !pricing.ValidRate(r) {
			return nil, fmt.Errorf("IVA %s no válido (0, 5 o 19)", row.taxRate.String())
		}
		row.taxRate = &r
	}
	stock, err := optDecimal(cell(rec, cols, "initial_stock"), "stock inicial")
	if err != nil {
		return nil, err
	}
	if stock != nil {
		if stock.IsNegative() {
			return nil, errors.New("stock inicial negativo")
		}
		row.initialStock = *stock
	}
	if row.unitCost, err = optDecimal(cell(rec, cols, "unit_cost"), "costo"); err != nil {
		return nil, err
	}
	if row.unitCost != nil && row.unitCost.IsNegative() {
		return nil, errors.New("costo negativo")
	}
	if _, ok := cols["tags"]; ok {
		row.tags = SplitTags(cell(rec, cols, "tags"))
	}
	return row, nil
}

// SplitTags separa por '|' o ',' y normaliza a minúsculas sin repetidos.
func SplitTags(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ParseAmount acepta "1234.5", "1234,5", "1.234,50" y "1,234.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, " ", "")
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

func optDecimal(s, field string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("%s %q no es un número", field, s)
	}
	return &d, nil
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func categoryCode(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

func rowMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
		return err.Error()
	}
	return "error guardando la fila: " + err.Error()
}
