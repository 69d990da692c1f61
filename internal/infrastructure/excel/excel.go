// Package excel hojas de cálculo con excelize: reportes exportables y lectura de catálogos.
package excel

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/inventory"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
)

const moneyFormat = `#,##0.00`

var bucketTitles = map[string]string{
	ledger.BucketCurrent: "Al día",
	ledger.Bucket1To30:   "1-30 días",
	ledger.Bucket31To60:  "31-60 días",
	ledger.Bucket61To90:  "61-90 días",
	ledger.BucketOver90:  "Más de 90",
}

// Workbook implementa los exportadores de cartera y parqueadero y el lector de catálogos.
type Workbook struct{}

func New() *Workbook { return &Workbook{} }

var (
	_ billing.AgingExporter  = (*Workbook)(nil)
	_ parking.ReportExporter = (*Workbook)(nil)
	_ inventory.SheetReader  = (*Workbook)(nil)
)

// sheet escribe filas consecutivas en una hoja con estilos de encabezado y moneda.
type sheet struct {
	f      *excelize.File
	name   string
	row    int
	header int
	money  int
	frozen bool
	err    error
}

func newSheet(name string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr(moneyFormat)})
	if err != nil {
		return nil, err
	}
	return &sheet{f: f, name: name, row: 1, header: header, money: money}, nil
}

func ptr[T any](v T) *T { return &v }

// put escribe una fila; los decimal.Decimal se guardan como número con formato de moneda.
func (s *sheet) put(values ...any) {
	if s.err != nil {
		return
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if d, ok := v.(decimal.Decimal); ok {
			f, _ := d.Float64()
			v = f
			if err := s.f.SetCellStyle(s.name, cell, cell, s.money); err != nil {
				s.err = err
				return
			}
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			s.err = err
			return
		}
	}
	s.row++
}

func (s *sheet) headerRow(titles ...string) {
	if s.err != nil {
		return
	}
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	start := s.row
	s.put(values...)
	if s.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, start)
	to, _ := excelize.CoordinatesToCellName(len(titles), start)
	s.err = s.f.SetCellStyle(s.name, from, to, s.header)
	if s.err == nil && !s.frozen {
		s.frozen = true
		s.err = s.f.SetPanes(s.name, &excelize.Panes{Freeze: true, Split: false, YSplit: start, TopLeftCell: fmt.Sprintf("A%d", start+1), ActivePane: "bottomLeft"})
	}
}

func (s *sheet) blank() { s.row++ }

func (s *sheet) widths(w ...float64) {
	for i, width := range w {
		if s.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetColWidth(s.name, col, col, width)
	}
}

func (s *sheet) write(w io.Writer) error {
	defer s.f.Close()
	if s.err != nil {
		return s.err
	}
	_, err := s.f.WriteTo(w)
	return err
}

// WriteAging hoja "Cartera": un cliente por fila con sus saldos por antigüedad.
func (Workbook) WriteAging(w io.Writer, companyName string, report *dto.AgingReport) error {
	s, err := newSheet("Cartera")
	if err != nil {
		return err
	}
	s.put(companyName)
	s.put("Edades de cartera al", report.AsOf)
	s.blank()

	titles := []string{"Cliente"}
	for _, b := range ledger.Buckets {
		titles = append(titles, bucketTitles[b])
	}
	titles = append(titles, "Total")
	s.headerRow(titles...)

	rows := append([]dto.AgingRow(nil), report.Rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total.GreaterThan(rows[j].Total) })
	for _, r := range rows {
		values := []any{r.CustomerName}
		for _, b := range ledger.Buckets {
			values = append(values, r.Buckets[b])
		}
		values = append(values, r.Total)
		s.put(values...)
	}
	totals := []any{"TOTAL"}
	for _, b := range ledger.Buckets {
		totals = append(totals, report.Totals[b])
	}
	totals = append(totals, report.Overall)
	s.put(totals...)
	s.widths(36, 14, 14, 14, 14, 14, 16)
	return s.write(w)
}

// WriteParkingReport hoja "Sesiones" con el detalle y un resumen por tipo de vehículo.
func (Workbook) WriteParkingReport(w io.Writer, companyName string, report *dto.ParkingReport) error {
	s, err := newSheet("Sesiones")
	if err != nil {
		return err
	}
	s.put(companyName)
	s.put("Parqueadero del", report.From, "al", report.To)
	s.put("Cerradas", report.Closed, "Anuladas", report.Cancelled, "Activas", report.Active)
	s.blank()

	s.headerRow("Tiquete", "Placa", "Vehículo", "Entrada", "Salida", "Estado", "Medio de pago", "Valor")
	for _, ss := range report.Sessions {
		exit := ""
		if ss.ExitAt != nil {
			exit = ss.ExitAt.Format("2006-01-02 15:04")
		}
		s.put(ss.TicketNumber, ss.Plate, ss.VehicleType, ss.EntryAt.Format("2006-01-02 15:04"),
			exit, ss.Status, ss.PaymentMethod, ss.Amount)
	}
	s.blank()

	types := make([]string, 0, len(report.ByVehicle))
	for vt := range report.ByVehicle {
		types = append(types, vt)
	}
	sort.Strings(types)
	s.headerRow("Vehículo", "Recaudo")
	for _, vt := range types {
		s.put(vt, report.ByVehicle[vt])
	}
	s.put("TOTAL", report.Total)
	s.widths(14, 12, 14, 18, 18, 12, 16, 14)
	return s.write(w)
}

// ReadRows primera hoja del libro; las filas vacías se omiten.
func (Workbook) ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheets[0], err)
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out, nil
}
