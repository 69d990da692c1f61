package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/ledger"
)

func TestWriteAging(t *testing.T) {
	buckets := func(cur, old int64) map[string]decimal.Decimal {
		m := map[string]decimal.Decimal{}
		for _, b := range ledger.Buckets {
			m[b] = decimal.Zero
		}
		m[ledger.BucketCurrent] = decimal.NewFromInt(cur)
		m[ledger.BucketOver90] = decimal.NewFromInt(old)
		return m
	}
	report := &dto.AgingReport{
		AsOf: "2026-03-31",
		Rows: []dto.AgingRow{
			{CustomerName: "Pequeño", Buckets: buckets(100, 0), Total: decimal.NewFromInt(100)},
			{CustomerName: "Grande", Buckets: buckets(0, 5000), Total: decimal.NewFromInt(5000)},
		},
		Totals:  buckets(100, 5000),
		Overall: decimal.NewFromInt(5100),
	}

	var buf bytes.Buffer
	require.NoError(t, New().WriteAging(&buf, "Tienda SAS", report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Cartera"}, f.GetSheetList())
	v, _ := f.GetCellValue("Cartera", "A1")
	assert.Equal(t, "Tienda SAS", v)
	v, _ = f.GetCellValue("Cartera", "A4")
	assert.Equal(t, "Cliente", v)
	// mayor saldo primero
	v, _ = f.GetCellValue("Cartera", "A5")
	assert.Equal(t, "Grande", v)
	v, _ = f.GetCellValue("Cartera", "A7")
	assert.Equal(t, "TOTAL", v)
	raw, _ := f.GetCellValue("Cartera", "G7", excelize.Options{RawCellValue: true})
	assert.Equal(t, "5100", raw)
}

func TestWriteParkingReport(t *testing.T) {
	exit := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	report := &dto.ParkingReport{
		From: "2026-03-01", To: "2026-03-01",
		Sessions: []dto.SessionResponse{
			{TicketNumber: "P000001", Plate: "ABC123", VehicleType: "car", EntryAt: exit.Add(-time.Hour), ExitAt: &exit, Status: "closed", Amount: decimal.NewFromInt(4000), PaymentMethod: "cash"},
			{TicketNumber: "P000002", Plate: "XYZ99D", VehicleType: "motorcycle", EntryAt: exit, Status: "active"},
		},
		Closed: 1, Active: 1,
		ByVehicle: map[string]decimal.Decimal{"car": decimal.NewFromInt(4000)},
		Total:     decimal.NewFromInt(4000),
	}

	var buf bytes.Buffer
	require.NoError(t, New().WriteParkingReport(&buf, "Parqueadero Centro", report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sesiones")
	require.NoError(t, err)

	assert.Equal(t, "Tiquete", rows[4][0])
	assert.Equal(t, "ABC123", rows[5][1])
	assert.Equal(t, "2026-03-01 10:30", rows[5][4])
	assert.Equal(t, "XYZ99D", rows[6][1])
	assert.Equal(t, "TOTAL", rows[len(rows)-1][0])
}

func TestReadRows(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"sku", "name", "price"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{" P-1 ", "Café", 12000}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"P-2", "Té", 8000.5}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	rows, err := New().ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"sku", "name", "price"}, rows[0])
	assert.Equal(t, "P-1", rows[1][0])
	assert.Equal(t, "12000", rows[1][2])
	assert.Equal(t, "P-2", rows[2][0])
}

func TestReadRows_NotAWorkbook(t *testing.T) {
	_, err := New().ReadRows(bytes.NewReader([]byte("sku,name\n")))
	assert.Error(t, err)
}
