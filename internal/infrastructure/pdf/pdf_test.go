package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/invorya-erp/internal/application/billing"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"950":      "950",
		"25000":    "25.000",
		"1000000":  "1.000.000",
		"-1234567": "-1.234.567",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), in)
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "3", formatQty(decimal.NewFromInt(3)))
	assert.Equal(t, "2,5", formatQty(decimal.RequireFromString("2.50")))
	assert.Equal(t, "45 min", formatMinutes(45))
	assert.Equal(t, "2 h", formatMinutes(120))
	assert.Equal(t, "2 h 15 min", formatMinutes(135))
	assert.Equal(t, []string{"abc", "de"}, splitEvery("abcde", 3))
}

func company() *entity.Company {
	return &entity.Company{ID: "c1", Name: "Invorya SAS", NIT: "900123456-7", Address: "Cra 7 # 10-20"}
}

func TestGenerateInvoicePDF(t *testing.T) {
	d := decimal.NewFromInt
	inv := &entity.Invoice{
		ID: "i1", Prefix: "SETP", Number: "990000001", Date: time.Now(), DueDate: time.Now().AddDate(0, 0, 30),
		PaymentForm: "2", PaymentMethod: "10",
		NetTotal: d(100000), TaxTotal: d(19000), GrandTotal: d(119000), PaidTotal: d(50000),
		CreditedTotal: decimal.Zero, DiscountTotal: decimal.Zero,
		Status: entity.InvoiceStatusPartial, CUFE: "abc123", QRData: "https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey=abc123",
	}
	details := []appbilling.InvoiceDetailForPDF{{
		InvoiceDetail: entity.InvoiceDetail{Quantity: d(2), UnitPrice: d(50000), TaxRate: d(19), Subtotal: d(100000), Discount: decimal.Zero},
		ProductName:   "Servicio",
	}}
	out, err := NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), inv, company(),
		&entity.Customer{Name: "Cliente", TaxID: "123"}, details)
	require.NoError(t, err)
	assert.True(t, len(out) > 4 && string(out[:4]) == "%PDF")
}

func TestGenerateTicket(t *testing.T) {
	entry := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s := &entity.ParkingSession{
		ID: "s1", TicketNumber: "P000042", Plate: "ABC123", VehicleType: entity.VehicleCar,
		EntryAt: entry, Status: entity.SessionStatusActive,
	}
	g := NewMarotoPDFGenerator()

	out, err := g.GenerateTicket(context.Background(), company(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))

	exit := entry.Add(135 * time.Minute)
	s.ExitAt, s.Status, s.PaymentMethod = &exit, entity.SessionStatusClosed, "cash"
	q := &domainparking.Quote{
		Entry: entry, Exit: exit, DurationMinutes: 135, Total: decimal.NewFromInt(6000),
		Breakdown: []domainparking.QuoteLine{{Label: "3 horas", Units: 3, Amount: decimal.NewFromInt(6000)}},
	}
	out, err = g.GenerateTicket(context.Background(), company(), s, q)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
