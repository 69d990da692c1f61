package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
)

// Rollo térmico de 80 mm.
const (
	ticketWidth  = 80
	ticketHeight = 200
)

var vehicleLabels = map[string]string{
	entity.VehicleCar:        "Automóvil",
	entity.VehicleMotorcycle: "Motocicleta",
	entity.VehicleBicycle:    "Bicicleta",
	entity.VehicleTruck:      "Camión",
}

// GenerateTicket tiquete de entrada (sin quote) o de salida con la liquidación.
func (g *MarotoPDFGenerator) GenerateTicket(_ context.Context, company *entity.Company, session *entity.ParkingSession, quote *domainparking.Quote) ([]byte, error) {
	cfg := config.NewBuilder().
		WithDimensions(ticketWidth, ticketHeight).
		WithLeftMargin(4).WithRightMargin(4).
		WithTopMargin(4).WithBottomMargin(4).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Tiquete "+session.TicketNumber, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(centered(company.Name, 10, fontstyle.Bold, 6))
	m.AddRows(centered("NIT: "+company.NIT, 7, fontstyle.Normal, 4))
	if company.Address != "" {
		m.AddRows(centered(company.Address, 7, fontstyle.Normal, 4))
	}
	m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}))

	m.AddRows(centered(session.Plate, 16, fontstyle.Bold, 9))
	m.AddRows(centered(nonEmpty(vehicleLabels[session.VehicleType], session.VehicleType), 8, fontstyle.Normal, 4))
	m.AddRows(pair("Tiquete", session.TicketNumber))
	m.AddRows(pair("Entrada", session.EntryAt.Format("02/01/2006 15:04")))
	if session.Spot != "" {
		m.AddRows(pair("Puesto", session.Spot))
	}
	if session.KeyTag != "" {
		m.AddRows(pair("Llaves", session.KeyTag))
	}

	switch {
	case session.Status == entity.SessionStatusCancelled:
		m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}))
		m.AddRows(centered("ANULADO", 12, fontstyle.Bold, 7))
		if session.CancelReason != "" {
			m.AddRows(centered(session.CancelReason, 7, fontstyle.Italic, 4))
		}
	case quote != nil:
		for _, r := range settlementRows(session, quote) {
			m.AddRows(r)
		}
	default:
		m.AddRows(row.New(3))
		m.AddRows(row.New(16).Add(col.New(12).Add(code.NewBar(session.TicketNumber, props.Barcode{Percent: 90, Center: true}))))
		m.AddRows(centered("Conserve este tiquete para retirar su vehículo.", 7, fontstyle.Italic, 5))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar tiquete: %w", err)
	}
	return doc.GetBytes(), nil
}

// settlementRows detalle de la liquidación al salir.
func settlementRows(session *entity.ParkingSession, q *domainparking.Quote) []core.Row {
	rows := []core.Row{
		pair("Salida", q.Exit.Format("02/01/2006 15:04")),
		pair("Tiempo", formatMinutes(q.DurationMinutes)),
		line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}),
	}
	if q.Covered {
		rows = append(rows, centered("ABONADO", 11, fontstyle.Bold, 6))
	}
	for _, l := range q.Breakdown {
		rows = append(rows, pair(l.Label, "$"+formatMoney(l.Amount.StringFixed(0))))
	}
	if q.GraceApplied {
		rows = append(rows, centered("Dentro del tiempo de gracia", 7, fontstyle.Italic, 4))
	}
	if q.MinimumApplied {
		rows = append(rows, centered("Se aplicó el cobro mínimo", 7, fontstyle.Italic, 4))
	}
	rows = append(rows,
		line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.3}),
		row.New(7).Add(
			col.New(6).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 11, Color: colorPrimary})),
			col.New(6).Add(text.New("$"+formatMoney(q.Total.StringFixed(0)), props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary})),
		),
	)
	if session.PaymentMethod != "" {
		rows = append(rows, pair("Pago", session.PaymentMethod))
	}
	rows = append(rows, centered("Gracias por su visita", 7, fontstyle.Italic, 6))
	return rows
}

func centered(s string, size float64, style fontstyle.Type, height float64) core.Row {
	return row.New(height).Add(col.New(12).Add(text.New(s, props.Text{
		Size: size, Style: style, Align: align.Center,
	})))
}

func pair(label, value string) core.Row {
	return row.New(4.5).Add(
		col.New(5).Add(text.New(label, props.Text{Size: 8, Color: colorGray})),
		col.New(7).Add(text.New(value, props.Text{Size: 8, Align: align.Right})),
	)
}

// formatMinutes 135 → "2 h 15 min".
func formatMinutes(m int64) string {
	h, mm := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", mm)
	case mm == 0:
		return fmt.Sprintf("%d h", h)
	}
	return fmt.Sprintf("%d h %d min", h, mm)
}
