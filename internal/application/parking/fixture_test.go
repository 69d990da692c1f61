package parking_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/parking"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
	"github.com/jhoicas/invorya-erp/internal/testutil/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeTicket struct {
	session *entity.ParkingSession
	quote   *domainparking.Quote
}

func (g *fakeTicket) GenerateTicket(_ context.Context, _ *entity.Company, s *entity.ParkingSession, q *domainparking.Quote) ([]byte, error) {
	g.session, g.quote = s, q
	return []byte("%PDF-ticket"), nil
}

type fakeReport struct{ report *dto.ParkingReport }

func (f *fakeReport) WriteParkingReport(w io.Writer, companyName string, r *dto.ParkingReport) error {
	f.report = r
	_, err := w.Write([]byte(companyName))
	return err
}

type fixture struct {
	store    *memstore.Store
	tariffs  *parking.TariffUseCase
	sessions *parking.SessionUseCase
	subs     *parking.SubscriptionUseCase
	reports  *parking.ReportUseCase
	ticket   *fakeTicket
	exporter *fakeReport

	companyID string
	whID      string
	userID    string
}

// newFixture: sede con 2 cupos y tarifa de carro por hora a 3.000, 10 min de gracia,
// 5 de tolerancia, tope diario 20.000 y redondeo a 100.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	companyID, whID, userID := s.SeedCompany("900123456")
	f := &fixture{store: s, ticket: &fakeTicket{}, exporter: &fakeReport{}, companyID: companyID, whID: whID, userID: userID}
	rec := s.Recorder()
	f.tariffs = parking.NewTariffUseCase(s.Tariffs(), rec, dec("100"))
	f.sessions = parking.NewSessionUseCase(s, s.Sessions(), s.Tariffs(), s.Subscriptions(), s.Warehouses(), s.Companies(), nil, f.ticket, rec)
	f.subs = parking.NewSubscriptionUseCase(s.Subscriptions(), s.Tariffs(), rec)
	f.reports = parking.NewReportUseCase(s.Sessions(), s.Companies(), f.exporter)

	_, err := f.tariffs.UpsertTariff(context.Background(), companyID, userID, dto.UpsertTariffRequest{
		VehicleType: entity.VehicleCar, Name: "Carro por hora", Unit: "hour", UnitPrice: dec("3000"),
		GraceMinutes: 10, ToleranceMinutes: 5, DailyCap: dec("20000"),
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) enter(t *testing.T, plate string, entryAt time.Time) *dto.SessionResponse {
	t.Helper()
	s, err := f.sessions.RegisterEntry(context.Background(), f.companyID, f.userID, dto.RegisterEntryRequest{
		WarehouseID: f.whID, Plate: plate, VehicleType: entity.VehicleCar, EntryAt: &entryAt,
	})
	require.NoError(t, err)
	return s
}
