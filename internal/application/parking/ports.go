// Package parking casos de uso del parqueadero: tarifas, entradas y salidas de vehículos,
// abonados y reportes. La liquidación vive en internal/domain/parking.
package parking

import (
	"context"
	"io"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

// Repos repositorios ligados a una transacción del parqueadero.
type Repos struct {
	Sessions      repository.ParkingSessionRepository
	Subscriptions repository.ParkingSubscriptionRepository
	Tariffs       repository.ParkingTariffRepository
}

// TxRunner ejecuta fn dentro de una transacción; cualquier error hace rollback.
type TxRunner interface {
	RunParking(ctx context.Context, fn func(r Repos) error) error
}

// TicketGenerator genera el tiquete PDF. quote es nil si la sesión fue anulada.
type TicketGenerator interface {
	GenerateTicket(ctx context.Context, company *entity.Company, session *entity.ParkingSession, quote *domainparking.Quote) ([]byte, error)
}

// ReportExporter escribe el reporte de sesiones como hoja de cálculo.
type ReportExporter interface {
	WriteParkingReport(w io.Writer, companyName string, report *dto.ParkingReport) error
}
