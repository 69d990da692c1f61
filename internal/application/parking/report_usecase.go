package parking

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

const reportPageSize = 500

// ReportUseCase reporte de sesiones por rango de fechas de entrada.
type ReportUseCase struct {
	sessionRepo repository.ParkingSessionRepository
	companyRepo repository.CompanyRepository
	exporter    ReportExporter
}

func NewReportUseCase(sessionRepo repository.ParkingSessionRepository, companyRepo repository.CompanyRepository, exporter ReportExporter) *ReportUseCase {
	return &ReportUseCase{sessionRepo: sessionRepo, companyRepo: companyRepo, exporter: exporter}
}

// Report sesiones con entrada en [from, to] y el recaudo de las cerradas.
func (uc *ReportUseCase) Report(ctx context.Context, companyID string, from, to time.Time) (*dto.ParkingReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	report := &dto.ParkingReport{
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Sessions:  []dto.SessionResponse{},
		ByVehicle: map[string]decimal.Decimal{},
		Total:     decimal.Zero,
	}
	for offset := 0; ; offset += reportPageSize {
		list, _, err := uc.sessionRepo.List(ctx, companyID, repository.SessionFilter{
			From: &from, To: &to, Limit: reportPageSize, Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			report.Sessions = append(report.Sessions, toSessionResponse(s))
			switch s.Status {
			case entity.SessionStatusClosed:
				report.Closed++
				report.ByVehicle[s.VehicleType] = report.ByVehicle[s.VehicleType].Add(s.Amount)
				report.Total = report.Total.Add(s.Amount)
			case entity.SessionStatusCancelled:
				report.Cancelled++
			default:
				report.Active++
			}
		}
		if len(list) < reportPageSize {
			break
		}
	}
	return report, nil
}

// ExportReport reporte como XLSX.
func (uc *ReportUseCase) ExportReport(ctx context.Context, companyID string, from, to time.Time) ([]byte, string, error) {
	report, err := uc.Report(ctx, companyID, from, to)
	if err != nil {
		return nil, "", err
	}
	companyName := ""
	if c, err := uc.companyRepo.GetByID(ctx, companyID); err == nil && c != nil {
		companyName = c.Name
	}
	var buf bytes.Buffer
	if err := uc.exporter.WriteParkingReport(&buf, companyName, report); err != nil {
		return nil, "", fmt.Errorf("exportar parqueadero: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("parqueadero_%s_%s.xlsx", report.From, report.To), nil
}
