package parking

import (
	"time"

	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
)

func toTariffResponse(t *entity.ParkingTariff) dto.TariffResponse {
	return dto.TariffResponse{
		ID:               t.ID,
		VehicleType:      t.VehicleType,
		Name:             t.Name,
		Unit:             t.Unit,
		UnitPrice:        t.UnitPrice,
		GraceMinutes:     t.GraceMinutes,
		ToleranceMinutes: t.ToleranceMinutes,
		MinimumCharge:    t.MinimumCharge,
		DailyCap:         t.DailyCap,
		RoundingStep:     t.RoundingStep,
		Active:           t.Active,
	}
}

func toSessionResponse(s *entity.ParkingSession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:             s.ID,
		WarehouseID:    s.WarehouseID,
		TicketNumber:   s.TicketNumber,
		Plate:          s.Plate,
		VehicleType:    s.VehicleType,
		TariffID:       s.TariffID,
		SubscriptionID: s.SubscriptionID,
		EntryAt:        s.EntryAt,
		ExitAt:         s.ExitAt,
		Status:         s.Status,
		Amount:         s.Amount,
		PaymentMethod:  s.PaymentMethod,
		Breakdown:      s.Breakdown,
		Spot:           s.Spot,
		KeyTag:         s.KeyTag,
		Notes:          s.Notes,
		CancelReason:   s.CancelReason,
	}
}

func toQuoteResponse(s *entity.ParkingSession, q domainparking.Quote, subscriptionID string) dto.QuoteResponse {
	out := dto.QuoteResponse{
		SessionID:       s.ID,
		Plate:           s.Plate,
		VehicleType:     s.VehicleType,
		EntryAt:         q.Entry,
		ExitAt:          q.Exit,
		DurationMinutes: q.DurationMinutes,
		BillableUnits:   q.BillableUnits,
		Unit:            string(q.Unit),
		UnitPrice:       q.UnitPrice,
		Gross:           q.Gross,
		GraceApplied:    q.GraceApplied,
		CapApplied:      q.CapApplied,
		MinimumApplied:  q.MinimumApplied,
		Covered:         q.Covered,
		CoveredMinutes:  q.CoveredMinutes,
		SubscriptionID:  subscriptionID,
		Total:           q.Total,
		Breakdown:       make([]dto.QuoteLineResponse, 0, len(q.Breakdown)),
	}
	for _, l := range q.Breakdown {
		out.Breakdown = append(out.Breakdown, dto.QuoteLineResponse{
			Label: l.Label, Minutes: l.Minutes, Units: l.Units, Amount: l.Amount, Capped: l.Capped,
		})
	}
	return out
}

func toSubscriptionResponse(s *entity.ParkingSubscription, now time.Time) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:             s.ID,
		Plate:          s.Plate,
		VehicleType:    s.VehicleType,
		HolderName:     s.HolderName,
		HolderDocument: s.HolderDocument,
		HolderPhone:    s.HolderPhone,
		PlanUnit:       s.PlanUnit,
		Periods:        s.Periods,
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		Price:          s.Price,
		Status:         s.EffectiveStatus(now),
	}
}
