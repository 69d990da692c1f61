package parking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invorya-erp/internal/application/audit"
	"github.com/jhoicas/invorya-erp/internal/application/dto"
	"github.com/jhoicas/invorya-erp/internal/application/ports"
	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	domainparking "github.com/jhoicas/invorya-erp/internal/domain/parking"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
	"github.com/jhoicas/invorya-erp/pkg/dian"
)

const ticketLockTTL = 10 * time.Second

// SessionUseCase entradas, liquidación y salidas de vehículos.
type SessionUseCase struct {
	txRunner      TxRunner
	sessionRepo   repository.ParkingSessionRepository
	tariffRepo    repository.ParkingTariffRepository
	subRepo       repository.ParkingSubscriptionRepository
	warehouseRepo repository.WarehouseRepository
	companyRepo   repository.CompanyRepository
	locker        ports.Locker
	tickets       TicketGenerator
	audit         ports.AuditRecorder
	now           func() time.Time
}

func NewSessionUseCase(
	txRunner TxRunner,
	sessionRepo repository.ParkingSessionRepository,
	tariffRepo repository.ParkingTariffRepository,
	subRepo repository.ParkingSubscriptionRepository,
	warehouseRepo repository.WarehouseRepository,
	companyRepo repository.CompanyRepository,
	locker ports.Locker,
	tickets TicketGenerator,
	auditRec ports.AuditRecorder,
) *SessionUseCase {
	return &SessionUseCase{
		txRunner:      txRunner,
		sessionRepo:   sessionRepo,
		tariffRepo:    tariffRepo,
		subRepo:       subRepo,
		warehouseRepo: warehouseRepo,
		companyRepo:   companyRepo,
		locker:        locker,
		tickets:       tickets,
		audit:         auditRec,
		now:           time.Now,
	}
}

// RegisterEntry abre la sesión de una placa y le asigna el siguiente tiquete.
func (uc *SessionUseCase) RegisterEntry(ctx context.Context, companyID, userID string, in dto.RegisterEntryRequest) (*dto.SessionResponse, error) {
	plate := domainparking.NormalizePlate(in.Plate)
	if len(plate) < 3 {
		return nil, fmt.Errorf("%w: placa %q", domain.ErrInvalidInput, in.Plate)
	}
	if !entity.ValidVehicleTypes[in.VehicleType] {
		return nil, fmt.Errorf("%w: tipo de vehículo %q", domain.ErrInvalidInput, in.VehicleType)
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, fmt.Errorf("%w: sede %s", domain.ErrNotFound, in.WarehouseID)
	}
	now := uc.now()
	entryAt := now
	if in.EntryAt != nil {
		if in.EntryAt.After(now) {
			return nil, fmt.Errorf("%w: la entrada no puede ser futura", domain.ErrInvalidInput)
		}
		entryAt = *in.EntryAt
	}

	if uc.locker != nil {
		lock, err := uc.locker.Obtain(ctx, "parking:ticket:"+companyID, ticketLockTTL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release(context.Background()) }()
	}

	var session *entity.ParkingSession
	err = uc.txRunner.RunParking(ctx, func(r Repos) error {
		active, err := r.Sessions.GetActiveByPlate(ctx, companyID, plate)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("%w: %s (tiquete %s)", domain.ErrActiveSession, plate, active.TicketNumber)
		}
		tariff, err := r.Tariffs.GetActive(ctx, companyID, in.VehicleType)
		if err != nil {
			return err
		}
		if tariff == nil {
			return fmt.Errorf("%w: %s", domain.ErrTariffNotFound, in.VehicleType)
		}
		if wh.Capacity > 0 {
			n, err := r.Sessions.CountActive(ctx, companyID, wh.ID)
			if err != nil {
				return err
			}
			if n >= wh.Capacity {
				return fmt.Errorf("%w: la sede %s no tiene cupos (%d)", domain.ErrConflict, wh.Name, wh.Capacity)
			}
		}
		ticket, err := r.Sessions.NextTicket(ctx, companyID)
		if err != nil {
			return err
		}
		session = &entity.ParkingSession{
			ID:           uuid.New().String(),
			CompanyID:    companyID,
			WarehouseID:  wh.ID,
			TicketNumber: fmt.Sprintf("%06d", ticket),
			Plate:        plate,
			VehicleType:  in.VehicleType,
			TariffID:     tariff.ID,
			EntryAt:      entryAt,
			Status:       entity.SessionStatusActive,
			Spot:         strings.TrimSpace(in.Spot),
			KeyTag:       strings.TrimSpace(in.KeyTag),
			Notes:        strings.TrimSpace(in.Notes),
			EntryBy:      userID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		sub, err := r.Subscriptions.FindCovering(ctx, companyID, plate, entryAt)
		if err != nil {
			return err
		}
		if sub != nil {
			session.SubscriptionID = sub.ID
		}
		return r.Sessions.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	resp := toSessionResponse(session)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCreate, "parking_session", session.ID,
		fmt.Sprintf("entrada %s tiquete %s", session.Plate, session.TicketNumber), nil, resp))
	return &resp, nil
}

// QuoteExit liquida la sesión a la hora at sin modificarla. at nil = ahora.
func (uc *SessionUseCase) QuoteExit(ctx context.Context, companyID, sessionID string, at *time.Time) (*dto.QuoteResponse, error) {
	s, err := uc.owned(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != entity.SessionStatusActive {
		return nil, fmt.Errorf("%w: tiquete %s", domain.ErrSessionClosed, s.TicketNumber)
	}
	exit, err := exitTime(at, uc.now())
	if err != nil {
		return nil, err
	}
	q, subID, err := quoteFor(ctx, uc.tariffRepo, uc.subRepo, s, exit)
	if err != nil {
		return nil, err
	}
	resp := toQuoteResponse(s, q, subID)
	return &resp, nil
}

// CloseSession liquida y cierra la sesión bloqueando su fila.
func (uc *SessionUseCase) CloseSession(ctx context.Context, companyID, userID, sessionID string, in dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if !dian.ValidPaymentMethodCodes[in.PaymentMethod] {
		return nil, fmt.Errorf("%w: medio de pago %q", domain.ErrInvalidInput, in.PaymentMethod)
	}
	now := uc.now()
	exit, err := exitTime(in.ExitAt, now)
	if err != nil {
		return nil, err
	}
	var s *entity.ParkingSession
	err = uc.txRunner.RunParking(ctx, func(r Repos) error {
		var err error
		s, err = lockSession(ctx, r.Sessions, companyID, sessionID)
		if err != nil {
			return err
		}
		q, subID, err := quoteFor(ctx, r.Tariffs, r.Subscriptions, s, exit)
		if err != nil {
			return err
		}
		breakdown, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("serializar liquidación: %w", err)
		}
		s.ExitAt = &exit
		s.Amount = q.Total
		s.Breakdown = breakdown
		s.PaymentMethod = in.PaymentMethod
		if subID != "" {
			s.SubscriptionID = subID
		}
		s.Status = entity.SessionStatusClosed
		s.ExitBy = userID
		s.UpdatedAt = now
		return r.Sessions.Update(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(s)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditClose, "parking_session", s.ID,
		fmt.Sprintf("salida %s tiquete %s por %s", s.Plate, s.TicketNumber, s.Amount.StringFixed(0)), nil, resp))
	return &resp, nil
}

// CancelSession anula una sesión activa sin cobro (entrada registrada por error).
func (uc *SessionUseCase) CancelSession(ctx context.Context, companyID, userID, sessionID string, in dto.CancelSessionRequest) (*dto.SessionResponse, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: motivo requerido", domain.ErrInvalidInput)
	}
	now := uc.now()
	var s *entity.ParkingSession
	err := uc.txRunner.RunParking(ctx, func(r Repos) error {
		var err error
		s, err = lockSession(ctx, r.Sessions, companyID, sessionID)
		if err != nil {
			return err
		}
		s.Status = entity.SessionStatusCancelled
		s.CancelReason = reason
		s.ExitAt = &now
		s.ExitBy = userID
		s.UpdatedAt = now
		return r.Sessions.Update(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(s)
	uc.audit.Record(ctx, audit.Entry(companyID, userID, entity.AuditCancel, "parking_session", s.ID,
		fmt.Sprintf("anulación tiquete %s: %s", s.TicketNumber, reason), nil, resp))
	return &resp, nil
}

// GetSession sesión de la empresa.
func (uc *SessionUseCase) GetSession(ctx context.Context, companyID, id string) (*dto.SessionResponse, error) {
	s, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(s)
	return &resp, nil
}

// ListSessions sesiones filtradas por estado, placa, sede y fecha de entrada.
func (uc *SessionUseCase) ListSessions(ctx context.Context, companyID string, in dto.SessionFilterRequest) (*dto.SessionListResponse, error) {
	f := repository.SessionFilter{
		Status:      in.Status,
		Plate:       domainparking.NormalizePlate(in.Plate),
		WarehouseID: in.WarehouseID,
		From:        in.From,
		To:          in.To,
		Limit:       dto.NormalizeLimit(in.Limit),
		Offset:      max(in.Offset, 0),
	}
	list, total, err := uc.sessionRepo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := &dto.SessionListResponse{
		Items: make([]dto.SessionResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, s := range list {
		out.Items = append(out.Items, toSessionResponse(s))
	}
	return out, nil
}

// TicketPDF tiquete de la sesión. Una sesión activa lleva la liquidación provisional a la fecha.
func (uc *SessionUseCase) TicketPDF(ctx context.Context, companyID, id string) ([]byte, string, error) {
	s, err := uc.owned(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", err
	}
	if company == nil {
		return nil, "", fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	var quote *domainparking.Quote
	switch s.Status {
	case entity.SessionStatusActive:
		q, _, err := quoteFor(ctx, uc.tariffRepo, uc.subRepo, s, uc.now())
		if err != nil {
			return nil, "", err
		}
		quote = &q
	case entity.SessionStatusClosed:
		if len(s.Breakdown) > 0 {
			var q domainparking.Quote
			if err := json.Unmarshal(s.Breakdown, &q); err != nil {
				return nil, "", fmt.Errorf("leer liquidación: %w", err)
			}
			quote = &q
		}
	}
	data, err := uc.tickets.GenerateTicket(ctx, company, s, quote)
	if err != nil {
		return nil, "", fmt.Errorf("tiquete: %w", err)
	}
	return data, fmt.Sprintf("tiquete_%s.pdf", s.TicketNumber), nil
}

func (uc *SessionUseCase) owned(ctx context.Context, companyID, id string) (*entity.ParkingSession, error) {
	s, err := uc.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ownedSession(s, companyID, id)
}

// lockSession bloquea la sesión y exige que siga activa.
func lockSession(ctx context.Context, repo repository.ParkingSessionRepository, companyID, id string) (*entity.ParkingSession, error) {
	s, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if s, err = ownedSession(s, companyID, id); err != nil {
		return nil, err
	}
	if s.Status != entity.SessionStatusActive {
		return nil, fmt.Errorf("%w: tiquete %s está %s", domain.ErrSessionClosed, s.TicketNumber, s.Status)
	}
	return s, nil
}

func ownedSession(s *entity.ParkingSession, companyID, id string) (*entity.ParkingSession, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: sesión %s", domain.ErrNotFound, id)
	}
	if s.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return s, nil
}

// exitTime hora de salida pedida o ahora; no se aceptan salidas futuras.
func exitTime(at *time.Time, now time.Time) (time.Time, error) {
	if at == nil {
		return now, nil
	}
	if at.After(now) {
		return time.Time{}, fmt.Errorf("%w: la salida no puede ser futura", domain.ErrInvalidInput)
	}
	return *at, nil
}

// quoteFor liquida con la tarifa vigente a la entrada. Los tramos de la estadía cubiertos por
// abonos activos no se cobran.
func quoteFor(ctx context.Context, tariffs repository.ParkingTariffRepository, subs repository.ParkingSubscriptionRepository, s *entity.ParkingSession, exit time.Time) (domainparking.Quote, string, error) {
	pt, err := tariffs.GetByID(ctx, s.TariffID)
	if err != nil {
		return domainparking.Quote{}, "", err
	}
	if pt == nil {
		return domainparking.Quote{}, "", fmt.Errorf("%w: %s", domain.ErrTariffNotFound, s.VehicleType)
	}
	t, err := tariffOf(pt)
	if err != nil {
		return domainparking.Quote{}, "", tariffError(err)
	}
	if exit.Before(s.EntryAt) {
		return domainparking.Quote{}, "", tariffError(domainparking.ErrInvalidInterval)
	}
	list, err := subs.FindOverlapping(ctx, s.CompanyID, s.Plate, s.EntryAt, exit)
	if err != nil {
		return domainparking.Quote{}, "", err
	}
	covered := make([]domainparking.Interval, 0, len(list))
	for _, sub := range list {
		covered = append(covered, domainparking.Interval{Start: sub.StartDate, End: sub.EndDate})
	}
	q, err := domainparking.CalculateUncovered(t, s.EntryAt, exit, covered)
	if err != nil {
		return domainparking.Quote{}, "", tariffError(err)
	}
	if q.CoveredMinutes == 0 && !q.Covered {
		return q, "", nil
	}
	return q, list[len(list)-1].ID, nil
}
