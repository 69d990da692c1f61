package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain"
	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var (
	_ repository.ParkingTariffRepository       = (*ParkingTariffRepo)(nil)
	_ repository.ParkingSessionRepository      = (*ParkingSessionRepo)(nil)
	_ repository.ParkingSubscriptionRepository = (*ParkingSubscriptionRepo)(nil)
)

// ── tarifas ──────────────────────────────────────────────────────────────────

// ParkingTariffRepo tarifas versionadas: una sola activa por empresa y tipo de vehículo.
type ParkingTariffRepo struct {
	q Querier
}

func NewParkingTariffRepository(q Querier) *ParkingTariffRepo {
	return &ParkingTariffRepo{q: q}
}

const tariffColumns = `id, company_id, vehicle_type, name, unit, unit_price, grace_minutes, tolerance_minutes,
	minimum_charge, daily_cap, rounding_step, active, created_at, updated_at`

func scanTariff(row scanner) (*entity.ParkingTariff, error) {
	var t entity.ParkingTariff
	err := row.Scan(&t.ID, &t.CompanyID, &t.VehicleType, &t.Name, &t.Unit, &t.UnitPrice, &t.GraceMinutes,
		&t.ToleranceMinutes, &t.MinimumCharge, &t.DailyCap, &t.RoundingStep, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert guarda la tarifa; si queda activa, desactiva las demás del mismo tipo en la misma sentencia.
// La restricción de exclusión es diferida, así que el cambio de versión es atómico.
func (r *ParkingTariffRepo) Upsert(ctx context.Context, t *entity.ParkingTariff) error {
	query := `
		WITH retired AS (
			UPDATE parking_tariffs SET active = false, updated_at = $14
			WHERE $12 AND company_id = $2 AND vehicle_type = $3 AND active AND id <> $1
		)
		INSERT INTO parking_tariffs (` + tariffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name              = EXCLUDED.name,
			unit              = EXCLUDED.unit,
			unit_price        = EXCLUDED.unit_price,
			grace_minutes     = EXCLUDED.grace_minutes,
			tolerance_minutes = EXCLUDED.tolerance_minutes,
			minimum_charge    = EXCLUDED.minimum_charge,
			daily_cap         = EXCLUDED.daily_cap,
			rounding_step     = EXCLUDED.rounding_step,
			active            = EXCLUDED.active,
			updated_at        = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.CompanyID, t.VehicleType, t.Name, t.Unit, t.UnitPrice, t.GraceMinutes, t.ToleranceMinutes,
		t.MinimumCharge, t.DailyCap, t.RoundingStep, t.Active, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert parking tariff: %w", err)
	}
	return nil
}

func (r *ParkingTariffRepo) get(ctx context.Context, where string, args ...any) (*entity.ParkingTariff, error) {
	t, err := scanTariff(r.q.QueryRow(ctx, `SELECT `+tariffColumns+` FROM parking_tariffs WHERE `+where, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parking tariff: %w", err)
	}
	return t, nil
}

func (r *ParkingTariffRepo) GetByID(ctx context.Context, id string) (*entity.ParkingTariff, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *ParkingTariffRepo) GetActive(ctx context.Context, companyID, vehicleType string) (*entity.ParkingTariff, error) {
	return r.get(ctx, `company_id = $1 AND vehicle_type = $2 AND active`, companyID, vehicleType)
}

// ListByCompany activas primero, luego las versiones anteriores.
func (r *ParkingTariffRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.ParkingTariff, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+tariffColumns+` FROM parking_tariffs
		WHERE company_id = $1 ORDER BY vehicle_type, active DESC, created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list parking tariffs: %w", err)
	}
	defer rows.Close()
	list := []*entity.ParkingTariff{}
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parking tariff: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ── sesiones ─────────────────────────────────────────────────────────────────

// ParkingSessionRepo sesiones de parqueo. Una sola activa por placa (índice parcial).
type ParkingSessionRepo struct {
	q Querier
}

func NewParkingSessionRepository(q Querier) *ParkingSessionRepo {
	return &ParkingSessionRepo{q: q}
}

const sessionColumns = `id, company_id, warehouse_id, ticket_number, plate, vehicle_type, tariff_id, subscription_id,
	entry_at, exit_at, status, amount, payment_method, breakdown, spot, key_tag, notes, cancel_reason,
	entry_by, exit_by, created_at, updated_at`

func scanSession(row scanner) (*entity.ParkingSession, error) {
	var s entity.ParkingSession
	var subscriptionID, entryBy, exitBy *string
	var breakdown []byte
	err := row.Scan(&s.ID, &s.CompanyID, &s.WarehouseID, &s.TicketNumber, &s.Plate, &s.VehicleType, &s.TariffID,
		&subscriptionID, &s.EntryAt, &s.ExitAt, &s.Status, &s.Amount, &s.PaymentMethod, &breakdown, &s.Spot,
		&s.KeyTag, &s.Notes, &s.CancelReason, &entryBy, &exitBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.SubscriptionID = deref(subscriptionID)
	s.EntryBy = deref(entryBy)
	s.ExitBy = deref(exitBy)
	s.Breakdown = breakdown
	return &s, nil
}

func breakdownOrNil(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (r *ParkingSessionRepo) Create(ctx context.Context, s *entity.ParkingSession) error {
	query := `
		INSERT INTO parking_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.WarehouseID, s.TicketNumber, s.Plate, s.VehicleType, s.TariffID,
		nullIfEmpty(s.SubscriptionID), s.EntryAt, s.ExitAt, s.Status, s.Amount, s.PaymentMethod,
		breakdownOrNil(s.Breakdown), s.Spot, s.KeyTag, s.Notes, s.CancelReason,
		nullIfEmpty(s.EntryBy), nullIfEmpty(s.ExitBy), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrActiveSession, s.Plate)
		}
		return fmt.Errorf("insert parking session: %w", err)
	}
	return nil
}

func (r *ParkingSessionRepo) get(ctx context.Context, query string, args ...any) (*entity.ParkingSession, error) {
	s, err := scanSession(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parking session: %w", err)
	}
	return s, nil
}

func (r *ParkingSessionRepo) GetByID(ctx context.Context, id string) (*entity.ParkingSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM parking_sessions WHERE id = $1`, id)
}

// GetForUpdate bloquea la sesión mientras se liquida la salida.
func (r *ParkingSessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.ParkingSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM parking_sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *ParkingSessionRepo) GetActiveByPlate(ctx context.Context, companyID, plate string) (*entity.ParkingSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM parking_sessions WHERE company_id = $1 AND plate = $2 AND status = $3`,
		companyID, plate, entity.SessionStatusActive)
}

func (r *ParkingSessionRepo) Update(ctx context.Context, s *entity.ParkingSession) error {
	query := `
		UPDATE parking_sessions SET
			subscription_id = $2, exit_at = $3, status = $4, amount = $5, payment_method = $6, breakdown = $7,
			spot = $8, key_tag = $9, notes = $10, cancel_reason = $11, exit_by = $12, updated_at = $13
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, s.ID, nullIfEmpty(s.SubscriptionID), s.ExitAt, s.Status, s.Amount, s.PaymentMethod,
		breakdownOrNil(s.Breakdown), s.Spot, s.KeyTag, s.Notes, s.CancelReason, nullIfEmpty(s.ExitBy), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update parking session: %w", err)
	}
	return nil
}

// List sesiones por fecha de entrada, más recientes primero.
func (r *ParkingSessionRepo) List(ctx context.Context, companyID string, sf repository.SessionFilter) ([]*entity.ParkingSession, int, error) {
	f := newFilter("company_id = $%d", companyID)
	if sf.Status != "" {
		f.add("status = $%d", sf.Status)
	}
	if sf.Plate != "" {
		f.add("plate = $%d", sf.Plate)
	}
	if sf.WarehouseID != "" {
		f.add("warehouse_id = $%d", sf.WarehouseID)
	}
	if sf.From != nil {
		f.add("entry_at >= $%d", *sf.From)
	}
	if sf.To != nil {
		f.add("entry_at <= $%d", *sf.To)
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM parking_sessions`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count parking sessions: %w", err)
	}
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions` + f.where() + ` ORDER BY entry_at DESC` + f.page(sf.Limit, sf.Offset)
	rows, err := r.q.Query(ctx, query, f.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list parking sessions: %w", err)
	}
	defer rows.Close()
	list := []*entity.ParkingSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan parking session: %w", err)
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

func (r *ParkingSessionRepo) CountActive(ctx context.Context, companyID, warehouseID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM parking_sessions
		WHERE company_id = $1 AND status = $2 AND ($3 = '' OR warehouse_id::text = $3)`,
		companyID, entity.SessionStatusActive, warehouseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}

// NextTicket consecutivo por empresa; el contador se crea con el primer tiquete.
func (r *ParkingSessionRepo) NextTicket(ctx context.Context, companyID string) (int64, error) {
	const q = `
		INSERT INTO parking_ticket_counters (company_id, last_number) VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_number = parking_ticket_counters.last_number + 1
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(ctx, q, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("next ticket: %w", err)
	}
	return n, nil
}

// ── abonados ─────────────────────────────────────────────────────────────────

// ParkingSubscriptionRepo abonados por placa.
type ParkingSubscriptionRepo struct {
	q Querier
}

func NewParkingSubscriptionRepository(q Querier) *ParkingSubscriptionRepo {
	return &ParkingSubscriptionRepo{q: q}
}

const subscriptionColumns = `id, company_id, plate, vehicle_type, holder_name, holder_document, holder_phone,
	plan_unit, periods, start_date, end_date, price, status, created_by, created_at, updated_at`

func scanSubscription(row scanner) (*entity.ParkingSubscription, error) {
	var s entity.ParkingSubscription
	var createdBy *string
	err := row.Scan(&s.ID, &s.CompanyID, &s.Plate, &s.VehicleType, &s.HolderName, &s.HolderDocument, &s.HolderPhone,
		&s.PlanUnit, &s.Periods, &s.StartDate, &s.EndDate, &s.Price, &s.Status, &createdBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.CreatedBy = deref(createdBy)
	return &s, nil
}

func (r *ParkingSubscriptionRepo) Create(ctx context.Context, s *entity.ParkingSubscription) error {
	query := `
		INSERT INTO parking_subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query, s.ID, s.CompanyID, s.Plate, s.VehicleType, s.HolderName, s.HolderDocument,
		s.HolderPhone, s.PlanUnit, s.Periods, s.StartDate, s.EndDate, s.Price, s.Status, nullIfEmpty(s.CreatedBy),
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert parking subscription: %w", err)
	}
	return nil
}

func (r *ParkingSubscriptionRepo) get(ctx context.Context, query string, args ...any) (*entity.ParkingSubscription, error) {
	s, err := scanSubscription(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parking subscription: %w", err)
	}
	return s, nil
}

func (r *ParkingSubscriptionRepo) GetByID(ctx context.Context, id string) (*entity.ParkingSubscription, error) {
	return r.get(ctx, `SELECT `+subscriptionColumns+` FROM parking_subscriptions WHERE id = $1`, id)
}

func (r *ParkingSubscriptionRepo) Update(ctx context.Context, s *entity.ParkingSubscription) error {
	query := `
		UPDATE parking_subscriptions SET
			holder_name = $2, holder_document = $3, holder_phone = $4, periods = $5,
			start_date = $6, end_date = $7, price = $8, status = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, s.ID, s.HolderName, s.HolderDocument, s.HolderPhone, s.Periods,
		s.StartDate, s.EndDate, s.Price, s.Status, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update parking subscription: %w", err)
	}
	return nil
}

// FindCovering abono activo con start_date <= at < end_date; el de mayor vigencia si hay varios.
func (r *ParkingSubscriptionRepo) FindCovering(ctx context.Context, companyID, plate string, at time.Time) (*entity.ParkingSubscription, error) {
	return r.get(ctx, `
		SELECT `+subscriptionColumns+` FROM parking_subscriptions
		WHERE company_id = $1 AND plate = $2 AND status = $3 AND start_date <= $4 AND end_date > $4
		ORDER BY end_date DESC LIMIT 1`,
		companyID, plate, entity.SubscriptionStatusActive, at)
}

func (r *ParkingSubscriptionRepo) FindOverlapping(ctx context.Context, companyID, plate string, from, to time.Time) ([]*entity.ParkingSubscription, error) {
	return r.list(ctx, `
		SELECT `+subscriptionColumns+` FROM parking_subscriptions
		WHERE company_id = $1 AND plate = $2 AND status = $3 AND start_date < $5 AND end_date > $4
		ORDER BY start_date`,
		companyID, plate, entity.SubscriptionStatusActive, from, to)
}

func (r *ParkingSubscriptionRepo) ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.ParkingSubscription, error) {
	f := newFilter("company_id = $%d", companyID)
	if status != "" {
		f.add("status = $%d", status)
	}
	query := `SELECT ` + subscriptionColumns + ` FROM parking_subscriptions` + f.where() + ` ORDER BY end_date, plate` + f.page(limit, offset)
	return r.list(ctx, query, f.args...)
}

func (r *ParkingSubscriptionRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ParkingSubscription, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parking subscriptions: %w", err)
	}
	defer rows.Close()
	list := []*entity.ParkingSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parking subscription: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
