package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

type TariffRepo struct{ s *Store }

var _ repository.ParkingTariffRepository = (*TariffRepo)(nil)

func (s *Store) Tariffs() *TariffRepo { return &TariffRepo{s} }

// Upsert desactiva la tarifa anterior del mismo tipo de vehículo si la nueva está activa.
func (r *TariffRepo) Upsert(_ context.Context, t *entity.ParkingTariff) error {
	defer r.s.lock()()
	if t.Active {
		for id, x := range r.s.st.tariffs {
			if id != t.ID && x.CompanyID == t.CompanyID && x.VehicleType == t.VehicleType && x.Active {
				x.Active = false
				r.s.st.tariffs[id] = x
			}
		}
	}
	r.s.st.tariffs[t.ID] = *t
	return nil
}

func (r *TariffRepo) GetByID(_ context.Context, id string) (*entity.ParkingTariff, error) {
	defer r.s.lock()()
	if t, ok := r.s.st.tariffs[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *TariffRepo) GetActive(_ context.Context, companyID, vehicleType string) (*entity.ParkingTariff, error) {
	defer r.s.lock()()
	for _, t := range r.s.st.tariffs {
		if t.CompanyID == companyID && t.VehicleType == vehicleType && t.Active {
			return ptr(t), nil
		}
	}
	return nil, nil
}

func (r *TariffRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.ParkingTariff, error) {
	defer r.s.lock()()
	var out []*entity.ParkingTariff
	for _, t := range r.s.st.tariffs {
		if t.CompanyID == companyID {
			out = append(out, ptr(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleType < out[j].VehicleType })
	return out, nil
}

type SessionRepo struct{ s *Store }

var _ repository.ParkingSessionRepository = (*SessionRepo)(nil)

func (s *Store) Sessions() *SessionRepo { return &SessionRepo{s} }

func (r *SessionRepo) Create(_ context.Context, ps *entity.ParkingSession) error {
	defer r.s.lock()()
	r.s.st.sessions[ps.ID] = *ps
	return nil
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*entity.ParkingSession, error) {
	defer r.s.lock()()
	if ps, ok := r.s.st.sessions[id]; ok {
		return &ps, nil
	}
	return nil, nil
}

func (r *SessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.ParkingSession, error) {
	return r.GetByID(ctx, id)
}

func (r *SessionRepo) GetActiveByPlate(_ context.Context, companyID, plate string) (*entity.ParkingSession, error) {
	defer r.s.lock()()
	for _, ps := range r.s.st.sessions {
		if ps.CompanyID == companyID && ps.Plate == plate && ps.Status == entity.SessionStatusActive {
			return ptr(ps), nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) Update(_ context.Context, ps *entity.ParkingSession) error {
	defer r.s.lock()()
	r.s.st.sessions[ps.ID] = *ps
	return nil
}

func (r *SessionRepo) List(_ context.Context, companyID string, f repository.SessionFilter) ([]*entity.ParkingSession, int, error) {
	defer r.s.lock()()
	var out []*entity.ParkingSession
	for _, ps := range r.s.st.sessions {
		if ps.CompanyID != companyID || (f.Status != "" && ps.Status != f.Status) ||
			(f.Plate != "" && ps.Plate != f.Plate) || (f.WarehouseID != "" && ps.WarehouseID != f.WarehouseID) {
			continue
		}
		if (f.From != nil && ps.EntryAt.Before(*f.From)) || (f.To != nil && ps.EntryAt.After(*f.To)) {
			continue
		}
		out = append(out, ptr(ps))
	}
	sortByTime(out, func(ps *entity.ParkingSession) time.Time { return ps.EntryAt }, false)
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *SessionRepo) CountActive(_ context.Context, companyID, warehouseID string) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, ps := range r.s.st.sessions {
		if ps.CompanyID == companyID && ps.Status == entity.SessionStatusActive && (warehouseID == "" || ps.WarehouseID == warehouseID) {
			n++
		}
	}
	return n, nil
}

func (r *SessionRepo) NextTicket(_ context.Context, companyID string) (int64, error) {
	defer r.s.lock()()
	r.s.st.tickets[companyID]++
	return r.s.st.tickets[companyID], nil
}

type SubscriptionRepo struct{ s *Store }

var _ repository.ParkingSubscriptionRepository = (*SubscriptionRepo)(nil)

func (s *Store) Subscriptions() *SubscriptionRepo { return &SubscriptionRepo{s} }

func (r *SubscriptionRepo) Create(_ context.Context, sub *entity.ParkingSubscription) error {
	defer r.s.lock()()
	r.s.st.subscriptions[sub.ID] = *sub
	return nil
}

func (r *SubscriptionRepo) GetByID(_ context.Context, id string) (*entity.ParkingSubscription, error) {
	defer r.s.lock()()
	if sub, ok := r.s.st.subscriptions[id]; ok {
		return &sub, nil
	}
	return nil, nil
}

func (r *SubscriptionRepo) Update(_ context.Context, sub *entity.ParkingSubscription) error {
	defer r.s.lock()()
	r.s.st.subscriptions[sub.ID] = *sub
	return nil
}

func (r *SubscriptionRepo) FindCovering(_ context.Context, companyID, plate string, at time.Time) (*entity.ParkingSubscription, error) {
	defer r.s.lock()()
	for _, sub := range r.s.st.subscriptions {
		if sub.CompanyID == companyID && sub.Plate == plate && sub.CoversAt(at) {
			return ptr(sub), nil
		}
	}
	return nil, nil
}

func (r *SubscriptionRepo) FindOverlapping(_ context.Context, companyID, plate string, from, to time.Time) ([]*entity.ParkingSubscription, error) {
	defer r.s.lock()()
	var out []*entity.ParkingSubscription
	for _, sub := range r.s.st.subscriptions {
		if sub.CompanyID == companyID && sub.Plate == plate && sub.Status == entity.SubscriptionStatusActive &&
			sub.StartDate.Before(to) && sub.EndDate.After(from) {
			out = append(out, ptr(sub))
		}
	}
	sortByTime(out, func(s *entity.ParkingSubscription) time.Time { return s.StartDate }, false)
	return out, nil
}

func (r *SubscriptionRepo) ListByCompany(_ context.Context, companyID, status string, limit, offset int) ([]*entity.ParkingSubscription, error) {
	defer r.s.lock()()
	var out []*entity.ParkingSubscription
	for _, sub := range r.s.st.subscriptions {
		if sub.CompanyID == companyID && (status == "" || sub.Status == status) {
			out = append(out, ptr(sub))
		}
	}
	sortByTime(out, func(s *entity.ParkingSubscription) time.Time { return s.EndDate }, false)
	return page(out, limit, offset), nil
}
