package memstore

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

type AuditRepo struct{ s *Store }

var _ repository.AuditRepository = (*AuditRepo)(nil)

func (s *Store) Audit() *AuditRepo { return &AuditRepo{s} }

func (r *AuditRepo) Create(_ context.Context, e *entity.AuditLog) error {
	defer r.s.lock()()
	r.s.st.audit = append(r.s.st.audit, *e)
	return nil
}

func (r *AuditRepo) List(_ context.Context, companyID string, f repository.AuditFilter) ([]*entity.AuditLog, int, error) {
	defer r.s.lock()()
	var out []*entity.AuditLog
	for _, e := range r.s.st.audit {
		if e.CompanyID != companyID || (f.EntityType != "" && e.EntityType != f.EntityType) ||
			(f.EntityID != "" && e.EntityID != f.EntityID) || (f.UserID != "" && e.UserID != f.UserID) {
			continue
		}
		if (f.From != nil && e.CreatedAt.Before(*f.From)) || (f.To != nil && e.CreatedAt.After(*f.To)) {
			continue
		}
		out = append(out, ptr(e))
	}
	sortByTime(out, func(e *entity.AuditLog) time.Time { return e.CreatedAt }, true)
	return page(out, f.Limit, f.Offset), len(out), nil
}
