package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
	"github.com/jhoicas/invorya-erp/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora en audit_logs; before/after son jsonb.
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, company_id, user_id, action, entity_type, entity_id, before, after, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	var before, after []byte
	if len(e.Before) > 0 {
		before = e.Before
	}
	if len(e.After) > 0 {
		after = e.After
	}
	_, err := r.q.Exec(ctx, query, e.ID, e.CompanyID, nullIfEmpty(e.UserID), e.Action, e.EntityType, e.EntityID,
		before, after, e.Summary, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List entradas más recientes primero, con el total que cumple el filtro.
func (r *AuditRepo) List(ctx context.Context, companyID string, af repository.AuditFilter) ([]*entity.AuditLog, int, error) {
	f := newFilter("company_id = $%d", companyID)
	if af.EntityType != "" {
		f.add("entity_type = $%d", af.EntityType)
	}
	if af.EntityID != "" {
		f.add("entity_id = $%d", af.EntityID)
	}
	if af.UserID != "" {
		f.add("user_id = $%d", af.UserID)
	}
	if af.From != nil {
		f.add("created_at >= $%d", *af.From)
	}
	if af.To != nil {
		f.add("created_at <= $%d", *af.To)
	}
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM audit_logs`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	query := `
		SELECT id, company_id, user_id, action, entity_type, entity_id, before, after, summary, created_at
		FROM audit_logs` + f.where() + ` ORDER BY created_at DESC` + f.page(af.Limit, af.Offset)
	rows, err := r.q.Query(ctx, query, f.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	list := []*entity.AuditLog{}
	for rows.Next() {
		var e entity.AuditLog
		var userID *string
		var before, after []byte
		if err := rows.Scan(&e.ID, &e.CompanyID, &userID, &e.Action, &e.EntityType, &e.EntityID,
			&before, &after, &e.Summary, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		e.UserID = deref(userID)
		e.Before, e.After = before, after
		list = append(list, &e)
	}
	return list, total, rows.Err()
}
