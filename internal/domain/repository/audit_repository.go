package repository

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// AuditFilter filtros de la bitácora.
type AuditFilter struct {
	EntityType string
	EntityID   string
	UserID     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AuditRepository bitácora de cambios (solo inserción y lectura).
type AuditRepository interface {
	Create(ctx context.Context, e *entity.AuditLog) error
	List(ctx context.Context, companyID string, f AuditFilter) ([]*entity.AuditLog, int, error)
}
