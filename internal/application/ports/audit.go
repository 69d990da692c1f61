package ports

import (
	"context"

	"github.com/jhoicas/invorya-erp/internal/domain/entity"
)

// AuditRecorder registra una entrada en la bitácora. No devuelve error:
// una falla de auditoría no revierte la operación del usuario.
type AuditRecorder interface {
	Record(ctx context.Context, entry *entity.AuditLog)
}
