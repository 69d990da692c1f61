package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la bitácora.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
	AuditIssue  = "issue"
	AuditCancel = "cancel"
	AuditVoid   = "void"
	AuditImport = "import"
	AuditClose  = "close"
)

// AuditLog entrada de auditoría sobre una entidad.
type AuditLog struct {
	ID         string
	CompanyID  string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Before     json.RawMessage
	After      json.RawMessage
	Summary    string
	CreatedAt  time.Time
}
