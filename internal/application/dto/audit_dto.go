package dto

import (
	"encoding/json"
	"time"
)

// AuditFilterRequest query de GET /api/audit-logs.
type AuditFilterRequest struct {
	EntityType string     `query:"entity_type"`
	EntityID   string     `query:"entity_id"`
	UserID     string     `query:"user_id"`
	From       *time.Time `query:"-"`
	To         *time.Time `query:"-"`
	Limit      int        `query:"limit"`
	Offset     int        `query:"offset"`
}

// AuditLogResponse entrada de la bitácora.
type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditListResponse lista paginada de la bitácora.
type AuditListResponse struct {
	Items []AuditLogResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
