package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an append-only audit trail entry. Rows are never updated.
type ActivityLog struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Action      string          `db:"action" json:"action"`
	EntityType  string          `db:"entity_type" json:"entity_type"`
	EntityID    uuid.UUID       `db:"entity_id" json:"entity_id"`
	Description string          `db:"description" json:"description,omitempty"`
	Changes     json.RawMessage `db:"changes" json:"changes,omitempty"`
	IPAddress   string          `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent   string          `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type ActivityFilters struct {
	UserID     uuid.UUID
	Action     string
	EntityType string
	DateFrom   time.Time
	DateTo     time.Time
	Pagination
}
