package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Log entry types. Every persisted entry carries exactly one of these.
const (
	LogTypeError   = "error"
	LogTypeSuccess = "success"
	LogTypeInfo    = "info"
)

// LogEntry is one immutable audit/diagnostic record. Entries are created
// only through the logging facade and never updated afterwards.
type LogEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type       string         `gorm:"size:20;not null;index" json:"type"`
	Action     string         `gorm:"size:100;not null;index" json:"action"` // book_created, contact_form_processed, etc.
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	Context    datatypes.JSON `gorm:"type:jsonb" json:"context,omitempty"`
	ActorID    string         `gorm:"size:100" json:"actor_id,omitempty"`
	ActorEmail string         `gorm:"size:255;index" json:"actor_email,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func ValidLogType(t string) bool {
	return t == LogTypeError || t == LogTypeSuccess || t == LogTypeInfo
}
