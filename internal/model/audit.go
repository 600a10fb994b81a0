package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// Workflow transition actions
	ActionCreateRequest = "CREATE_REQUEST"
	ActionApproveStep   = "APPROVE_STEP"
	ActionRejectRequest = "REJECT_REQUEST"
	ActionMarkDebt      = "MARK_DEBT"
	ActionSetExtend     = "SET_EXTEND"
	ActionReassignStep  = "REASSIGN_STEP"

	// Lock lifecycle actions
	ActionStaleLockRecovered = "STALE_LOCK_RECOVERED"

	// Reminder actions
	ActionReminderSent     = "REMINDER_SENT"
	ActionEscalationRaised = "ESCALATION_RAISED"

	// Catalog actions
	ActionRenameEntity = "RENAME_ENTITY"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated sweep
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
