package model

import (
	"time"

	"github.com/google/uuid"
)

// Reminder drives the nudge/escalation clock for one request. Created
// alongside the request and deleted when the request goes terminal.
// Invariant: ReminderCount never exceeds MaxReminders; once they are equal
// the sweeper emits one escalation instead of further reminders.
type Reminder struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"request_id"`
	Request   *DebtRequest `gorm:"foreignKey:RequestID" json:"-"`

	ReminderCount  int        `gorm:"not null;default:0" json:"reminder_count"`
	MaxReminders   int        `gorm:"not null" json:"max_reminders"`
	LastReminderAt *time.Time `json:"last_reminder_at"`
	NextReminderAt time.Time  `gorm:"not null;index" json:"next_reminder_at"`
	Escalated      bool       `gorm:"not null;default:false" json:"escalated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exhausted reports whether the reminder budget is used up.
func (r *Reminder) Exhausted() bool {
	return r.ReminderCount >= r.MaxReminders
}
