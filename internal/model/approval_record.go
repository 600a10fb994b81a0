package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalRecord decision enum constants
const (
	RecordApproved   = "APPROVED"
	RecordRejected   = "REJECTED"
	RecordDebtMarked = "DEBT_MARKED"
	RecordExtended   = "EXTENDED"
)

// ApprovalRecord is one immutable row per decision taken on a request.
// Created only by the workflow service inside a successful transition;
// never updated or deleted afterwards.
type ApprovalRecord struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID uuid.UUID    `gorm:"type:uuid;not null;index" json:"request_id"`
	Request   *DebtRequest `gorm:"foreignKey:RequestID" json:"-"`

	ApproverID   uuid.UUID `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver     *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	ApprovalType string    `gorm:"type:varchar(20);not null" json:"approval_type"` // cashier, operator, supervisor, leader

	Status        string           `gorm:"type:varchar(20);not null" json:"status"` // APPROVED, REJECTED, DEBT_MARKED, EXTENDED
	Note          string           `gorm:"type:text" json:"note"`
	EvidenceFiles string           `gorm:"type:jsonb" json:"evidence_files"` // JSON array of file references
	DebtAmount    *decimal.Decimal `gorm:"type:numeric(18,4)" json:"debt_amount"`
	ExtendUntil   *time.Time       `json:"extend_until,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
