package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtRequest status enum constants
const (
	StatusDraft             = "DRAFT"
	StatusPendingCashier    = "PENDING_CASHIER"
	StatusPendingOperator   = "PENDING_OPERATOR"
	StatusPendingSupervisor = "PENDING_SUPERVISOR"
	StatusPendingLeader     = "PENDING_LEADER"
	StatusApproved          = "APPROVED"
	StatusRejected          = "REJECTED"
	StatusDebtMarked        = "DEBT_MARKED"
)

// Approver role enum constants. The set is closed and checked exhaustively.
const (
	RoleManager    = "manager"
	RoleCashier    = "cashier"
	RoleOperator   = "operator"
	RoleLeader     = "leader"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// Decision enum constants
const (
	DecisionApprove   = "approve"
	DecisionReject    = "reject"
	DecisionMarkDebt  = "mark_debt"
	DecisionSetExtend = "set_extend"
)

// DebtRequest is the unit of work of the approval chain. Status, approver and
// lock fields are mutated only by the workflow service and the lock manager;
// once terminal the row accepts no further mutation.
type DebtRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestNo string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"request_no"`

	BrandID  uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand    *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch   *Branch   `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	SVRID    uuid.UUID `gorm:"type:uuid;not null;index" json:"svr_id"`
	SVR      *SVR      `gorm:"foreignKey:SVRID" json:"svr,omitempty"`

	Amount   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"amount"`
	Currency string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Note     string          `gorm:"type:text" json:"note"`

	Status              string     `gorm:"type:varchar(25);not null;default:'DRAFT';index" json:"status"`
	RequiresSupervisor  bool       `gorm:"not null;default:false" json:"requires_supervisor"`
	CurrentApproverType string     `gorm:"type:varchar(20);index" json:"current_approver_type"`
	CurrentApproverID   *uuid.UUID `gorm:"type:uuid;index" json:"current_approver_id"`
	CurrentApprover     *User      `gorm:"foreignKey:CurrentApproverID" json:"current_approver,omitempty"`

	LockedBy *uuid.UUID `gorm:"type:uuid;index" json:"locked_by"`
	LockedAt *time.Time `json:"locked_at"`

	// Handles to messages on the chat surface so later transitions can edit
	// them in place instead of sending duplicates.
	PreviewMessageID string `gorm:"type:varchar(100)" json:"preview_message_id"`
	FinalMessageID   string `gorm:"type:varchar(100)" json:"final_message_id"`

	SubmittedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"submitted_by"`
	Submitter   *User     `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the request reached a final status.
func (r *DebtRequest) IsTerminal() bool {
	return IsTerminalStatus(r.Status)
}

// IsTerminalStatus reports whether the given status is final.
func IsTerminalStatus(status string) bool {
	return status == StatusApproved || status == StatusRejected || status == StatusDebtMarked
}

// PendingStatusForRole maps an approver role to the status in which that role
// must act.
func PendingStatusForRole(role string) (string, bool) {
	switch role {
	case RoleCashier:
		return StatusPendingCashier, true
	case RoleOperator:
		return StatusPendingOperator, true
	case RoleSupervisor:
		return StatusPendingSupervisor, true
	case RoleLeader:
		return StatusPendingLeader, true
	default:
		return "", false
	}
}

// NextStep returns the status and approver role that follow an approval in
// the given pending status. The supervisor step is inserted ahead of the
// leader only for flagged requests. ok is false when the status is not a
// pending one; an empty nextRole means the chain is complete.
func NextStep(status string, requiresSupervisor bool) (nextStatus, nextRole string, ok bool) {
	switch status {
	case StatusDraft:
		return StatusPendingCashier, RoleCashier, true
	case StatusPendingCashier:
		return StatusPendingOperator, RoleOperator, true
	case StatusPendingOperator:
		if requiresSupervisor {
			return StatusPendingSupervisor, RoleSupervisor, true
		}
		return StatusPendingLeader, RoleLeader, true
	case StatusPendingSupervisor:
		return StatusPendingLeader, RoleLeader, true
	case StatusPendingLeader:
		return StatusApproved, "", true
	default:
		return "", "", false
	}
}

// CanMarkDebt reports whether the role may close a request as DEBT_MARKED.
// Only the cashier and operator steps handle money directly.
func CanMarkDebt(role string) bool {
	return role == RoleCashier || role == RoleOperator
}

// CanExtend reports whether the role may grant a payment extension. Same
// money-handling steps as CanMarkDebt.
func CanExtend(role string) bool {
	return role == RoleCashier || role == RoleOperator
}
