package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment binds a user to an approver role on a branch (cashier) or a
// brand (operator, leader). Many-to-many: a user can cover several scopes
// and a scope can have several users. The core only reads these rows;
// creation and toggling happen through the admin endpoints.
//
// The integer primary key is load-bearing: when several users are active
// for the same role and scope, the row with the lowest id is the one a
// request is addressed to.
type Assignment struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Role   string    `gorm:"type:varchar(20);not null;index:idx_assignment_scope" json:"role"` // cashier, operator, leader
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Exactly one of BranchID/BrandID is set, depending on the role:
	// cashiers are scoped to a branch, operators and leaders to a brand.
	BranchID *uuid.UUID `gorm:"type:uuid;index:idx_assignment_scope" json:"branch_id"`
	Branch   *Branch    `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	BrandID  *uuid.UUID `gorm:"type:uuid;index:idx_assignment_scope" json:"brand_id"`
	Brand    *Brand     `gorm:"foreignKey:BrandID" json:"brand,omitempty"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
