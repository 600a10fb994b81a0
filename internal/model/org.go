package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity type constants for rename history
const (
	EntityBrand  = "brand"
	EntityBranch = "branch"
	EntitySVR    = "svr"
)

// Brand is a business brand whose debts flow through the approval chain.
type Brand struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	LarkChatID string   `gorm:"type:varchar(100)" json:"lark_chat_id"` // chat the brand's notifications go to
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Branch is a physical branch belonging to a brand.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	BrandID   uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand     *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SVR is a field-staff identity record (driver/representative) tied to a
// branch and brand. Reported debts reference the SVR they belong to.
type SVR struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch    *Branch   `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	BrandID   uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand     *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityRename is the append-only name-change history of brands, branches
// and SVRs. The audit reader consults it to show a consistent current name
// next to historical records; historical rows themselves are never
// rewritten.
type EntityRename struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityType string     `gorm:"type:varchar(20);not null;index:idx_rename_entity" json:"entity_type"` // brand, branch, svr
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_rename_entity" json:"entity_id"`
	OldName    string     `gorm:"type:varchar(255);not null" json:"old_name"`
	NewName    string     `gorm:"type:varchar(255);not null" json:"new_name"`
	RenamedBy  *uuid.UUID `gorm:"type:uuid" json:"renamed_by"`
	Renamer    *User      `gorm:"foreignKey:RenamedBy" json:"renamer,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
