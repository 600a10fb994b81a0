package repository

import (
	"context"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	FindByID(ctx context.Context, id uint) (*model.Assignment, error)
	// ActiveForScope returns active assignments for a role on a branch or
	// brand, lowest id first. The first row is the one requests get
	// addressed to.
	ActiveForScope(ctx context.Context, role string, branchID, brandID *uuid.UUID) ([]model.Assignment, error)
	// ScopesForUser returns the branch and brand ids the user actively
	// covers for the given role.
	ScopesForUser(ctx context.Context, userID uuid.UUID, role string) (branchIDs, brandIDs []uuid.UUID, err error)
	List(ctx context.Context, role string, page, limit int) ([]model.Assignment, int64, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return GetDB(ctx, r.db).Create(assignment).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uint) (*model.Assignment, error) {
	var a model.Assignment
	if err := GetDB(ctx, r.db).Preload("User").First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ActiveForScope(ctx context.Context, role string, branchID, brandID *uuid.UUID) ([]model.Assignment, error) {
	query := GetDB(ctx, r.db).Preload("User").
		Where("role = ? AND is_active = true", role)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	if brandID != nil {
		query = query.Where("brand_id = ?", *brandID)
	}

	var assignments []model.Assignment
	if err := query.Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) ScopesForUser(ctx context.Context, userID uuid.UUID, role string) ([]uuid.UUID, []uuid.UUID, error) {
	var assignments []model.Assignment
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND role = ? AND is_active = true", userID, role).
		Find(&assignments).Error; err != nil {
		return nil, nil, err
	}

	var branchIDs, brandIDs []uuid.UUID
	for _, a := range assignments {
		if a.BranchID != nil {
			branchIDs = append(branchIDs, *a.BranchID)
		}
		if a.BrandID != nil {
			brandIDs = append(brandIDs, *a.BrandID)
		}
	}
	return branchIDs, brandIDs, nil
}

func (r *assignmentRepository) List(ctx context.Context, role string, page, limit int) ([]model.Assignment, int64, error) {
	var assignments []model.Assignment
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Assignment{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("User").Preload("Branch").Preload("Brand")
	if role != "" {
		fetchQuery = fetchQuery.Where("role = ?", role)
	}
	if err := fetchQuery.Order("id ASC").Offset(offset).Limit(limit).Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (r *assignmentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return GetDB(ctx, r.db).Model(&model.Assignment{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Assignment{}, "id = ?", id).Error
}
