package repository

import (
	"context"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgRepository covers the brand/branch/SVR catalog the requests reference.
type OrgRepository interface {
	CreateBrand(ctx context.Context, brand *model.Brand) error
	FindBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	UpdateBrand(ctx context.Context, brand *model.Brand) error

	CreateBranch(ctx context.Context, branch *model.Branch) error
	FindBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	ListBranches(ctx context.Context, brandID string) ([]model.Branch, error)
	UpdateBranch(ctx context.Context, branch *model.Branch) error

	CreateSVR(ctx context.Context, svr *model.SVR) error
	FindSVR(ctx context.Context, id uuid.UUID) (*model.SVR, error)
	ListSVRs(ctx context.Context, branchID string) ([]model.SVR, error)
	UpdateSVR(ctx context.Context, svr *model.SVR) error
}

type orgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) OrgRepository {
	return &orgRepository{db: db}
}

func (r *orgRepository) CreateBrand(ctx context.Context, brand *model.Brand) error {
	return GetDB(ctx, r.db).Create(brand).Error
}

func (r *orgRepository) FindBrand(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	var brand model.Brand
	if err := GetDB(ctx, r.db).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *orgRepository) ListBrands(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *orgRepository) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	return GetDB(ctx, r.db).Save(brand).Error
}

func (r *orgRepository) CreateBranch(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}

func (r *orgRepository) FindBranch(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).Preload("Brand").First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *orgRepository) ListBranches(ctx context.Context, brandID string) ([]model.Branch, error) {
	query := GetDB(ctx, r.db).Preload("Brand")
	if brandID != "" {
		query = query.Where("brand_id = ?", brandID)
	}
	var branches []model.Branch
	if err := query.Order("name ASC").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *orgRepository) UpdateBranch(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Save(branch).Error
}

func (r *orgRepository) CreateSVR(ctx context.Context, svr *model.SVR) error {
	return GetDB(ctx, r.db).Create(svr).Error
}

func (r *orgRepository) FindSVR(ctx context.Context, id uuid.UUID) (*model.SVR, error) {
	var svr model.SVR
	if err := GetDB(ctx, r.db).Preload("Branch").Preload("Brand").First(&svr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svr, nil
}

func (r *orgRepository) ListSVRs(ctx context.Context, branchID string) ([]model.SVR, error) {
	query := GetDB(ctx, r.db).Preload("Branch").Preload("Brand")
	if branchID != "" {
		query = query.Where("branch_id = ?", branchID)
	}
	var svrs []model.SVR
	if err := query.Order("name ASC").Find(&svrs).Error; err != nil {
		return nil, err
	}
	return svrs, nil
}

func (r *orgRepository) UpdateSVR(ctx context.Context, svr *model.SVR) error {
	return GetDB(ctx, r.db).Save(svr).Error
}
