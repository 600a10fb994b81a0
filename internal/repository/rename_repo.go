package repository

import (
	"context"
	"errors"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RenameRepository is the append-only name-change history for brands,
// branches and SVRs.
type RenameRepository interface {
	Create(ctx context.Context, rename *model.EntityRename) error
	// LatestName returns the most recent name on record for the entity, or
	// "" when it was never renamed.
	LatestName(ctx context.Context, entityType string, entityID uuid.UUID) (string, error)
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.EntityRename, error)
}

type renameRepository struct {
	db *gorm.DB
}

func NewRenameRepository(db *gorm.DB) RenameRepository {
	return &renameRepository{db: db}
}

func (r *renameRepository) Create(ctx context.Context, rename *model.EntityRename) error {
	return GetDB(ctx, r.db).Create(rename).Error
}

func (r *renameRepository) LatestName(ctx context.Context, entityType string, entityID uuid.UUID) (string, error) {
	var rename model.EntityRename
	err := GetDB(ctx, r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		First(&rename).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rename.NewName, nil
}

func (r *renameRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.EntityRename, error) {
	var renames []model.EntityRename
	if err := GetDB(ctx, r.db).
		Preload("Renamer").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&renames).Error; err != nil {
		return nil, err
	}
	return renames, nil
}
