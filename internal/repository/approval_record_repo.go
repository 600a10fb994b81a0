package repository

import (
	"context"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRecordRepository is append-only: records are written once by the
// workflow service and never touched again.
type ApprovalRecordRepository interface {
	Create(ctx context.Context, record *model.ApprovalRecord) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalRecord, error)
}

type approvalRecordRepository struct {
	db *gorm.DB
}

func NewApprovalRecordRepository(db *gorm.DB) ApprovalRecordRepository {
	return &approvalRecordRepository{db: db}
}

func (r *approvalRecordRepository) Create(ctx context.Context, record *model.ApprovalRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *approvalRecordRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalRecord, error) {
	var records []model.ApprovalRecord
	if err := GetDB(ctx, r.db).
		Preload("Approver").
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
