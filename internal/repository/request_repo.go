package repository

import (
	"context"
	"fmt"
	"time"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingStatuses are the non-terminal statuses in which a request waits on
// an approver.
var PendingStatuses = []string{
	model.StatusPendingCashier,
	model.StatusPendingOperator,
	model.StatusPendingSupervisor,
	model.StatusPendingLeader,
}

// RequestFilter narrows List queries.
type RequestFilter struct {
	Status   string
	BrandID  string
	BranchID string
	Page     int
	Limit    int
}

// PendingQuery selects the requests an approver is allowed to act on:
// requests in the given pending status that are either addressed to the
// actor directly or fall inside one of the actor's assignment scopes.
// Unscoped is for supervisors, who see every request at their step.
type PendingQuery struct {
	Status    string
	ActorID   uuid.UUID
	BranchIDs []uuid.UUID
	BrandIDs  []uuid.UUID
	Unscoped  bool
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.DebtRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DebtRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.DebtRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.DebtRequest, int64, error)
	ListPending(ctx context.Context, q PendingQuery) ([]model.DebtRequest, error)
	Update(ctx context.Context, req *model.DebtRequest) error
	NextRequestNo(ctx context.Context) (string, error)

	// Lock fields. AcquireLock is the single-source-of-truth conditional
	// update: it succeeds only when the row is in a pending status and the
	// lock is free, already held by the actor, or expired.
	AcquireLock(ctx context.Context, id, actor uuid.UUID, now time.Time, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, id, actor uuid.UUID) error
	SweepExpiredLocks(ctx context.Context, now time.Time, ttl time.Duration) ([]model.DebtRequest, error)

	SetMessageHandle(ctx context.Context, id uuid.UUID, column, messageID string) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.DebtRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DebtRequest, error) {
	var req model.DebtRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.DebtRequest, error) {
	var req model.DebtRequest
	if err := GetDB(ctx, r.db).
		Preload("Brand").Preload("Branch").Preload("SVR").
		Preload("Submitter").Preload("CurrentApprover").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.DebtRequest, int64, error) {
	var requests []model.DebtRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.DebtRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BrandID != "" {
		query = query.Where("brand_id = ?", filter.BrandID)
	}
	if filter.BranchID != "" {
		query = query.Where("branch_id = ?", filter.BranchID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetchQuery := db.Preload("Brand").Preload("Branch").Preload("SVR").Preload("Submitter")
	if filter.Status != "" {
		fetchQuery = fetchQuery.Where("status = ?", filter.Status)
	}
	if filter.BrandID != "" {
		fetchQuery = fetchQuery.Where("brand_id = ?", filter.BrandID)
	}
	if filter.BranchID != "" {
		fetchQuery = fetchQuery.Where("branch_id = ?", filter.BranchID)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) ListPending(ctx context.Context, q PendingQuery) ([]model.DebtRequest, error) {
	var requests []model.DebtRequest
	db := GetDB(ctx, r.db).
		Preload("Brand").Preload("Branch").Preload("SVR").Preload("Submitter").
		Where("status = ?", q.Status)

	if !q.Unscoped {
		db = db.Where(
			"current_approver_id = ? OR branch_id IN ? OR brand_id IN ?",
			q.ActorID, idsOrNil(q.BranchIDs), idsOrNil(q.BrandIDs),
		)
	}

	if err := db.Order("created_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// idsOrNil substitutes an impossible id for empty slices so the IN clause
// stays valid SQL instead of matching everything.
func idsOrNil(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}

func (r *requestRepository) Update(ctx context.Context, req *model.DebtRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// NextRequestNo generates a daily-sequenced request number like
// DR-20260115-00042. An advisory lock keeps concurrent submissions from
// producing duplicates.
func (r *requestRepository) NextRequestNo(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	today := time.Now().Format("20060102")
	prefix := "DR-" + today + "-"

	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	if err := db.Model(&model.DebtRequest{}).
		Where("request_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (r *requestRepository) AcquireLock(ctx context.Context, id, actor uuid.UUID, now time.Time, ttl time.Duration) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.DebtRequest{}).
		Where("id = ?", id).
		Where("status IN ?", PendingStatuses).
		Where("locked_by IS NULL OR locked_by = ? OR locked_at < ?", actor, now.Add(-ttl)).
		Updates(map[string]interface{}{"locked_by": actor, "locked_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseLock clears the lock only when the actor holds it. Releasing a lock
// that is absent or held by someone else is a silent no-op.
func (r *requestRepository) ReleaseLock(ctx context.Context, id, actor uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.DebtRequest{}).
		Where("id = ? AND locked_by = ?", id, actor).
		Updates(map[string]interface{}{"locked_by": nil, "locked_at": nil}).Error
}

// SweepExpiredLocks clears locks whose TTL elapsed and returns the requests
// that were reclaimed. The clear re-checks holder and timestamp so a lock
// renewed between the select and the update stays untouched.
func (r *requestRepository) SweepExpiredLocks(ctx context.Context, now time.Time, ttl time.Duration) ([]model.DebtRequest, error) {
	db := GetDB(ctx, r.db)
	cutoff := now.Add(-ttl)

	var expired []model.DebtRequest
	if err := db.
		Where("locked_by IS NOT NULL AND locked_at < ?", cutoff).
		Where("status IN ?", PendingStatuses).
		Find(&expired).Error; err != nil {
		return nil, err
	}

	reclaimed := make([]model.DebtRequest, 0, len(expired))
	for _, req := range expired {
		res := db.Model(&model.DebtRequest{}).
			Where("id = ? AND locked_by = ? AND locked_at = ?", req.ID, req.LockedBy, req.LockedAt).
			Updates(map[string]interface{}{"locked_by": nil, "locked_at": nil})
		if res.Error != nil {
			return reclaimed, res.Error
		}
		if res.RowsAffected > 0 {
			reclaimed = append(reclaimed, req)
		}
	}

	return reclaimed, nil
}

func (r *requestRepository) SetMessageHandle(ctx context.Context, id uuid.UUID, column, messageID string) error {
	if column != "preview_message_id" && column != "final_message_id" {
		return fmt.Errorf("unknown message handle column: %s", column)
	}
	return GetDB(ctx, r.db).Model(&model.DebtRequest{}).
		Where("id = ?", id).
		Update(column, messageID).Error
}
