package repository

import (
	"context"
	"time"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	FindByRequest(ctx context.Context, requestID uuid.UUID) (*model.Reminder, error)
	// Due returns reminders whose clock elapsed, joined against their
	// request so the sweep can address the current approver, non-terminal
	// requests only.
	Due(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error)
	Update(ctx context.Context, reminder *model.Reminder) error
	// ResetSchedule rewinds the counter and reschedules after a transition
	// moved the request to a new approver.
	ResetSchedule(ctx context.Context, requestID uuid.UUID, next time.Time) error
	DeleteByRequest(ctx context.Context, requestID uuid.UUID) error
	// TrySweepLock grabs the process-wide advisory lock guarding the sweep.
	// It must run inside a transaction; the lock drops at commit, so only
	// one instance processes a given sweep cycle.
	TrySweepLock(ctx context.Context) (bool, error)
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	return GetDB(ctx, r.db).Create(reminder).Error
}

func (r *reminderRepository) FindByRequest(ctx context.Context, requestID uuid.UUID) (*model.Reminder, error) {
	var reminder model.Reminder
	if err := GetDB(ctx, r.db).First(&reminder, "request_id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) Due(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := GetDB(ctx, r.db).
		Joins("JOIN debt_requests ON debt_requests.id = reminders.request_id").
		Where("reminders.next_reminder_at <= ?", now).
		Where("reminders.escalated = false").
		Where("debt_requests.status IN ?", PendingStatuses).
		Order("reminders.next_reminder_at ASC").
		Limit(limit).
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *reminderRepository) Update(ctx context.Context, reminder *model.Reminder) error {
	return GetDB(ctx, r.db).Save(reminder).Error
}

func (r *reminderRepository) ResetSchedule(ctx context.Context, requestID uuid.UUID, next time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Reminder{}).
		Where("request_id = ?", requestID).
		Updates(map[string]interface{}{
			"reminder_count":   0,
			"escalated":        false,
			"next_reminder_at": next,
		}).Error
}

func (r *reminderRepository) DeleteByRequest(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.Reminder{}).Error
}

func (r *reminderRepository) TrySweepLock(ctx context.Context) (bool, error) {
	var locked bool
	err := GetDB(ctx, r.db).
		Raw("SELECT pg_try_advisory_xact_lock(hashtext(?))", "debtflow:reminder_sweep").
		Scan(&locked).Error
	if err != nil {
		return false, err
	}
	return locked, nil
}
