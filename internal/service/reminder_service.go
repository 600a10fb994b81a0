package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"debtflow/internal/config"
	"debtflow/internal/model"
	"debtflow/internal/notify"
	"debtflow/internal/repository"

	"go.uber.org/zap"
)

const sweepBatchSize = 100

// ReminderService runs the nudge/escalation clock. Each sweep cycle nudges
// the current approver of every overdue request, and raises exactly one
// escalation once a request's reminder budget is spent.
type ReminderService interface {
	Sweep(ctx context.Context) (SweepResult, error)
}

type SweepResult struct {
	Reminded  int
	Escalated int
	Skipped   bool
}

type reminderService struct {
	reminders repository.ReminderRepository
	requests  repository.RequestRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	events    EventDispatcher
	cfg       config.WorkflowConfig
	lark      config.LarkConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewReminderService(
	reminders repository.ReminderRepository,
	requests repository.RequestRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventDispatcher,
	cfg config.WorkflowConfig,
	lark config.LarkConfig,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{
		reminders: reminders,
		requests:  requests,
		audit:     audit,
		txManager: txManager,
		events:    events,
		cfg:       cfg,
		lark:      lark,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep processes one cycle. The whole cycle runs in a single transaction
// guarded by an advisory lock, so with several instances running exactly one
// does the work per cycle. Events and chat messages are collected during the
// transaction and published only after it commits.
func (s *reminderService) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	var pendingEvents []notify.Event
	var pendingChats []notify.ChatMessage

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, lockErr := s.reminders.TrySweepLock(txCtx)
		if lockErr != nil {
			return fmt.Errorf("failed to take sweep lock: %w", lockErr)
		}
		if !locked {
			result.Skipped = true
			return nil
		}

		due, dueErr := s.reminders.Due(txCtx, s.now(), sweepBatchSize)
		if dueErr != nil {
			return fmt.Errorf("failed to list due reminders: %w", dueErr)
		}

		for i := range due {
			reminder := &due[i]
			request, reqErr := s.requests.FindByIDWithRelations(txCtx, reminder.RequestID)
			if reqErr != nil {
				s.logger.Warn("reminder points at missing request",
					zap.String("request_id", reminder.RequestID.String()),
					zap.Error(reqErr))
				continue
			}
			if request.IsTerminal() || request.Status == model.StatusDraft {
				continue
			}

			if reminder.Exhausted() {
				events, chats, escErr := s.escalate(txCtx, reminder, request)
				if escErr != nil {
					return escErr
				}
				pendingEvents = append(pendingEvents, events...)
				pendingChats = append(pendingChats, chats...)
				result.Escalated++
				continue
			}

			events, chats, remErr := s.remind(txCtx, reminder, request)
			if remErr != nil {
				return remErr
			}
			pendingEvents = append(pendingEvents, events...)
			pendingChats = append(pendingChats, chats...)
			result.Reminded++
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	for _, event := range pendingEvents {
		s.events.Publish(event)
	}
	for _, chat := range pendingChats {
		s.events.PublishChat(chat)
	}
	return result, nil
}

func (s *reminderService) remind(ctx context.Context, reminder *model.Reminder, request *model.DebtRequest) ([]notify.Event, []notify.ChatMessage, error) {
	now := s.now()
	reminder.ReminderCount++
	reminder.LastReminderAt = &now
	reminder.NextReminderAt = now.Add(s.cfg.ReminderInterval)
	if err := s.reminders.Update(ctx, reminder); err != nil {
		return nil, nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"request_no":     request.RequestNo,
		"reminder_count": reminder.ReminderCount,
		"max_reminders":  reminder.MaxReminders,
		"approver_type":  request.CurrentApproverType,
	})
	entry := model.AuditLog{
		Action:     model.ActionReminderSent,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNo,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return nil, nil, fmt.Errorf("failed to audit reminder: %w", err)
	}

	events := []notify.Event{{
		Type:         notify.EventReminderSent,
		RequestID:    request.ID.String(),
		RequestNo:    request.RequestNo,
		Status:       request.Status,
		ApproverType: request.CurrentApproverType,
		ApproverID:   uuidPtrString(request.CurrentApproverID),
		Message:      fmt.Sprintf("reminder %d of %d", reminder.ReminderCount, reminder.MaxReminders),
	}}

	var chats []notify.ChatMessage
	if request.Brand != nil && request.Brand.LarkChatID != "" {
		content := fmt.Sprintf("⏰ Debt report %s is still awaiting %s (reminder %d/%d)",
			request.RequestNo, request.CurrentApproverType, reminder.ReminderCount, reminder.MaxReminders)
		chats = append(chats, notify.ChatMessage{
			ChatID:    request.Brand.LarkChatID,
			Content:   content,
			RequestID: request.ID,
		})
	}
	return events, chats, nil
}

// escalate marks the reminder so it never fires again and routes the alarm
// to the supervisor channel.
func (s *reminderService) escalate(ctx context.Context, reminder *model.Reminder, request *model.DebtRequest) ([]notify.Event, []notify.ChatMessage, error) {
	reminder.Escalated = true
	if err := s.reminders.Update(ctx, reminder); err != nil {
		return nil, nil, fmt.Errorf("failed to mark reminder escalated: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"request_no":     request.RequestNo,
		"reminder_count": reminder.ReminderCount,
		"approver_type":  request.CurrentApproverType,
	})
	entry := model.AuditLog{
		Action:     model.ActionEscalationRaised,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNo,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return nil, nil, fmt.Errorf("failed to audit escalation: %w", err)
	}

	s.logger.Warn("escalating overdue request",
		zap.String("request_no", request.RequestNo),
		zap.String("approver_type", request.CurrentApproverType))

	events := []notify.Event{{
		Type:         notify.EventEscalationRaised,
		RequestID:    request.ID.String(),
		RequestNo:    request.RequestNo,
		Status:       request.Status,
		ApproverType: request.CurrentApproverType,
		ApproverID:   uuidPtrString(request.CurrentApproverID),
		Message:      "reminder budget exhausted",
	}}

	var chats []notify.ChatMessage
	if s.lark.SupervisorChatID != "" {
		content := fmt.Sprintf("🚨 Debt report %s exceeded %d reminders at the %s step and needs attention",
			request.RequestNo, reminder.MaxReminders, request.CurrentApproverType)
		chats = append(chats, notify.ChatMessage{
			ChatID:    s.lark.SupervisorChatID,
			Content:   content,
			RequestID: request.ID,
		})
	}
	return events, chats, nil
}
