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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockService hands out the per-request review lock. Acquisition is a single
// conditional UPDATE so two approvers racing for the same request cannot both
// win; the sweep reclaims locks whose holder went away.
type LockService interface {
	Acquire(ctx context.Context, requestID, actorID, actorRole string) error
	// Release is idempotent: releasing a lock the actor no longer holds is
	// not an error.
	Release(ctx context.Context, requestID, actorID string) error
	SweepExpired(ctx context.Context) (int, error)
}

type lockService struct {
	requests  repository.RequestRepository
	audit     repository.AuditRepository
	resolver  AssignmentResolver
	txManager repository.TransactionManager
	events    EventDispatcher
	cfg       config.WorkflowConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewLockService(
	requests repository.RequestRepository,
	audit repository.AuditRepository,
	resolver AssignmentResolver,
	txManager repository.TransactionManager,
	events EventDispatcher,
	cfg config.WorkflowConfig,
	logger *zap.Logger,
) LockService {
	return &lockService{
		requests:  requests,
		audit:     audit,
		resolver:  resolver,
		txManager: txManager,
		events:    events,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *lockService) Acquire(ctx context.Context, requestID, actorID, actorRole string) error {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}

	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("debt request not found: %w", err)
	}
	if request.IsTerminal() || request.Status == model.StatusDraft {
		return ErrInvalidTransition
	}
	if request.CurrentApproverType != actorRole {
		return ErrRoleMismatch
	}
	if request.CurrentApproverID == nil || *request.CurrentApproverID != actor {
		eligible, eligErr := s.resolver.IsEligible(ctx, actor, actorRole, request.BranchID, request.BrandID)
		if eligErr != nil {
			return eligErr
		}
		if !eligible {
			return ErrRoleMismatch
		}
	}

	acquired, err := s.requests.AcquireLock(ctx, id, actor, s.now(), s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return ErrLockConflict
	}

	s.events.Publish(notify.Event{
		Type:      notify.EventRequestUpdated,
		RequestID: id.String(),
		RequestNo: request.RequestNo,
		Status:    request.Status,
		ActorID:   actor.String(),
		Message:   "request locked for review",
	})
	return nil
}

func (s *lockService) Release(ctx context.Context, requestID, actorID string) error {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}

	if err := s.requests.ReleaseLock(ctx, id, actor); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// SweepExpired clears every lock older than the TTL and audits each recovery.
// It runs on a timer from the lock sweeper worker.
func (s *lockService) SweepExpired(ctx context.Context) (int, error) {
	var recovered []model.DebtRequest

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		recovered, txErr = s.requests.SweepExpiredLocks(txCtx, s.now(), s.cfg.LockTTL)
		if txErr != nil {
			return fmt.Errorf("failed to sweep expired locks: %w", txErr)
		}

		for _, req := range recovered {
			details, _ := json.Marshal(map[string]interface{}{
				"request_no": req.RequestNo,
				"locked_by":  uuidPtrString(req.LockedBy),
			})
			entry := model.AuditLog{
				Action:     model.ActionStaleLockRecovered,
				EntityID:   req.ID.String(),
				EntityName: req.RequestNo,
				Details:    string(details),
			}
			if auditErr := s.audit.Log(txCtx, &entry); auditErr != nil {
				return fmt.Errorf("failed to audit lock recovery: %w", auditErr)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, req := range recovered {
		s.logger.Info("recovered stale lock",
			zap.String("request_no", req.RequestNo),
			zap.String("holder", uuidPtrString(req.LockedBy)))
		s.events.Publish(notify.Event{
			Type:      notify.EventRequestUpdated,
			RequestID: req.ID.String(),
			RequestNo: req.RequestNo,
			Status:    req.Status,
			Message:   "stale lock recovered",
		})
	}
	return len(recovered), nil
}
