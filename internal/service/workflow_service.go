package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"debtflow/internal/config"
	"debtflow/internal/model"
	"debtflow/internal/notify"
	"debtflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

type CreateRequestDTO struct {
	BrandID            string          `json:"brand_id" binding:"required"`
	BranchID           string          `json:"branch_id" binding:"required"`
	SVRID              string          `json:"svr_id" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	Currency           string          `json:"currency"`
	Note               string          `json:"note"`
	RequiresSupervisor bool            `json:"requires_supervisor"`
}

type DecideDTO struct {
	Decision      string           `json:"decision" binding:"required,oneof=approve reject mark_debt set_extend"`
	Note          string           `json:"note"`
	EvidenceFiles []string         `json:"evidence_files"`
	DebtAmount    *decimal.Decimal `json:"debt_amount"`
	// ExtendUntil is the new payment deadline for set_extend, RFC3339.
	ExtendUntil string `json:"extend_until"`
}

type RequestResponse struct {
	ID                  string  `json:"id"`
	RequestNo           string  `json:"request_no"`
	BrandID             string  `json:"brand_id"`
	BrandName           string  `json:"brand_name,omitempty"`
	BranchID            string  `json:"branch_id"`
	BranchName          string  `json:"branch_name,omitempty"`
	SVRID               string  `json:"svr_id"`
	SVRName             string  `json:"svr_name,omitempty"`
	Amount              string  `json:"amount"`
	Currency            string  `json:"currency"`
	Note                string  `json:"note"`
	Status              string  `json:"status"`
	RequiresSupervisor  bool    `json:"requires_supervisor"`
	CurrentApproverType string  `json:"current_approver_type"`
	CurrentApproverID   *string `json:"current_approver_id"`
	LockedBy            *string `json:"locked_by"`
	LockedAt            *string `json:"locked_at"`
	SubmittedBy         string  `json:"submitted_by"`
	SubmitterName       string  `json:"submitter_name,omitempty"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

type ApprovalRecordResponse struct {
	ID           string  `json:"id"`
	ApproverID   string  `json:"approver_id"`
	ApproverName string  `json:"approver_name,omitempty"`
	ApprovalType string  `json:"approval_type"`
	Status       string  `json:"status"`
	Note         string  `json:"note,omitempty"`
	DebtAmount   *string `json:"debt_amount,omitempty"`
	ExtendUntil  *string `json:"extend_until,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type RequestDetailResponse struct {
	RequestResponse
	Records []ApprovalRecordResponse `json:"records"`
}

// --- Interfaces ---

// EventDispatcher is the slice of the notification dispatcher the workflow
// needs. Events fire only after the transition committed.
type EventDispatcher interface {
	Publish(event notify.Event)
	PublishChat(msg notify.ChatMessage)
}

// WorkflowService is the approval state machine. It owns every status,
// approver and terminal mutation of a DebtRequest; lock fields are shared
// with the lock manager.
type WorkflowService interface {
	CreateRequest(ctx context.Context, submitterID string, req CreateRequestDTO) (RequestResponse, error)
	Decide(ctx context.Context, requestID, actorID, actorRole string, req DecideDTO) (RequestResponse, error)
	ListPending(ctx context.Context, actorID, role string) ([]RequestResponse, error)
	GetRequest(ctx context.Context, id string) (RequestDetailResponse, error)
	ListRequests(ctx context.Context, filter repository.RequestFilter) ([]RequestResponse, int64, error)
	// ReassignApprover retries assignment resolution for a request stalled
	// without an addressee (draft submissions or steps whose assignee was
	// deactivated).
	ReassignApprover(ctx context.Context, requestID, adminID string) (RequestResponse, error)
}

type workflowService struct {
	requests  repository.RequestRepository
	records   repository.ApprovalRecordRepository
	reminders repository.ReminderRepository
	audit     repository.AuditRepository
	org       repository.OrgRepository
	txManager repository.TransactionManager
	resolver  AssignmentResolver
	events    EventDispatcher
	cfg       config.WorkflowConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewWorkflowService(
	requests repository.RequestRepository,
	records repository.ApprovalRecordRepository,
	reminders repository.ReminderRepository,
	audit repository.AuditRepository,
	org repository.OrgRepository,
	txManager repository.TransactionManager,
	resolver AssignmentResolver,
	events EventDispatcher,
	cfg config.WorkflowConfig,
	logger *zap.Logger,
) WorkflowService {
	return &workflowService{
		requests:  requests,
		records:   records,
		reminders: reminders,
		audit:     audit,
		org:       org,
		txManager: txManager,
		resolver:  resolver,
		events:    events,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// --- Implementation ---

func (s *workflowService) CreateRequest(ctx context.Context, submitterID string, req CreateRequestDTO) (RequestResponse, error) {
	submitter, err := uuid.Parse(submitterID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid submitter id: %w", err)
	}
	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid brand_id: %w", err)
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid branch_id: %w", err)
	}
	svrID, err := uuid.Parse(req.SVRID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid svr_id: %w", err)
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return RequestResponse{}, fmt.Errorf("amount must be positive")
	}

	branch, err := s.org.FindBranch(ctx, branchID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("branch not found: %w", err)
	}
	if branch.BrandID != brandID {
		return RequestResponse{}, fmt.Errorf("branch does not belong to the given brand")
	}
	svr, err := s.org.FindSVR(ctx, svrID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("svr not found: %w", err)
	}
	if svr.BranchID != branchID {
		return RequestResponse{}, fmt.Errorf("svr does not belong to the given branch")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	request := model.DebtRequest{
		BrandID:            brandID,
		BranchID:           branchID,
		SVRID:              svrID,
		Amount:             req.Amount,
		Currency:           currency,
		Note:               req.Note,
		Status:             model.StatusDraft,
		RequiresSupervisor: req.RequiresSupervisor,
		SubmittedBy:        submitter,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		requestNo, noErr := s.requests.NextRequestNo(txCtx)
		if noErr != nil {
			return fmt.Errorf("failed to generate request number: %w", noErr)
		}
		request.RequestNo = requestNo

		// Resolve the first approver up front. An unresolved cashier leaves
		// the request in DRAFT for manual reassignment instead of blocking
		// the submission.
		cashier, resolveErr := s.resolver.ResolveApprover(txCtx, model.RoleCashier, branchID, brandID)
		switch {
		case resolveErr == nil:
			request.Status = model.StatusPendingCashier
			request.CurrentApproverType = model.RoleCashier
			request.CurrentApproverID = &cashier
		case errors.Is(resolveErr, ErrApproverUnresolved):
			s.logger.Warn("no active cashier for branch, request stalls in draft",
				zap.String("branch_id", branchID.String()))
		default:
			return resolveErr
		}

		if createErr := s.requests.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create debt request: %w", createErr)
		}

		reminder := model.Reminder{
			RequestID:      request.ID,
			MaxReminders:   s.cfg.ReminderMaxCount,
			NextReminderAt: s.now().Add(s.cfg.ReminderInterval),
		}
		if remErr := s.reminders.Create(txCtx, &reminder); remErr != nil {
			return fmt.Errorf("failed to create reminder: %w", remErr)
		}

		return s.auditTransition(txCtx, &submitter, model.ActionCreateRequest, &request, "", request.Status, req.Note)
	})
	if err != nil {
		return RequestResponse{}, err
	}

	full, err := s.requests.FindByIDWithRelations(ctx, request.ID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to reload debt request: %w", err)
	}

	s.events.Publish(notify.Event{
		Type:         notify.EventRequestCreated,
		RequestID:    full.ID.String(),
		RequestNo:    full.RequestNo,
		Status:       full.Status,
		ApproverType: full.CurrentApproverType,
		ApproverID:   uuidPtrString(full.CurrentApproverID),
		ActorID:      submitter.String(),
	})
	s.sendPreviewMessage(full)

	return toRequestResponse(*full), nil
}

func (s *workflowService) Decide(ctx context.Context, requestID, actorID, actorRole string, req DecideDTO) (RequestResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", err)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid actor id: %w", err)
	}
	if _, ok := model.PendingStatusForRole(actorRole); !ok {
		return RequestResponse{}, ErrRoleMismatch
	}
	if req.Decision == model.DecisionMarkDebt {
		if !model.CanMarkDebt(actorRole) {
			return RequestResponse{}, ErrInvalidTransition
		}
		if req.DebtAmount == nil || req.DebtAmount.LessThanOrEqual(decimal.Zero) {
			return RequestResponse{}, fmt.Errorf("mark_debt requires a positive debt_amount")
		}
	}
	var extendUntil time.Time
	if req.Decision == model.DecisionSetExtend {
		if !model.CanExtend(actorRole) {
			return RequestResponse{}, ErrInvalidTransition
		}
		extendUntil, err = time.Parse(time.RFC3339, req.ExtendUntil)
		if err != nil {
			return RequestResponse{}, fmt.Errorf("set_extend requires a valid extend_until timestamp: %w", err)
		}
		if !extendUntil.After(s.now()) {
			return RequestResponse{}, fmt.Errorf("extend_until must be in the future")
		}
	}

	var request *model.DebtRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		request, txErr = s.requests.FindByID(txCtx, id)
		if txErr != nil {
			return fmt.Errorf("debt request not found: %w", txErr)
		}

		if txErr = s.checkActionable(txCtx, request, actor, actorRole); txErr != nil {
			return txErr
		}

		switch req.Decision {
		case model.DecisionApprove:
			return s.applyApprove(txCtx, request, actor, actorRole, req)
		case model.DecisionReject:
			return s.applyTerminal(txCtx, request, actor, actorRole, model.StatusRejected, model.RecordRejected, model.ActionRejectRequest, req)
		case model.DecisionMarkDebt:
			return s.applyTerminal(txCtx, request, actor, actorRole, model.StatusDebtMarked, model.RecordDebtMarked, model.ActionMarkDebt, req)
		case model.DecisionSetExtend:
			return s.applyExtend(txCtx, request, actor, actorRole, extendUntil, req)
		default:
			return ErrInvalidTransition
		}
	})
	if err != nil {
		return RequestResponse{}, err
	}

	full, err := s.requests.FindByIDWithRelations(ctx, request.ID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to reload debt request: %w", err)
	}

	s.events.Publish(notify.Event{
		Type:         notify.EventRequestUpdated,
		RequestID:    full.ID.String(),
		RequestNo:    full.RequestNo,
		Status:       full.Status,
		ApproverType: full.CurrentApproverType,
		ApproverID:   uuidPtrString(full.CurrentApproverID),
		ActorID:      actor.String(),
	})
	s.sendStatusMessage(full)

	return toRequestResponse(*full), nil
}

// checkActionable enforces the transition preconditions: non-terminal state,
// matching role, active assignment, and lock ownership. A stale holder whose
// lock was taken over gets ErrLockConflict even if the request is still
// addressed to them.
func (s *workflowService) checkActionable(ctx context.Context, request *model.DebtRequest, actor uuid.UUID, actorRole string) error {
	if request.IsTerminal() || request.Status == model.StatusDraft {
		return ErrInvalidTransition
	}
	if request.CurrentApproverType != actorRole {
		return ErrRoleMismatch
	}

	if request.LockedBy != nil && *request.LockedBy != actor {
		if request.LockedAt == nil || s.now().Before(request.LockedAt.Add(s.cfg.LockTTL)) {
			return ErrLockConflict
		}
		// Expired and unswept: the holder is presumed gone, proceed.
	}

	if request.CurrentApproverID != nil && *request.CurrentApproverID == actor {
		return nil
	}
	eligible, err := s.resolver.IsEligible(ctx, actor, actorRole, request.BranchID, request.BrandID)
	if err != nil {
		return err
	}
	if !eligible {
		return ErrRoleMismatch
	}
	return nil
}

func (s *workflowService) applyApprove(ctx context.Context, request *model.DebtRequest, actor uuid.UUID, actorRole string, req DecideDTO) error {
	nextStatus, nextRole, ok := model.NextStep(request.Status, request.RequiresSupervisor)
	if !ok {
		return ErrInvalidTransition
	}

	before := request.Status

	if nextRole != "" {
		next, err := s.resolver.ResolveApprover(ctx, nextRole, request.BranchID, request.BrandID)
		if err != nil {
			// Nothing is written: the request stalls at the current step and
			// the error surfaces for manual reassignment.
			return err
		}
		request.Status = nextStatus
		request.CurrentApproverType = nextRole
		request.CurrentApproverID = &next
	} else {
		request.Status = model.StatusApproved
		request.CurrentApproverType = ""
		request.CurrentApproverID = nil
	}
	request.LockedBy = nil
	request.LockedAt = nil

	if err := s.writeRecord(ctx, request.ID, actor, actorRole, model.RecordApproved, req, nil); err != nil {
		return err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return fmt.Errorf("failed to update debt request: %w", err)
	}

	if request.IsTerminal() {
		if err := s.reminders.DeleteByRequest(ctx, request.ID); err != nil {
			return fmt.Errorf("failed to stop reminders: %w", err)
		}
	} else {
		if err := s.reminders.ResetSchedule(ctx, request.ID, s.now().Add(s.cfg.ReminderInterval)); err != nil {
			return fmt.Errorf("failed to reset reminder: %w", err)
		}
	}

	return s.auditTransition(ctx, &actor, model.ActionApproveStep, request, before, request.Status, req.Note)
}

func (s *workflowService) applyTerminal(ctx context.Context, request *model.DebtRequest, actor uuid.UUID, actorRole, status, recordStatus, action string, req DecideDTO) error {
	before := request.Status

	request.Status = status
	request.CurrentApproverType = ""
	request.CurrentApproverID = nil
	request.LockedBy = nil
	request.LockedAt = nil

	if err := s.writeRecord(ctx, request.ID, actor, actorRole, recordStatus, req, nil); err != nil {
		return err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return fmt.Errorf("failed to update debt request: %w", err)
	}
	if err := s.reminders.DeleteByRequest(ctx, request.ID); err != nil {
		return fmt.Errorf("failed to stop reminders: %w", err)
	}

	return s.auditTransition(ctx, &actor, action, request, before, status, req.Note)
}

// applyExtend grants a payment extension: the request stays at its current
// step with the lock released, and the reminder clock is pushed out to the
// new deadline so the approver is not nudged while the extension runs.
func (s *workflowService) applyExtend(ctx context.Context, request *model.DebtRequest, actor uuid.UUID, actorRole string, extendUntil time.Time, req DecideDTO) error {
	request.LockedBy = nil
	request.LockedAt = nil

	if err := s.writeRecord(ctx, request.ID, actor, actorRole, model.RecordExtended, req, &extendUntil); err != nil {
		return err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return fmt.Errorf("failed to update debt request: %w", err)
	}
	if err := s.reminders.ResetSchedule(ctx, request.ID, extendUntil); err != nil {
		return fmt.Errorf("failed to reschedule reminder: %w", err)
	}

	details, _ := json.Marshal(map[string]interface{}{
		"request_no":   request.RequestNo,
		"extend_until": extendUntil.Format(time.RFC3339),
		"note":         req.Note,
	})
	entry := model.AuditLog{
		UserID:     &actor,
		Action:     model.ActionSetExtend,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNo,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *workflowService) writeRecord(ctx context.Context, requestID, actor uuid.UUID, actorRole, status string, req DecideDTO, extendUntil *time.Time) error {
	evidence := "[]"
	if len(req.EvidenceFiles) > 0 {
		raw, err := json.Marshal(req.EvidenceFiles)
		if err != nil {
			return fmt.Errorf("failed to encode evidence files: %w", err)
		}
		evidence = string(raw)
	}

	record := model.ApprovalRecord{
		RequestID:     requestID,
		ApproverID:    actor,
		ApprovalType:  actorRole,
		Status:        status,
		Note:          req.Note,
		EvidenceFiles: evidence,
	}
	if status == model.RecordDebtMarked {
		record.DebtAmount = req.DebtAmount
	}
	if status == model.RecordExtended {
		record.ExtendUntil = extendUntil
	}

	if err := s.records.Create(ctx, &record); err != nil {
		return fmt.Errorf("failed to write approval record: %w", err)
	}
	return nil
}

func (s *workflowService) ListPending(ctx context.Context, actorID, role string) ([]RequestResponse, error) {
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id: %w", err)
	}
	status, ok := model.PendingStatusForRole(role)
	if !ok {
		return nil, ErrRoleMismatch
	}

	query := repository.PendingQuery{Status: status, ActorID: actor}
	if role == model.RoleSupervisor {
		query.Unscoped = true
	} else {
		branchIDs, brandIDs, scopeErr := s.resolver.ScopesFor(ctx, actor, role)
		if scopeErr != nil {
			return nil, scopeErr
		}
		query.BranchIDs = branchIDs
		query.BrandIDs = brandIDs
	}

	requests, err := s.requests.ListPending(ctx, query)
	if err != nil {
		return nil, err
	}

	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result, nil
}

func (s *workflowService) GetRequest(ctx context.Context, id string) (RequestDetailResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestDetailResponse{}, fmt.Errorf("invalid request id: %w", err)
	}

	request, err := s.requests.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		return RequestDetailResponse{}, fmt.Errorf("debt request not found: %w", err)
	}

	records, err := s.records.ListByRequest(ctx, requestID)
	if err != nil {
		return RequestDetailResponse{}, err
	}

	detail := RequestDetailResponse{RequestResponse: toRequestResponse(*request)}
	for _, rec := range records {
		detail.Records = append(detail.Records, toRecordResponse(rec))
	}
	return detail, nil
}

func (s *workflowService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]RequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}
	return result, total, nil
}

func (s *workflowService) ReassignApprover(ctx context.Context, requestID, adminID string) (RequestResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", err)
	}
	admin, err := uuid.Parse(adminID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid admin id: %w", err)
	}

	var request *model.DebtRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		request, txErr = s.requests.FindByID(txCtx, id)
		if txErr != nil {
			return fmt.Errorf("debt request not found: %w", txErr)
		}
		if request.IsTerminal() {
			return ErrInvalidTransition
		}

		before := request.Status

		role := request.CurrentApproverType
		if request.Status == model.StatusDraft {
			role = model.RoleCashier
		}
		next, resolveErr := s.resolver.ResolveApprover(txCtx, role, request.BranchID, request.BrandID)
		if resolveErr != nil {
			return resolveErr
		}

		if request.Status == model.StatusDraft {
			request.Status = model.StatusPendingCashier
			request.CurrentApproverType = model.RoleCashier
		}
		request.CurrentApproverID = &next
		request.LockedBy = nil
		request.LockedAt = nil

		if updateErr := s.requests.Update(txCtx, request); updateErr != nil {
			return fmt.Errorf("failed to update debt request: %w", updateErr)
		}
		if remErr := s.reminders.ResetSchedule(txCtx, request.ID, s.now().Add(s.cfg.ReminderInterval)); remErr != nil {
			return fmt.Errorf("failed to reset reminder: %w", remErr)
		}

		return s.auditTransition(txCtx, &admin, model.ActionReassignStep, request, before, request.Status, "")
	})
	if err != nil {
		return RequestResponse{}, err
	}

	full, err := s.requests.FindByIDWithRelations(ctx, request.ID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("failed to reload debt request: %w", err)
	}

	s.events.Publish(notify.Event{
		Type:         notify.EventRequestUpdated,
		RequestID:    full.ID.String(),
		RequestNo:    full.RequestNo,
		Status:       full.Status,
		ApproverType: full.CurrentApproverType,
		ApproverID:   uuidPtrString(full.CurrentApproverID),
		ActorID:      admin.String(),
	})

	return toRequestResponse(*full), nil
}

// --- Chat surface ---

func (s *workflowService) sendPreviewMessage(request *model.DebtRequest) {
	chatID := ""
	if request.Brand != nil {
		chatID = request.Brand.LarkChatID
	}
	if chatID == "" {
		return
	}
	s.events.PublishChat(notify.ChatMessage{
		ChatID:       chatID,
		Content:      requestSummary(request),
		RequestID:    request.ID,
		HandleColumn: notify.HandlePreview,
	})
}

// sendStatusMessage edits the preview message in place when its handle is
// known; otherwise it falls back to a fresh send.
func (s *workflowService) sendStatusMessage(request *model.DebtRequest) {
	chatID := ""
	if request.Brand != nil {
		chatID = request.Brand.LarkChatID
	}
	if chatID == "" && request.PreviewMessageID == "" {
		return
	}
	s.events.PublishChat(notify.ChatMessage{
		ChatID:       chatID,
		MessageID:    request.PreviewMessageID,
		Content:      requestSummary(request),
		RequestID:    request.ID,
		HandleColumn: notify.HandlePreview,
	})
}

func requestSummary(request *model.DebtRequest) string {
	branch := request.BranchID.String()
	if request.Branch != nil {
		branch = request.Branch.Name
	}
	svr := request.SVRID.String()
	if request.SVR != nil {
		svr = request.SVR.Name
	}

	header := fmt.Sprintf("Debt report %s\n%s / %s\nAmount: %s %s",
		request.RequestNo, branch, svr, request.Amount.StringFixed(2), request.Currency)

	switch request.Status {
	case model.StatusApproved:
		return header + "\n✅ Approved"
	case model.StatusRejected:
		return header + "\n❌ Rejected"
	case model.StatusDebtMarked:
		return header + "\n⚠️ Marked as debt"
	case model.StatusDraft:
		return header + "\n⏳ Awaiting assignment"
	default:
		return header + fmt.Sprintf("\n⏳ Awaiting %s", request.CurrentApproverType)
	}
}

// --- Helpers ---

func (s *workflowService) auditTransition(ctx context.Context, actor *uuid.UUID, action string, request *model.DebtRequest, before, after, note string) error {
	details, _ := json.Marshal(map[string]interface{}{
		"request_no":    request.RequestNo,
		"before_status": before,
		"after_status":  after,
		"note":          note,
	})
	entry := model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNo,
		Details:    string(details),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func uuidPtrString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func toRequestResponse(r model.DebtRequest) RequestResponse {
	resp := RequestResponse{
		ID:                  r.ID.String(),
		RequestNo:           r.RequestNo,
		BrandID:             r.BrandID.String(),
		BranchID:            r.BranchID.String(),
		SVRID:               r.SVRID.String(),
		Amount:              r.Amount.StringFixed(2),
		Currency:            r.Currency,
		Note:                r.Note,
		Status:              r.Status,
		RequiresSupervisor:  r.RequiresSupervisor,
		CurrentApproverType: r.CurrentApproverType,
		SubmittedBy:         r.SubmittedBy.String(),
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Brand != nil {
		resp.BrandName = r.Brand.Name
	}
	if r.Branch != nil {
		resp.BranchName = r.Branch.Name
	}
	if r.SVR != nil {
		resp.SVRName = r.SVR.Name
	}
	if r.Submitter != nil {
		resp.SubmitterName = r.Submitter.Username
	}
	if r.CurrentApproverID != nil {
		v := r.CurrentApproverID.String()
		resp.CurrentApproverID = &v
	}
	if r.LockedBy != nil {
		v := r.LockedBy.String()
		resp.LockedBy = &v
	}
	if r.LockedAt != nil {
		v := r.LockedAt.Format(time.RFC3339)
		resp.LockedAt = &v
	}
	return resp
}

func toRecordResponse(rec model.ApprovalRecord) ApprovalRecordResponse {
	resp := ApprovalRecordResponse{
		ID:           rec.ID.String(),
		ApproverID:   rec.ApproverID.String(),
		ApprovalType: rec.ApprovalType,
		Status:       rec.Status,
		Note:         rec.Note,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Approver != nil {
		resp.ApproverName = rec.Approver.Username
	}
	if rec.DebtAmount != nil {
		v := rec.DebtAmount.StringFixed(2)
		resp.DebtAmount = &v
	}
	if rec.ExtendUntil != nil {
		v := rec.ExtendUntil.Format(time.RFC3339)
		resp.ExtendUntil = &v
	}
	return resp
}
