package service

import (
	"context"
	"fmt"
	"time"

	"debtflow/internal/model"
	"debtflow/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateAssignmentDTO struct {
	Role     string `json:"role" binding:"required,oneof=cashier operator leader"`
	UserID   string `json:"user_id" binding:"required"`
	BranchID string `json:"branch_id"`
	BrandID  string `json:"brand_id"`
}

type AssignmentResponse struct {
	ID       uint   `json:"id"`
	Role     string `json:"role"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	BranchID string `json:"branch_id,omitempty"`
	Branch   string `json:"branch,omitempty"`
	BrandID  string `json:"brand_id,omitempty"`
	Brand    string `json:"brand,omitempty"`
	IsActive bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// --- Interfaces ---

// AssignmentResolver answers "who acts for this role on this request". It is
// read-only with respect to the core workflow.
type AssignmentResolver interface {
	// ResolveApprover returns the user the request should be addressed to:
	// the active assignment with the lowest id. ErrApproverUnresolved when
	// none is active.
	ResolveApprover(ctx context.Context, role string, branchID, brandID uuid.UUID) (uuid.UUID, error)
	// IsEligible reports whether the user may act for the role on the given
	// scope. Any active assignee is eligible, not only the addressed one.
	IsEligible(ctx context.Context, userID uuid.UUID, role string, branchID, brandID uuid.UUID) (bool, error)
	// ScopesFor returns the branch/brand ids the user actively covers.
	ScopesFor(ctx context.Context, userID uuid.UUID, role string) (branchIDs, brandIDs []uuid.UUID, err error)
}

type AssignmentService interface {
	AssignmentResolver
	CreateAssignment(ctx context.Context, req CreateAssignmentDTO) (AssignmentResponse, error)
	ListAssignments(ctx context.Context, role string, page, limit int) ([]AssignmentResponse, int64, error)
	SetAssignmentActive(ctx context.Context, id uint, active bool) error
	DeleteAssignment(ctx context.Context, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	users       repository.UserRepository
}

func NewAssignmentService(assignments repository.AssignmentRepository, users repository.UserRepository) AssignmentService {
	return &assignmentService{assignments: assignments, users: users}
}

// --- Resolver ---

func (s *assignmentService) ResolveApprover(ctx context.Context, role string, branchID, brandID uuid.UUID) (uuid.UUID, error) {
	// Supervisors are not scoped to a branch or brand; the longest-standing
	// supervisor account is the addressee.
	if role == model.RoleSupervisor {
		supervisors, err := s.users.ListByRole(ctx, model.RoleSupervisor)
		if err != nil {
			return uuid.Nil, err
		}
		if len(supervisors) == 0 {
			return uuid.Nil, ErrApproverUnresolved
		}
		return supervisors[0].ID, nil
	}

	scopeBranch, scopeBrand, err := scopeForRole(role, branchID, brandID)
	if err != nil {
		return uuid.Nil, err
	}

	assignments, err := s.assignments.ActiveForScope(ctx, role, scopeBranch, scopeBrand)
	if err != nil {
		return uuid.Nil, err
	}
	if len(assignments) == 0 {
		return uuid.Nil, ErrApproverUnresolved
	}

	// ActiveForScope orders by id, so the first row is the deterministic pick.
	return assignments[0].UserID, nil
}

func (s *assignmentService) IsEligible(ctx context.Context, userID uuid.UUID, role string, branchID, brandID uuid.UUID) (bool, error) {
	if role == model.RoleSupervisor {
		user, err := s.users.GetByID(ctx, userID.String())
		if err != nil {
			return false, nil
		}
		return user.Role == model.RoleSupervisor, nil
	}

	scopeBranch, scopeBrand, err := scopeForRole(role, branchID, brandID)
	if err != nil {
		return false, err
	}

	assignments, err := s.assignments.ActiveForScope(ctx, role, scopeBranch, scopeBrand)
	if err != nil {
		return false, err
	}
	for _, a := range assignments {
		if a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *assignmentService) ScopesFor(ctx context.Context, userID uuid.UUID, role string) ([]uuid.UUID, []uuid.UUID, error) {
	return s.assignments.ScopesForUser(ctx, userID, role)
}

// scopeForRole maps a role to its assignment scope: cashiers bind to a
// branch, operators and leaders to a brand.
func scopeForRole(role string, branchID, brandID uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	switch role {
	case model.RoleCashier:
		return &branchID, nil, nil
	case model.RoleOperator, model.RoleLeader:
		return nil, &brandID, nil
	default:
		return nil, nil, fmt.Errorf("role %s has no assignment scope", role)
	}
}

// --- Admin operations (external to the workflow core) ---

func (s *assignmentService) CreateAssignment(ctx context.Context, req CreateAssignmentDTO) (AssignmentResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return AssignmentResponse{}, fmt.Errorf("invalid user_id: %w", err)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return AssignmentResponse{}, fmt.Errorf("user not found: %w", err)
	}
	if user.Role != req.Role {
		return AssignmentResponse{}, fmt.Errorf("user %s has role %s, cannot assign as %s", user.Username, user.Role, req.Role)
	}

	assignment := model.Assignment{
		Role:     req.Role,
		UserID:   userID,
		IsActive: true,
	}

	switch req.Role {
	case model.RoleCashier:
		if req.BranchID == "" {
			return AssignmentResponse{}, fmt.Errorf("cashier assignments require branch_id")
		}
		branchID, parseErr := uuid.Parse(req.BranchID)
		if parseErr != nil {
			return AssignmentResponse{}, fmt.Errorf("invalid branch_id: %w", parseErr)
		}
		assignment.BranchID = &branchID
	case model.RoleOperator, model.RoleLeader:
		if req.BrandID == "" {
			return AssignmentResponse{}, fmt.Errorf("%s assignments require brand_id", req.Role)
		}
		brandID, parseErr := uuid.Parse(req.BrandID)
		if parseErr != nil {
			return AssignmentResponse{}, fmt.Errorf("invalid brand_id: %w", parseErr)
		}
		assignment.BrandID = &brandID
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return AssignmentResponse{}, fmt.Errorf("failed to create assignment: %w", err)
	}

	created, err := s.assignments.FindByID(ctx, assignment.ID)
	if err != nil {
		return AssignmentResponse{}, fmt.Errorf("failed to reload assignment: %w", err)
	}

	return toAssignmentResponse(*created), nil
}

func (s *assignmentService) ListAssignments(ctx context.Context, role string, page, limit int) ([]AssignmentResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	assignments, total, err := s.assignments.List(ctx, role, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		result = append(result, toAssignmentResponse(a))
	}
	return result, total, nil
}

func (s *assignmentService) SetAssignmentActive(ctx context.Context, id uint, active bool) error {
	if _, err := s.assignments.FindByID(ctx, id); err != nil {
		return fmt.Errorf("assignment not found: %w", err)
	}
	return s.assignments.SetActive(ctx, id, active)
}

func (s *assignmentService) DeleteAssignment(ctx context.Context, id uint) error {
	return s.assignments.Delete(ctx, id)
}

// --- Helpers ---

func toAssignmentResponse(a model.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:        a.ID,
		Role:      a.Role,
		UserID:    a.UserID.String(),
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.User != nil {
		resp.Username = a.User.Username
	}
	if a.BranchID != nil {
		resp.BranchID = a.BranchID.String()
	}
	if a.Branch != nil {
		resp.Branch = a.Branch.Name
	}
	if a.BrandID != nil {
		resp.BrandID = a.BrandID.String()
	}
	if a.Brand != nil {
		resp.Brand = a.Brand.Name
	}
	return resp
}
