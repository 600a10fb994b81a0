package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"debtflow/internal/model"
	"debtflow/internal/repository"

	"github.com/google/uuid"
)

// DTOs for the org catalog

type CreateBrandRequest struct {
	Name       string `json:"name" binding:"required"`
	LarkChatID string `json:"lark_chat_id"`
}

type CreateBranchRequest struct {
	Name    string `json:"name" binding:"required"`
	BrandID string `json:"brand_id" binding:"required"`
}

type CreateSVRRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	BranchID string `json:"branch_id" binding:"required"`
}

type RenameRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// OrgService manages the brand/branch/SVR catalog the debt requests hang
// off. Renames append to history instead of rewriting past records.
type OrgService interface {
	CreateBrand(ctx context.Context, req CreateBrandRequest) (*model.Brand, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	CreateBranch(ctx context.Context, req CreateBranchRequest) (*model.Branch, error)
	ListBranches(ctx context.Context, brandID string) ([]model.Branch, error)
	CreateSVR(ctx context.Context, req CreateSVRRequest) (*model.SVR, error)
	ListSVRs(ctx context.Context, branchID string) ([]model.SVR, error)
	Rename(ctx context.Context, entityType, entityID, newName, actorID string) error
	RenameHistory(ctx context.Context, entityType, entityID string) ([]model.EntityRename, error)
}

type orgService struct {
	org       repository.OrgRepository
	renames   repository.RenameRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
}

func NewOrgService(
	org repository.OrgRepository,
	renames repository.RenameRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
) OrgService {
	return &orgService{org: org, renames: renames, audit: audit, txManager: txManager}
}

func (s *orgService) CreateBrand(ctx context.Context, req CreateBrandRequest) (*model.Brand, error) {
	brand := &model.Brand{Name: req.Name, LarkChatID: req.LarkChatID}
	if err := s.org.CreateBrand(ctx, brand); err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return brand, nil
}

func (s *orgService) ListBrands(ctx context.Context) ([]model.Brand, error) {
	return s.org.ListBrands(ctx)
}

func (s *orgService) CreateBranch(ctx context.Context, req CreateBranchRequest) (*model.Branch, error) {
	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		return nil, fmt.Errorf("invalid brand_id: %w", err)
	}
	if _, err := s.org.FindBrand(ctx, brandID); err != nil {
		return nil, fmt.Errorf("brand not found: %w", err)
	}

	branch := &model.Branch{Name: req.Name, BrandID: brandID}
	if err := s.org.CreateBranch(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}
	return branch, nil
}

func (s *orgService) ListBranches(ctx context.Context, brandID string) ([]model.Branch, error) {
	return s.org.ListBranches(ctx, brandID)
}

func (s *orgService) CreateSVR(ctx context.Context, req CreateSVRRequest) (*model.SVR, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("invalid branch_id: %w", err)
	}
	branch, err := s.org.FindBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("branch not found: %w", err)
	}

	svr := &model.SVR{
		Name:     req.Name,
		Code:     req.Code,
		BranchID: branchID,
		BrandID:  branch.BrandID,
	}
	if err := s.org.CreateSVR(ctx, svr); err != nil {
		return nil, fmt.Errorf("failed to create svr: %w", err)
	}
	return svr, nil
}

func (s *orgService) ListSVRs(ctx context.Context, branchID string) ([]model.SVR, error) {
	return s.org.ListSVRs(ctx, branchID)
}

// Rename updates the catalog entry and appends the change to the rename
// history in one transaction, so history and catalog never disagree.
func (s *orgService) Rename(ctx context.Context, entityType, entityID, newName, actorID string) error {
	id, err := uuid.Parse(entityID)
	if err != nil {
		return fmt.Errorf("invalid entity id: %w", err)
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		oldName, renameErr := s.applyRename(txCtx, entityType, id, newName)
		if renameErr != nil {
			return renameErr
		}
		if oldName == newName {
			return nil
		}

		record := model.EntityRename{
			EntityType: entityType,
			EntityID:   id,
			OldName:    oldName,
			NewName:    newName,
			RenamedBy:  &actor,
		}
		if createErr := s.renames.Create(txCtx, &record); createErr != nil {
			return fmt.Errorf("failed to record rename: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"entity_type": entityType,
			"old_name":    oldName,
			"new_name":    newName,
		})
		entry := model.AuditLog{
			UserID:     &actor,
			Action:     model.ActionRenameEntity,
			EntityID:   id.String(),
			EntityName: newName,
			Details:    string(details),
		}
		if auditErr := s.audit.Log(txCtx, &entry); auditErr != nil {
			return fmt.Errorf("failed to audit rename: %w", auditErr)
		}
		return nil
	})
}

func (s *orgService) applyRename(ctx context.Context, entityType string, id uuid.UUID, newName string) (string, error) {
	switch entityType {
	case model.EntityBrand:
		brand, err := s.org.FindBrand(ctx, id)
		if err != nil {
			return "", fmt.Errorf("brand not found: %w", err)
		}
		oldName := brand.Name
		brand.Name = newName
		if err := s.org.UpdateBrand(ctx, brand); err != nil {
			return "", fmt.Errorf("failed to update brand: %w", err)
		}
		return oldName, nil
	case model.EntityBranch:
		branch, err := s.org.FindBranch(ctx, id)
		if err != nil {
			return "", fmt.Errorf("branch not found: %w", err)
		}
		oldName := branch.Name
		branch.Name = newName
		if err := s.org.UpdateBranch(ctx, branch); err != nil {
			return "", fmt.Errorf("failed to update branch: %w", err)
		}
		return oldName, nil
	case model.EntitySVR:
		svr, err := s.org.FindSVR(ctx, id)
		if err != nil {
			return "", fmt.Errorf("svr not found: %w", err)
		}
		oldName := svr.Name
		svr.Name = newName
		if err := s.org.UpdateSVR(ctx, svr); err != nil {
			return "", fmt.Errorf("failed to update svr: %w", err)
		}
		return oldName, nil
	default:
		return "", errors.New("unknown entity type: must be brand, branch, or svr")
	}
}

func (s *orgService) RenameHistory(ctx context.Context, entityType, entityID string) ([]model.EntityRename, error) {
	id, err := uuid.Parse(entityID)
	if err != nil {
		return nil, fmt.Errorf("invalid entity id: %w", err)
	}
	return s.renames.ListByEntity(ctx, entityType, id)
}
