package service

import (
	"context"
	"encoding/json"
	"time"

	"debtflow/internal/model"
	"debtflow/internal/repository"

	"github.com/google/uuid"
)

type AuditEntryResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	// CurrentName carries the entity's present-day name when it was renamed
	// after the entry was written. The entry itself stays as recorded.
	CurrentName string          `json:"current_name,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// AuditService reads the append-only audit trail. Entries are never mutated;
// renamed catalog entities are annotated with their current name instead.
type AuditService interface {
	List(ctx context.Context, action string, page, limit int) ([]AuditEntryResponse, int64, error)
	ListByEntity(ctx context.Context, entityID string) ([]AuditEntryResponse, error)
}

type auditService struct {
	audit   repository.AuditRepository
	renames repository.RenameRepository
}

func NewAuditService(audit repository.AuditRepository, renames repository.RenameRepository) AuditService {
	return &auditService{audit: audit, renames: renames}
}

func (s *auditService) List(ctx context.Context, action string, page, limit int) ([]AuditEntryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.audit.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]AuditEntryResponse, 0, len(logs))
	for _, entry := range logs {
		result = append(result, s.annotate(ctx, entry))
	}
	return result, total, nil
}

func (s *auditService) ListByEntity(ctx context.Context, entityID string) ([]AuditEntryResponse, error) {
	logs, err := s.audit.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}

	result := make([]AuditEntryResponse, 0, len(logs))
	for _, entry := range logs {
		result = append(result, s.annotate(ctx, entry))
	}
	return result, nil
}

func (s *auditService) annotate(ctx context.Context, entry model.AuditLog) AuditEntryResponse {
	resp := AuditEntryResponse{
		ID:         entry.ID.String(),
		Action:     entry.Action,
		EntityID:   entry.EntityID,
		EntityName: entry.EntityName,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.UserID != nil {
		resp.UserID = entry.UserID.String()
	}
	if entry.User != nil {
		resp.Username = entry.User.Username
	}
	if entry.Details != "" {
		resp.Details = json.RawMessage(entry.Details)
	}

	// Catalog entries may refer to an entity renamed since; surface the
	// current name alongside the historical one.
	if entry.Action == model.ActionRenameEntity {
		var details struct {
			EntityType string `json:"entity_type"`
		}
		if err := json.Unmarshal([]byte(entry.Details), &details); err == nil && details.EntityType != "" {
			if id, parseErr := uuid.Parse(entry.EntityID); parseErr == nil {
				if current, nameErr := s.renames.LatestName(ctx, details.EntityType, id); nameErr == nil && current != "" && current != entry.EntityName {
					resp.CurrentName = current
				}
			}
		}
	}
	return resp
}
