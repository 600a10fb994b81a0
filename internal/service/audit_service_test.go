package service

import (
	"context"
	"testing"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditList_FiltersByAction(t *testing.T) {
	audit := &fakeAuditRepo{}
	svc := NewAuditService(audit, &fakeRenameRepo{})

	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{Action: model.ActionCreateRequest, EntityID: uuid.NewString()}))
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{Action: model.ActionApproveStep, EntityID: uuid.NewString()}))

	entries, total, err := svc.List(context.Background(), model.ActionApproveStep, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionApproveStep, entries[0].Action)
}

func TestAuditAnnotate_RenamedEntityKeepsHistoricalName(t *testing.T) {
	audit := &fakeAuditRepo{}
	renames := &fakeRenameRepo{}
	svc := NewAuditService(audit, renames)

	brandID := uuid.New()
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Action:     model.ActionRenameEntity,
		EntityID:   brandID.String(),
		EntityName: "Acme Holdings",
		Details:    `{"entity_type":"brand","old_name":"Acme","new_name":"Acme Holdings"}`,
	}))

	// A later rename changes the entity's current name; the entry itself
	// keeps the name it was written with.
	require.NoError(t, renames.Create(context.Background(), &model.EntityRename{
		EntityType: model.EntityBrand, EntityID: brandID, OldName: "Acme", NewName: "Acme Holdings",
	}))
	require.NoError(t, renames.Create(context.Background(), &model.EntityRename{
		EntityType: model.EntityBrand, EntityID: brandID, OldName: "Acme Holdings", NewName: "Acme Global",
	}))

	entries, err := svc.ListByEntity(context.Background(), brandID.String())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Holdings", entries[0].EntityName)
	assert.Equal(t, "Acme Global", entries[0].CurrentName)
}

func TestAuditAnnotate_NoCurrentNameWhenUnrenamed(t *testing.T) {
	audit := &fakeAuditRepo{}
	svc := NewAuditService(audit, &fakeRenameRepo{})

	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Action:     model.ActionCreateRequest,
		EntityID:   uuid.NewString(),
		EntityName: "DR-20260831-00001",
	}))

	entries, _, err := svc.List(context.Background(), "", 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].CurrentName)
}
