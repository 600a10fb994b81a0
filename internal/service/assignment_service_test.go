package service

import (
	"context"
	"testing"
	"time"

	"debtflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, users *fakeUserRepo, role string, createdAt time.Time) uuid.UUID {
	t.Helper()
	user := model.User{
		Username:  role + "-" + uuid.NewString()[:8],
		Email:     uuid.NewString()[:8] + "@example.com",
		Role:      role,
		CreatedAt: createdAt,
	}
	require.NoError(t, users.Create(context.Background(), &user))
	return user.ID
}

func TestResolveApprover_LowestAssignmentWins(t *testing.T) {
	assignments := &fakeAssignmentRepo{}
	users := newFakeUserRepo()
	svc := NewAssignmentService(assignments, users)

	branchID := uuid.New()
	first := seedUser(t, users, model.RoleCashier, time.Now())
	second := seedUser(t, users, model.RoleCashier, time.Now())

	_, err := svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
		Role: model.RoleCashier, UserID: first.String(), BranchID: branchID.String(),
	})
	require.NoError(t, err)
	_, err = svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
		Role: model.RoleCashier, UserID: second.String(), BranchID: branchID.String(),
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveApprover(context.Background(), model.RoleCashier, branchID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, first, resolved)

	// Deactivating the first assignment moves the addressee to the next one.
	require.NoError(t, svc.SetAssignmentActive(context.Background(), 1, false))
	resolved, err = svc.ResolveApprover(context.Background(), model.RoleCashier, branchID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, second, resolved)
}

func TestResolveApprover_NoActiveAssignment(t *testing.T) {
	svc := NewAssignmentService(&fakeAssignmentRepo{}, newFakeUserRepo())

	_, err := svc.ResolveApprover(context.Background(), model.RoleCashier, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrApproverUnresolved)
}

func TestResolveApprover_OperatorScopedByBrand(t *testing.T) {
	assignments := &fakeAssignmentRepo{}
	users := newFakeUserRepo()
	svc := NewAssignmentService(assignments, users)

	brandID := uuid.New()
	operator := seedUser(t, users, model.RoleOperator, time.Now())
	_, err := svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
		Role: model.RoleOperator, UserID: operator.String(), BrandID: brandID.String(),
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveApprover(context.Background(), model.RoleOperator, uuid.New(), brandID)
	require.NoError(t, err)
	assert.Equal(t, operator, resolved)

	_, err = svc.ResolveApprover(context.Background(), model.RoleOperator, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrApproverUnresolved)
}

func TestResolveApprover_OldestSupervisor(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAssignmentService(&fakeAssignmentRepo{}, users)

	younger := seedUser(t, users, model.RoleSupervisor, time.Now())
	older := seedUser(t, users, model.RoleSupervisor, time.Now().Add(-24*time.Hour))

	resolved, err := svc.ResolveApprover(context.Background(), model.RoleSupervisor, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, older, resolved)
	assert.NotEqual(t, younger, resolved)
}

func TestIsEligible_AnyActiveAssignee(t *testing.T) {
	assignments := &fakeAssignmentRepo{}
	users := newFakeUserRepo()
	svc := NewAssignmentService(assignments, users)

	branchID := uuid.New()
	first := seedUser(t, users, model.RoleCashier, time.Now())
	second := seedUser(t, users, model.RoleCashier, time.Now())
	for _, id := range []uuid.UUID{first, second} {
		_, err := svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
			Role: model.RoleCashier, UserID: id.String(), BranchID: branchID.String(),
		})
		require.NoError(t, err)
	}

	// Both assignees may act, not only the addressee.
	for _, id := range []uuid.UUID{first, second} {
		eligible, err := svc.IsEligible(context.Background(), id, model.RoleCashier, branchID, uuid.New())
		require.NoError(t, err)
		assert.True(t, eligible)
	}

	stranger := uuid.New()
	eligible, err := svc.IsEligible(context.Background(), stranger, model.RoleCashier, branchID, uuid.New())
	require.NoError(t, err)
	assert.False(t, eligible)

	// An inactive assignment drops eligibility.
	require.NoError(t, svc.SetAssignmentActive(context.Background(), 2, false))
	eligible, err = svc.IsEligible(context.Background(), second, model.RoleCashier, branchID, uuid.New())
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestCreateAssignment_Validation(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAssignmentService(&fakeAssignmentRepo{}, users)

	cashier := seedUser(t, users, model.RoleCashier, time.Now())
	operator := seedUser(t, users, model.RoleOperator, time.Now())

	// Role must match the user's account role.
	_, err := svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
		Role: model.RoleOperator, UserID: cashier.String(), BrandID: uuid.NewString(),
	})
	assert.ErrorContains(t, err, "cannot assign as")

	// Cashiers bind to a branch, operators to a brand.
	_, err = svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
		Role: model.RoleCashier, UserID: cashier.String(),
	})
	assert.ErrorContains(t, err, "require branch_id")

	_, err = svc.CreateAssignment(context.Background(), CreateAssignmentDTO{
		Role: model.RoleOperator, UserID: operator.String(),
	})
	assert.ErrorContains(t, err, "require brand_id")
}
