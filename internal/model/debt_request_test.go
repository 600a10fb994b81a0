package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStep(t *testing.T) {
	tests := []struct {
		name               string
		status             string
		requiresSupervisor bool
		wantStatus         string
		wantRole           string
		wantOK             bool
	}{
		{"draft to cashier", StatusDraft, false, StatusPendingCashier, RoleCashier, true},
		{"cashier to operator", StatusPendingCashier, false, StatusPendingOperator, RoleOperator, true},
		{"operator to leader", StatusPendingOperator, false, StatusPendingLeader, RoleLeader, true},
		{"operator to supervisor when flagged", StatusPendingOperator, true, StatusPendingSupervisor, RoleSupervisor, true},
		{"supervisor to leader", StatusPendingSupervisor, true, StatusPendingLeader, RoleLeader, true},
		{"leader completes the chain", StatusPendingLeader, false, StatusApproved, "", true},
		{"leader completes flagged chain", StatusPendingLeader, true, StatusApproved, "", true},
		{"approved has no next step", StatusApproved, false, "", "", false},
		{"rejected has no next step", StatusRejected, false, "", "", false},
		{"debt marked has no next step", StatusDebtMarked, true, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStatus, gotRole, ok := NextStep(tt.status, tt.requiresSupervisor)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, gotStatus)
			assert.Equal(t, tt.wantRole, gotRole)
		})
	}
}

func TestPendingStatusForRole(t *testing.T) {
	status, ok := PendingStatusForRole(RoleCashier)
	assert.True(t, ok)
	assert.Equal(t, StatusPendingCashier, status)

	status, ok = PendingStatusForRole(RoleSupervisor)
	assert.True(t, ok)
	assert.Equal(t, StatusPendingSupervisor, status)

	// Roles outside the approval chain have no pending status.
	for _, role := range []string{RoleManager, RoleAdmin, "unknown"} {
		_, ok = PendingStatusForRole(role)
		assert.False(t, ok, role)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{StatusApproved, StatusRejected, StatusDebtMarked} {
		assert.True(t, IsTerminalStatus(status), status)
	}
	for _, status := range []string{StatusDraft, StatusPendingCashier, StatusPendingOperator, StatusPendingSupervisor, StatusPendingLeader} {
		assert.False(t, IsTerminalStatus(status), status)
	}
}

func TestCanMarkDebt(t *testing.T) {
	assert.True(t, CanMarkDebt(RoleCashier))
	assert.True(t, CanMarkDebt(RoleOperator))
	assert.False(t, CanMarkDebt(RoleSupervisor))
	assert.False(t, CanMarkDebt(RoleLeader))
}

func TestReminderExhausted(t *testing.T) {
	r := Reminder{MaxReminders: 3}
	assert.False(t, r.Exhausted())

	r.ReminderCount = 2
	assert.False(t, r.Exhausted())

	r.ReminderCount = 3
	assert.True(t, r.Exhausted())

	r.ReminderCount = 4
	assert.True(t, r.Exhausted())
}
