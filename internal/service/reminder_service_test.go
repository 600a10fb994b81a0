package service

import (
	"context"
	"testing"
	"time"

	"debtflow/internal/config"
	"debtflow/internal/model"
	"debtflow/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reminderFixture struct {
	svc        *reminderService
	requests   *fakeRequestRepo
	reminders  *fakeReminderRepo
	audit      *fakeAuditRepo
	org        *fakeOrgRepo
	dispatcher *fakeDispatcher

	cashier uuid.UUID
	request uuid.UUID
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	f := &reminderFixture{
		requests:   newFakeRequestRepo(),
		audit:      &fakeAuditRepo{},
		org:        newFakeOrgRepo(),
		dispatcher: &fakeDispatcher{},
		cashier:    uuid.New(),
	}
	f.reminders = newFakeReminderRepo(f.requests)
	f.requests.org = f.org

	brand := model.Brand{Name: "Acme", LarkChatID: "oc_brand_chat"}
	require.NoError(t, f.org.CreateBrand(context.Background(), &brand))

	cfg := config.WorkflowConfig{
		ReminderInterval: 30 * time.Minute,
		ReminderMaxCount: 2,
	}
	lark := config.LarkConfig{SupervisorChatID: "oc_supervisor_chat"}

	svc := NewReminderService(f.reminders, f.requests, f.audit, fakeTxManager{}, f.dispatcher, cfg, lark, zap.NewNop())
	f.svc = svc.(*reminderService)

	req := model.DebtRequest{
		RequestNo:           "DR-20260831-00001",
		BrandID:             brand.ID,
		BranchID:            uuid.New(),
		SVRID:               uuid.New(),
		Status:              model.StatusPendingCashier,
		CurrentApproverType: model.RoleCashier,
		CurrentApproverID:   &f.cashier,
		SubmittedBy:         uuid.New(),
	}
	require.NoError(t, f.requests.Create(context.Background(), &req))
	f.request = req.ID

	reminder := model.Reminder{
		RequestID:      req.ID,
		MaxReminders:   2,
		NextReminderAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.reminders.Create(context.Background(), &reminder))
	return f
}

func TestSweep_RemindsAndReschedules(t *testing.T) {
	f := newReminderFixture(t)

	result, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Reminded)
	assert.Zero(t, result.Escalated)
	assert.False(t, result.Skipped)

	reminder, err := f.reminders.FindByRequest(context.Background(), f.request)
	require.NoError(t, err)
	assert.Equal(t, 1, reminder.ReminderCount)
	assert.NotNil(t, reminder.LastReminderAt)
	assert.True(t, reminder.NextReminderAt.After(time.Now()))

	assert.Contains(t, f.audit.actions(), model.ActionReminderSent)
	assert.Contains(t, f.dispatcher.eventTypes(), notify.EventReminderSent)

	require.Len(t, f.dispatcher.chats, 1)
	assert.Equal(t, "oc_brand_chat", f.dispatcher.chats[0].ChatID)
	assert.Contains(t, f.dispatcher.chats[0].Content, "reminder 1/2")
}

func TestSweep_NotDueYet(t *testing.T) {
	f := newReminderFixture(t)
	require.NoError(t, f.reminders.ResetSchedule(context.Background(), f.request, time.Now().Add(time.Hour)))

	result, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Reminded)
	assert.Zero(t, result.Escalated)
}

func TestSweep_EscalatesOnceWhenExhausted(t *testing.T) {
	f := newReminderFixture(t)

	reminder, err := f.reminders.FindByRequest(context.Background(), f.request)
	require.NoError(t, err)
	reminder.ReminderCount = reminder.MaxReminders
	reminder.NextReminderAt = time.Now().Add(-time.Minute)
	require.NoError(t, f.reminders.Update(context.Background(), reminder))

	result, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Reminded)
	assert.Equal(t, 1, result.Escalated)

	reminder, err = f.reminders.FindByRequest(context.Background(), f.request)
	require.NoError(t, err)
	assert.True(t, reminder.Escalated)

	assert.Contains(t, f.audit.actions(), model.ActionEscalationRaised)
	assert.Contains(t, f.dispatcher.eventTypes(), notify.EventEscalationRaised)

	require.Len(t, f.dispatcher.chats, 1)
	assert.Equal(t, "oc_supervisor_chat", f.dispatcher.chats[0].ChatID)

	// The escalated reminder never fires again.
	result, err = f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Reminded)
	assert.Zero(t, result.Escalated)
	assert.Len(t, f.dispatcher.chats, 1)
}

func TestSweep_SkippedWhenAnotherInstanceHoldsLock(t *testing.T) {
	f := newReminderFixture(t)
	f.reminders.sweepLock = false

	result, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, result.Reminded)
	assert.Empty(t, f.dispatcher.events)
}

func TestSweep_IgnoresSettledRequests(t *testing.T) {
	f := newReminderFixture(t)

	req, err := f.requests.FindByID(context.Background(), f.request)
	require.NoError(t, err)
	req.Status = model.StatusApproved
	require.NoError(t, f.requests.Update(context.Background(), req))

	result, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Reminded)
	assert.Zero(t, result.Escalated)
}

func TestSweep_StepAdvanceResetsBudget(t *testing.T) {
	f := newReminderFixture(t)

	// Two sweeps spend the budget.
	for i := 0; i < 2; i++ {
		reminder, err := f.reminders.FindByRequest(context.Background(), f.request)
		require.NoError(t, err)
		reminder.NextReminderAt = time.Now().Add(-time.Minute)
		require.NoError(t, f.reminders.Update(context.Background(), reminder))

		result, sweepErr := f.svc.Sweep(context.Background())
		require.NoError(t, sweepErr)
		require.Equal(t, 1, result.Reminded)
	}

	// A step advance resets the clock, so the next sweep nudges again
	// instead of escalating.
	require.NoError(t, f.reminders.ResetSchedule(context.Background(), f.request, time.Now().Add(-time.Minute)))

	result, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Reminded)
	assert.Zero(t, result.Escalated)

	reminder, err := f.reminders.FindByRequest(context.Background(), f.request)
	require.NoError(t, err)
	assert.Equal(t, 1, reminder.ReminderCount)
}
