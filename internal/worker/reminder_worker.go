package worker

import (
	"context"
	"sync"
	"time"

	"debtflow/internal/service"

	"go.uber.org/zap"
)

const defaultReminderTick = time.Minute

// ReminderWorker ticks the reminder sweep. The sweep itself decides which
// requests are overdue; the worker only supplies the clock.
type ReminderWorker struct {
	reminders service.ReminderService
	every     time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReminderWorker(reminders service.ReminderService, every time.Duration, logger *zap.Logger) *ReminderWorker {
	if every <= 0 {
		every = defaultReminderTick
	}
	return &ReminderWorker{
		reminders: reminders,
		every:     every,
		logger:    logger,
	}
}

func (w *ReminderWorker) Name() string { return "reminder-sweeper" }

func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go w.run(ctx)
	return nil
}

func (w *ReminderWorker) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (w *ReminderWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := w.reminders.Sweep(ctx)
			if err != nil {
				w.logger.Error("reminder sweep failed", zap.Error(err))
				continue
			}
			if result.Skipped {
				continue
			}
			if result.Reminded > 0 || result.Escalated > 0 {
				w.logger.Info("reminder sweep complete",
					zap.Int("reminded", result.Reminded),
					zap.Int("escalated", result.Escalated))
			}
		}
	}
}
