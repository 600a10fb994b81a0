package worker

import (
	"context"
	"sync"
	"time"

	"debtflow/internal/service"

	"go.uber.org/zap"
)

const defaultLockSweepTick = time.Minute

// LockSweeper reclaims review locks whose holder disappeared so a crashed
// approver session never strands a request.
type LockSweeper struct {
	locks  service.LockService
	every  time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLockSweeper(locks service.LockService, every time.Duration, logger *zap.Logger) *LockSweeper {
	if every <= 0 {
		every = defaultLockSweepTick
	}
	return &LockSweeper{
		locks:  locks,
		every:  every,
		logger: logger,
	}
}

func (w *LockSweeper) Name() string { return "lock-sweeper" }

func (w *LockSweeper) Start(ctx context.Context) error {
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

func (w *LockSweeper) Stop() error {
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

func (w *LockSweeper) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recovered, err := w.locks.SweepExpired(ctx)
			if err != nil {
				w.logger.Error("lock sweep failed", zap.Error(err))
				continue
			}
			if recovered > 0 {
				w.logger.Info("lock sweep complete", zap.Int("recovered", recovered))
			}
		}
	}
}
