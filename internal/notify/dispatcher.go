package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message handle columns on the request row. A fresh send records its
// message id under one of these so later transitions edit the same message.
const (
	HandlePreview = "preview_message_id"
	HandleFinal   = "final_message_id"
)

// Sink receives realtime payloads keyed by topic. The websocket hub
// implements it.
type Sink interface {
	Publish(topic string, payload []byte)
}

// Messenger is the chat surface. Implementations must be safe for
// concurrent use.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, content string) (messageID string, err error)
	EditMessage(ctx context.Context, messageID, content string) error
}

// HandleStore records chat message handles against the request row.
type HandleStore interface {
	SetMessageHandle(ctx context.Context, id uuid.UUID, column, messageID string) error
}

// ChatMessage is one outbound unit for the chat surface. When MessageID is
// set the existing message is edited in place; otherwise a new message is
// sent and its id recorded under HandleColumn.
type ChatMessage struct {
	ChatID       string
	MessageID    string
	Content      string
	RequestID    uuid.UUID
	HandleColumn string
}

type queued struct {
	msg      ChatMessage
	attempts int
}

// Dispatcher fans state-change events out to the realtime hub and the chat
// surface. Hub delivery is synchronous and cheap; chat delivery goes through
// a queue drained by Start so a slow or failing chat API can never block or
// fail the transition that produced the event.
type Dispatcher struct {
	hub       Sink
	messenger Messenger
	handles   HandleStore
	logger    *zap.Logger

	queue       chan queued
	maxAttempts int
	baseBackoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher creates a dispatcher. messenger may be nil, in which case
// chat messages are dropped with a debug log (realtime fan-out still works).
func NewDispatcher(hub Sink, messenger Messenger, handles HandleStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		hub:         hub,
		messenger:   messenger,
		handles:     handles,
		logger:      logger,
		queue:       make(chan queued, 256),
		maxAttempts: 5,
		baseBackoff: time.Second,
	}
}

// Publish fans an event out to its realtime topics. It never fails: events
// are advisory and the state of record already committed.
func (d *Dispatcher) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	for _, topic := range event.Topics() {
		d.hub.Publish(topic, payload)
	}
}

// PublishChat enqueues a chat message for delivery. Non-blocking: when the
// queue is full the message is dropped and logged, never propagated back to
// the caller.
func (d *Dispatcher) PublishChat(msg ChatMessage) {
	if d.messenger == nil {
		d.logger.Debug("chat surface disabled, dropping message", zap.String("chat_id", msg.ChatID))
		return
	}
	select {
	case d.queue <- queued{msg: msg}:
	default:
		d.logger.Warn("chat queue full, dropping message",
			zap.String("chat_id", msg.ChatID),
			zap.String("request_id", msg.RequestID.String()))
	}
}

// Name implements worker.Worker.
func (d *Dispatcher) Name() string { return "notification-dispatcher" }

// Start launches the outbound drain loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return nil
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	go d.run(ctx)
	return nil
}

// Stop halts the drain loop. Queued messages not yet delivered are dropped;
// delivery is at-least-once only while the process lives.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-d.queue:
			d.deliverWithRetry(ctx, item)
		}
	}
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, item queued) {
	for {
		err := d.deliver(ctx, item.msg)
		if err == nil {
			return
		}
		item.attempts++
		if item.attempts >= d.maxAttempts {
			d.logger.Error("chat delivery failed permanently",
				zap.String("chat_id", item.msg.ChatID),
				zap.String("request_id", item.msg.RequestID.String()),
				zap.Int("attempts", item.attempts),
				zap.Error(err))
			return
		}

		backoff := d.baseBackoff << (item.attempts - 1)
		d.logger.Warn("chat delivery failed, retrying",
			zap.String("chat_id", item.msg.ChatID),
			zap.Int("attempt", item.attempts),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg ChatMessage) error {
	if msg.MessageID != "" {
		return d.messenger.EditMessage(ctx, msg.MessageID, msg.Content)
	}

	messageID, err := d.messenger.SendMessage(ctx, msg.ChatID, msg.Content)
	if err != nil {
		return err
	}

	if msg.HandleColumn != "" && msg.RequestID != uuid.Nil && d.handles != nil {
		if err := d.handles.SetMessageHandle(ctx, msg.RequestID, msg.HandleColumn, messageID); err != nil {
			// The message went out; losing the handle only costs us the
			// in-place edit later.
			d.logger.Warn("failed to record message handle",
				zap.String("request_id", msg.RequestID.String()),
				zap.String("column", msg.HandleColumn),
				zap.Error(err))
		}
	}
	return nil
}
