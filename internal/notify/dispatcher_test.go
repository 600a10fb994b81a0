package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySink struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func newMemorySink() *memorySink {
	return &memorySink{payloads: make(map[string][][]byte)}
}

func (s *memorySink) Publish(topic string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[topic] = append(s.payloads[topic], payload)
}

func (s *memorySink) count(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads[topic])
}

type stubMessenger struct {
	mu        sync.Mutex
	sent      []ChatMessage
	edited    []ChatMessage
	failures  int
	delivered chan struct{}
}

func newStubMessenger(buffer int) *stubMessenger {
	return &stubMessenger{delivered: make(chan struct{}, buffer)}
}

func (m *stubMessenger) SendMessage(ctx context.Context, chatID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return "", errors.New("chat api unavailable")
	}
	m.sent = append(m.sent, ChatMessage{ChatID: chatID, Content: content})
	m.delivered <- struct{}{}
	return "om_" + uuid.NewString()[:8], nil
}

func (m *stubMessenger) EditMessage(ctx context.Context, messageID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, ChatMessage{MessageID: messageID, Content: content})
	m.delivered <- struct{}{}
	return nil
}

type stubHandleStore struct {
	mu      sync.Mutex
	handles map[uuid.UUID]map[string]string
}

func newStubHandleStore() *stubHandleStore {
	return &stubHandleStore{handles: make(map[uuid.UUID]map[string]string)}
}

func (s *stubHandleStore) SetMessageHandle(ctx context.Context, id uuid.UUID, column, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handles[id] == nil {
		s.handles[id] = make(map[string]string)
	}
	s.handles[id][column] = messageID
	return nil
}

func (s *stubHandleStore) get(id uuid.UUID, column string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[id][column]
}

func awaitDelivery(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chat delivery")
	}
}

func TestPublish_FansOutToTopics(t *testing.T) {
	sink := newMemorySink()
	d := NewDispatcher(sink, nil, nil, zap.NewNop())

	requestID := uuid.NewString()
	d.Publish(Event{Type: EventRequestUpdated, RequestID: requestID, Status: "PENDING_OPERATOR"})

	assert.Equal(t, 1, sink.count(TopicDashboard))
	assert.Equal(t, 1, sink.count(RequestTopic(requestID)))
}

func TestPublish_NoRequestTopicWithoutID(t *testing.T) {
	sink := newMemorySink()
	d := NewDispatcher(sink, nil, nil, zap.NewNop())

	d.Publish(Event{Type: EventReminderSent})

	assert.Equal(t, 1, sink.count(TopicDashboard))
	assert.Len(t, sink.payloads, 1)
}

func TestPublishChat_SendRecordsHandle(t *testing.T) {
	sink := newMemorySink()
	messenger := newStubMessenger(4)
	handles := newStubHandleStore()
	d := NewDispatcher(sink, messenger, handles, zap.NewNop())
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	requestID := uuid.New()
	d.PublishChat(ChatMessage{
		ChatID:       "oc_chat",
		Content:      "preview",
		RequestID:    requestID,
		HandleColumn: HandlePreview,
	})
	awaitDelivery(t, messenger.delivered)

	messenger.mu.Lock()
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "oc_chat", messenger.sent[0].ChatID)
	messenger.mu.Unlock()

	assert.NotEmpty(t, handles.get(requestID, HandlePreview))
}

func TestPublishChat_EditWhenHandleKnown(t *testing.T) {
	sink := newMemorySink()
	messenger := newStubMessenger(4)
	d := NewDispatcher(sink, messenger, newStubHandleStore(), zap.NewNop())
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	d.PublishChat(ChatMessage{
		MessageID: "om_existing",
		Content:   "updated status",
		RequestID: uuid.New(),
	})
	awaitDelivery(t, messenger.delivered)

	messenger.mu.Lock()
	defer messenger.mu.Unlock()
	assert.Empty(t, messenger.sent)
	require.Len(t, messenger.edited, 1)
	assert.Equal(t, "om_existing", messenger.edited[0].MessageID)
}

func TestPublishChat_RetriesTransientFailure(t *testing.T) {
	sink := newMemorySink()
	messenger := newStubMessenger(4)
	messenger.failures = 2
	d := NewDispatcher(sink, messenger, newStubHandleStore(), zap.NewNop())
	d.baseBackoff = time.Millisecond
	require.NoError(t, d.Start(context.Background()))
	defer d.Stop()

	d.PublishChat(ChatMessage{ChatID: "oc_chat", Content: "nudge", RequestID: uuid.New()})
	awaitDelivery(t, messenger.delivered)

	messenger.mu.Lock()
	defer messenger.mu.Unlock()
	require.Len(t, messenger.sent, 1)
}

func TestPublishChat_NilMessengerDrops(t *testing.T) {
	sink := newMemorySink()
	d := NewDispatcher(sink, nil, nil, zap.NewNop())

	// Must not panic or block even without Start.
	d.PublishChat(ChatMessage{ChatID: "oc_chat", Content: "ignored"})
}

func TestStop_Idempotent(t *testing.T) {
	d := NewDispatcher(newMemorySink(), nil, nil, zap.NewNop())
	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())
}
