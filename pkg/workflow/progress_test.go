package workflow

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forwardedEvent struct {
	sessionID string
	payload   []byte
}

type recordingSink struct {
	mu  sync.Mutex
	got chan forwardedEvent
}

func (s *recordingSink) PublishProgress(_ context.Context, sessionID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got <- forwardedEvent{sessionID: sessionID, payload: payload}
	return nil
}

func TestForwardProgressBridgesBusToSink(t *testing.T) {
	bus := NewProgressBus()
	defer bus.Close()

	msgs, err := bus.Subscribe(context.Background(), "progress")
	require.NoError(t, err)

	sink := &recordingSink{got: make(chan forwardedEvent, 8)}
	go ForwardProgress(msgs, sink, noopLogger{})

	emitter := NewWatermillEmitter(bus, "progress", noopLogger{})
	emitter.Emit(ProgressEvent{
		SessionID: "session-9",
		Stage:     StageIntake,
		Status:    "started",
		At:        time.Now(),
	})

	select {
	case got := <-sink.got:
		assert.Equal(t, "session-9", got.sessionID)
		var ev ProgressEvent
		require.NoError(t, json.Unmarshal(got.payload, &ev))
		assert.Equal(t, StageIntake, ev.Stage)
		assert.Equal(t, "started", ev.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("progress event never reached the sink")
	}
}
