package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"ai-companion-be/internal/pkg/logger"
)

// ProgressEvent reports one stage transition of a run.
type ProgressEvent struct {
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Emitter publishes progress events. Emission is fire-and-forget: a lost
// event never slows or fails the run.
type Emitter interface {
	Emit(ev ProgressEvent)
}

// NewProgressBus builds the in-process pub/sub progress events travel on.
// Subscribers attach per session topic to stream progress to clients.
func NewProgressBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NopLogger{})
}

// WatermillEmitter publishes progress events to a watermill topic.
type WatermillEmitter struct {
	pub   message.Publisher
	topic string
	log   logger.ILogger
}

func NewWatermillEmitter(pub message.Publisher, topic string, log logger.ILogger) *WatermillEmitter {
	return &WatermillEmitter{pub: pub, topic: topic, log: log}
}

func (e *WatermillEmitter) Emit(ev ProgressEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.Metadata.Set("session_id", ev.SessionID)
	if err := e.pub.Publish(e.topic, msg); err != nil {
		e.log.Warn("workflow", "progress publish failed", map[string]interface{}{
			"session_id": ev.SessionID, "stage": ev.Stage, "error": err.Error(),
		})
	}
}

// ProgressSink mirrors progress events onto an external bus so clients
// outside the process can follow a run.
type ProgressSink interface {
	PublishProgress(ctx context.Context, sessionID string, payload []byte) error
}

// ForwardProgress drains a progress subscription into the sink. Delivery is
// best effort; a sink failure drops the event and keeps draining. Runs until
// the subscription channel closes.
func ForwardProgress(msgs <-chan *message.Message, sink ProgressSink, log logger.ILogger) {
	for msg := range msgs {
		sessionID := msg.Metadata.Get("session_id")
		if err := sink.PublishProgress(context.Background(), sessionID, msg.Payload); err != nil {
			log.Warn("workflow", "progress forward failed", map[string]interface{}{
				"session_id": sessionID, "error": err.Error(),
			})
		}
		msg.Ack()
	}
}
