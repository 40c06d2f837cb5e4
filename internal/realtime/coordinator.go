package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riverdesk/riverdesk-chat/internal/models"
	"go.uber.org/zap"
)

// Coordinator binds channel message streams to the notification bus. On the
// write side it is the chat services' event sink, translating mutations
// into bus events; on the read side it turns the bus's raw per-topic
// payloads into a typed per-channel feed.
type Coordinator struct {
	bus    Bus
	logger *zap.Logger
}

func NewCoordinator(bus Bus, logger *zap.Logger) *Coordinator {
	return &Coordinator{bus: bus, logger: logger}
}

// Handle is a live feed subscription. Unsubscribe is idempotent and safe to
// call from overlapping teardown paths.
type Handle struct {
	sub  BusSubscription
	once sync.Once
}

func (h *Handle) Unsubscribe() {
	h.once.Do(func() {
		h.sub.Close()
	})
}

// Subscribe delivers every message change in the channel to onEvent as it
// arrives. A failure to establish the subscription surfaces here; transport
// drops afterwards are recovered by the bus without onEvent noticing.
// Malformed payloads are dropped, not delivered.
func (c *Coordinator) Subscribe(ctx context.Context, channelID uuid.UUID, onEvent func(Event)) (*Handle, error) {
	topic := MessageTopic(channelID)
	sub, err := c.bus.Subscribe(ctx, topic, func(payload []byte) {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.logger.Warn("dropping malformed feed event",
				zap.String("topic", topic),
				zap.Error(err),
			)
			return
		}
		onEvent(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe channel feed: %w", err)
	}
	return &Handle{sub: sub}, nil
}

// Unsubscribe tears down a handle. Nil handles and repeated calls are
// no-ops.
func (c *Coordinator) Unsubscribe(h *Handle) {
	if h != nil {
		h.Unsubscribe()
	}
}

// MessageCreated implements chat.EventSink.
func (c *Coordinator) MessageCreated(ctx context.Context, msg *models.Message) {
	c.publish(ctx, Event{
		Kind:      KindInsert,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		Message:   msg,
		At:        time.Now().UTC(),
	})
}

// MessageUpdated implements chat.EventSink.
func (c *Coordinator) MessageUpdated(ctx context.Context, msg *models.Message) {
	c.publish(ctx, Event{
		Kind:      KindUpdate,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		Message:   msg,
		At:        time.Now().UTC(),
	})
}

// MessageDeleted implements chat.EventSink.
func (c *Coordinator) MessageDeleted(ctx context.Context, channelID uuid.UUID, messageID int64) {
	c.publish(ctx, Event{
		Kind:      KindDelete,
		ChannelID: channelID,
		MessageID: messageID,
		At:        time.Now().UTC(),
	})
}

// publish is best-effort: the mutation already committed, so a failed
// fan-out only delays subscribers until their next reconcile.
func (c *Coordinator) publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("marshal feed event", zap.Error(err))
		return
	}
	if err := c.bus.Publish(ctx, MessageTopic(ev.ChannelID), payload); err != nil {
		c.logger.Warn("feed event publish failed",
			zap.String("channel_id", ev.ChannelID.String()),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
	}
}
