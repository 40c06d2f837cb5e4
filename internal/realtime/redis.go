package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// RedisBus implements Bus over Redis pub/sub. Redis gives per-topic
// at-least-once-ish delivery to connected subscribers; anything missed
// while disconnected is gone, which is fine because feed events are only
// reconcile hints.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler func([]byte)) (BusSubscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)

	// Force the subscription round-trip now so an unreachable transport
	// surfaces synchronously to the caller instead of inside the loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &redisSubscription{
		bus:     b,
		topic:   topic,
		handler: handler,
		ctx:     subCtx,
		cancel:  cancel,
		pubsub:  pubsub,
	}
	go sub.run()
	return sub, nil
}

type redisSubscription struct {
	bus     *RedisBus
	topic   string
	handler func([]byte)
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	pubsub *redis.PubSub
	closed bool

	closeOnce sync.Once
}

// run receives until closed. A receive failure on a live subscription is a
// dropped transport: resubscribe with exponential backoff, without the
// handler ever learning a reconnect happened.
func (s *redisSubscription) run() {
	delay := reconnectBaseDelay
	for {
		s.mu.Lock()
		ps := s.pubsub
		s.mu.Unlock()

		msg, err := ps.ReceiveMessage(s.ctx)
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}

			s.bus.logger.Warn("feed subscription dropped, reconnecting",
				zap.String("topic", s.topic),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}

			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.pubsub.Close()
			s.pubsub = s.bus.client.Subscribe(s.ctx, s.topic)
			s.mu.Unlock()
			continue
		}

		delay = reconnectBaseDelay
		s.handler([]byte(msg.Payload))
	}
}

func (s *redisSubscription) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cancel()
		s.pubsub.Close()
		s.mu.Unlock()
	})
}
