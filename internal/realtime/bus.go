package realtime

import "context"

// Bus is the change notification transport: per-topic publish/subscribe
// with at-least-once delivery and no cross-event ordering guarantee.
//
// Subscribe returns an error only when establishing the subscription fails;
// transport drops during an active subscription are the implementation's
// problem to recover from, invisibly to the handler.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error

	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) (BusSubscription, error)
}

// BusSubscription is an active subscription. Close is idempotent: closing an
// already-closed subscription is a no-op, never a panic or an error —
// overlapping teardown paths in hosts call it more than once.
type BusSubscription interface {
	Close()
}
