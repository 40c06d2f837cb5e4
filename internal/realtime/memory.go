package realtime

import (
	"context"
	"sync"
)

// MemoryBus is a minimal in-process Bus intended for tests and single-node
// hosts. Delivery is synchronous and in publish order, which is stronger
// than the Bus contract promises — consumers must not come to rely on it.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func([]byte)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]func([]byte))}
}

func (b *MemoryBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	handlers := make([]func([]byte), 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, topic string, handler func([]byte)) (BusSubscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]func([]byte))
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = handler

	return &memorySubscription{bus: b, topic: topic, id: id}, nil
}

type memorySubscription struct {
	bus   *MemoryBus
	topic string
	id    int
	once  sync.Once
}

func (s *memorySubscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.topic], s.id)
	})
}
