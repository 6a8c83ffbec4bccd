package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
)

// Memory is an in-process SessionStore. Several Memory handles can share one
// backing map (NewMemoryShared) to model two tabs over the same storage.
type Memory struct {
	backing *memoryBacking
	origin  string
}

type memoryBacking struct {
	mu     sync.Mutex
	items  map[string]string
	nextID int
	subs   map[int]chan domain.StoreSignal
}

// NewMemory creates a memory store with its own backing map.
func NewMemory() *Memory {
	return &Memory{
		backing: &memoryBacking{
			items: make(map[string]string),
			subs:  make(map[int]chan domain.StoreSignal),
		},
		origin: uuid.NewString(),
	}
}

// NewMemoryShared creates a second context over the same backing map, with
// its own origin id. Mutations made through either handle are signalled to
// subscribers of both.
func (m *Memory) NewMemoryShared() *Memory {
	return &Memory{backing: m.backing, origin: uuid.NewString()}
}

// Origin returns this store context's origin id.
func (m *Memory) Origin() string { return m.origin }

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.backing.mu.Lock()
	defer m.backing.mu.Unlock()
	v, ok := m.backing.items[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.backing.mu.Lock()
	m.backing.items[key] = value
	m.backing.mu.Unlock()
	m.publish(key)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.backing.mu.Lock()
	delete(m.backing.items, key)
	m.backing.mu.Unlock()
	m.publish(key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.backing.mu.Lock()
	for _, k := range wellKnownKeys {
		delete(m.backing.items, k)
	}
	m.backing.mu.Unlock()
	m.publish("")
	return nil
}

func (m *Memory) Subscribe(_ context.Context) (<-chan domain.StoreSignal, func(), error) {
	ch := make(chan domain.StoreSignal, 16)
	m.backing.mu.Lock()
	id := m.backing.nextID
	m.backing.nextID++
	m.backing.subs[id] = ch
	m.backing.mu.Unlock()

	cancel := func() {
		m.backing.mu.Lock()
		if c, ok := m.backing.subs[id]; ok {
			delete(m.backing.subs, id)
			close(c)
		}
		m.backing.mu.Unlock()
	}
	return ch, cancel, nil
}

func (m *Memory) publish(key string) {
	sig := domain.StoreSignal{Key: key, Origin: m.origin}
	m.backing.mu.Lock()
	defer m.backing.mu.Unlock()
	for _, ch := range m.backing.subs {
		select {
		case ch <- sig:
		default:
			// Slow subscriber: drop rather than block the writer. The next
			// signal re-derives everything anyway.
		}
	}
}
