package cart

import (
	"context"
	"sync"

	"localserve/internal/models"
)

// MemoryStore is a process-local Store used when no Redis is configured
// and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	carts  map[string][]models.CartItem
	nextID int
	subs   map[string]map[int]chan []models.CartItem
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string][]models.CartItem),
		subs:  make(map[string]map[int]chan []models.CartItem),
	}
}

func (m *MemoryStore) Load(_ context.Context, owner string) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.carts[owner]), nil
}

func (m *MemoryStore) Save(_ context.Context, owner string, items []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[owner] = clone(items)
	m.publish(owner)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, owner)
	m.publish(owner)
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, owner string) (<-chan []models.CartItem, error) {
	ch := make(chan []models.CartItem, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.subs[owner] == nil {
		m.subs[owner] = make(map[int]chan []models.CartItem)
	}
	m.subs[owner][id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs[owner], id)
		if len(m.subs[owner]) == 0 {
			delete(m.subs, owner)
		}
		close(ch)
		m.mu.Unlock()
	}()
	return ch, nil
}

// publish must be called with mu held. A slow subscriber only ever sees
// the latest snapshot.
func (m *MemoryStore) publish(owner string) {
	for _, ch := range m.subs[owner] {
		snapshot := clone(m.carts[owner])
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

func clone(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, len(items))
	copy(out, items)
	return out
}
