// pkg/tokens/memory.go
package tokens

import (
	"context"
	"sync"
)

type memStore struct {
	mu   sync.RWMutex
	byID map[int64]Token
}

// NewMemoryStore is the dev fallback when no database is configured.
func NewMemoryStore() Store {
	return &memStore{byID: map[int64]Token{}}
}

func (m *memStore) Get(ctx context.Context, shopID int64) (Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.byID[shopID]; ok {
		return t, nil
	}
	return Token{}, ErrNotFound
}

func (m *memStore) Upsert(ctx context.Context, t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ShopID] = t
	return nil
}
