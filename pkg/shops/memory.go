// pkg/shops/memory.go
package shops

import (
	"context"
	"sort"
	"sync"
)

type memProvider struct {
	mu   sync.RWMutex
	byID map[int64]Shop
}

// NewMemoryProvider is the dev fallback when no database is configured.
func NewMemoryProvider() Provider {
	return &memProvider{byID: map[int64]Shop{}}
}

func (m *memProvider) Get(ctx context.Context, shopID int64) (Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.byID[shopID]; ok {
		return s, nil
	}
	return Shop{}, ErrNotFound
}

func (m *memProvider) List(ctx context.Context) ([]Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Shop
	for _, s := range m.byID {
		if s.Active {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProvider) Upsert(ctx context.Context, s Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	return nil
}
