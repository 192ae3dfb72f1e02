// pkg/rules/memory.go
package rules

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memStore struct {
	mu   sync.RWMutex
	byID map[string]Rule
}

// NewMemoryStore is the dev fallback when no database is configured.
func NewMemoryStore() Store {
	return &memStore{byID: map[string]Rule{}}
}

func (m *memStore) Create(ctx context.Context, r Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.UpdatedAt = time.Now()
	m.byID[r.ID] = r
	return nil
}

func (m *memStore) Update(ctx context.Context, r Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	m.byID[r.ID] = r
	return nil
}

func (m *memStore) Delete(ctx context.Context, ruleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[ruleID]; !ok {
		return ErrNotFound
	}
	delete(m.byID, ruleID)
	return nil
}

func (m *memStore) Get(ctx context.Context, ruleID string) (Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.byID[ruleID]; ok {
		return r, nil
	}
	return Rule{}, ErrNotFound
}

func (m *memStore) List(ctx context.Context, shopID int64) ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Rule
	for _, r := range m.byID {
		if shopID == 0 || r.ShopID == shopID {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

func (m *memStore) ListActive(ctx context.Context) ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Rule
	for _, r := range m.byID {
		if r.Active {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

// sortRules orders by shop then rule id: the processing and audit order must
// be reproducible across passes.
func sortRules(rs []Rule) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].ShopID != rs[j].ShopID {
			return rs[i].ShopID < rs[j].ShopID
		}
		return rs[i].ID < rs[j].ID
	})
}
