// pkg/audit/memory.go
package audit

import (
	"context"
	"sync"
)

type memStore struct {
	mu   sync.RWMutex
	recs []Record
}

// NewMemoryStore is the dev fallback when no database is configured.
func NewMemoryStore() Store {
	return &memStore{}
}

func (m *memStore) Append(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) List(ctx context.Context, ruleID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for i := len(m.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if ruleID == "" || m.recs[i].RuleID == ruleID {
			out = append(out, m.recs[i])
		}
	}
	return out, nil
}
