// pkg/audit/store.go
package audit

import "context"

// Store is append-only: records are never updated or deleted.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// List returns newest-first records, optionally filtered by rule
	// (ruleID "" = all). limit <= 0 applies a server default.
	List(ctx context.Context, ruleID string, limit int) ([]Record, error)
}
