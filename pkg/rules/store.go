// pkg/rules/store.go
package rules

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("rule not found")

type Store interface {
	Create(ctx context.Context, r Rule) error
	Update(ctx context.Context, r Rule) error
	Delete(ctx context.Context, ruleID string) error
	Get(ctx context.Context, ruleID string) (Rule, error)
	// List returns rules, optionally filtered by shop (shopID 0 = all).
	List(ctx context.Context, shopID int64) ([]Rule, error)
	// ListActive returns every active rule across shops; the schedule
	// matcher narrows these by the clock.
	ListActive(ctx context.Context) ([]Rule, error)
}
