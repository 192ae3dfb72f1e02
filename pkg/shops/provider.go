// pkg/shops/provider.go
package shops

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("shop not found")

// Provider is the shop registry. The scheduler itself only reads (Get);
// List and Upsert are the surface for the onboarding flow that registers
// shops after the marketplace authorize callback, which runs outside this
// service.
type Provider interface {
	// Get resolves a shop by its marketplace id.
	Get(ctx context.Context, shopID int64) (Shop, error)
	// List returns active shops, ordered by id.
	List(ctx context.Context) ([]Shop, error)
	// Upsert writes a shop record keyed by shop id.
	Upsert(ctx context.Context, s Shop) error
}
