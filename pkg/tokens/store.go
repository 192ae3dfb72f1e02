// pkg/tokens/store.go
package tokens

import (
	"context"
	"errors"
)

// ErrNotFound means the shop has never authorized (or was manually revoked);
// recovery is out-of-band re-authentication, not a refresh.
var ErrNotFound = errors.New("token not found")

// Store persists exactly one current token per shop. Upsert is keyed by the
// shop id so a refresh can never leave two live tokens behind.
type Store interface {
	Get(ctx context.Context, shopID int64) (Token, error)
	Upsert(ctx context.Context, t Token) error
}
