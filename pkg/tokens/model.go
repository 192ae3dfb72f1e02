// pkg/tokens/model.go
package tokens

import "time"

// State classifies a stored token against the clock. INVALID is never derived
// locally: it is only ever observed through a rejected remote call, so it does
// not appear here.
type State int

const (
	StateValid State = iota
	StateExpiring
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpiring:
		return "expiring"
	default:
		return "expired"
	}
}

// Token is the stored OAuth credential pair for one shop. ExpiresAt is always
// recomputed from IssuedAt+TTL in the same write as the secrets, never on its
// own.
type Token struct {
	ShopID       int64
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	TTL          time.Duration
	ExpiresAt    time.Time
}

// New derives ExpiresAt and returns the fully-populated token.
func New(shopID int64, access, refresh string, issuedAt time.Time, ttl time.Duration) Token {
	return Token{
		ShopID:       shopID,
		AccessToken:  access,
		RefreshToken: refresh,
		IssuedAt:     issuedAt,
		TTL:          ttl,
		ExpiresAt:    issuedAt.Add(ttl),
	}
}

// StateAt reports where the token sits relative to now, with buffer being the
// early-refresh window before expiry.
func (t Token) StateAt(now time.Time, buffer time.Duration) State {
	switch {
	case !now.Before(t.ExpiresAt):
		return StateExpired
	case !now.Before(t.ExpiresAt.Add(-buffer)):
		return StateExpiring
	default:
		return StateValid
	}
}
