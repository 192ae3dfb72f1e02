// pkg/shops/model.go
package shops

import "pacer/pkg/signing"

// Shop is a principal on the marketplace: the account whose token and rules
// the scheduler processes.
type Shop struct {
	ID         int64  // marketplace shop id
	Name       string // display name (admin UI)
	Region     string // marketplace region code (VN, SG, ...)
	PartnerID  int64  // per-shop signing identity; 0 -> process default
	PartnerKey string
	Active     bool
}

// Identity resolves the signing identity for the shop, falling back to the
// process-wide default when the shop carries none of its own.
func (s Shop) Identity(def signing.Identity) signing.Identity {
	if s.PartnerID != 0 && s.PartnerKey != "" {
		return signing.Identity{PartnerID: s.PartnerID, PartnerKey: s.PartnerKey}
	}
	return def
}
