// pkg/signing/signing.go
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Identity is the partner credential pair used to sign outbound calls.
type Identity struct {
	PartnerID  int64
	PartnerKey string
}

// Sign computes the marketplace request signature: an HMAC-SHA256 over the
// concatenation of partner id, API path and unix timestamp, followed by the
// access token and shop id when an access token is present (shop-level calls).
// The remote side rejects any deviation in field order or the omission rule,
// and reports it the same way it reports an expired token.
func Sign(id Identity, path string, timestamp int64, accessToken string, shopID int64) string {
	base := strconv.FormatInt(id.PartnerID, 10) + path + strconv.FormatInt(timestamp, 10)
	if accessToken != "" {
		base += accessToken + strconv.FormatInt(shopID, 10)
	}
	mac := hmac.New(sha256.New, []byte(id.PartnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}
