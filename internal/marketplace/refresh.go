// internal/marketplace/refresh.go
package marketplace

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pacer/pkg/config"
	"pacer/pkg/shops"
	"pacer/pkg/signing"
	"pacer/pkg/tokens"
)

const refreshPath = "/api/v2/auth/access_token/get"

// Refresher owns the token lifecycle for every shop: it decides whether a
// stored token is still usable, refreshes it against the marketplace auth
// endpoint when it is expiring or expired, and persists the result. The
// store upsert is keyed by shop id, so a refresh can never leave two live
// tokens behind.
type Refresher struct {
	cfg    config.Config
	log    *zap.SugaredLogger
	store  tokens.Store
	shops  shops.Provider
	client *apiClient
	now    func() time.Time
}

func NewRefresher(cfg config.Config, log *zap.SugaredLogger, store tokens.Store, prov shops.Provider, client *apiClient) *Refresher {
	return &Refresher{cfg: cfg, log: log, store: store, shops: prov, client: client, now: time.Now}
}

// Obtain returns a usable token for the shop, refreshing first when the
// stored one is expiring or expired. If the refresh itself fails the stale
// token is returned anyway: it may still be briefly valid, and the caller's
// own auth-failure handling covers the case where it is not. Only a missing
// token is an error here.
func (r *Refresher) Obtain(ctx context.Context, shopID int64) (tokens.Token, error) {
	tok, err := r.store.Get(ctx, shopID)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return tokens.Token{}, &Error{Kind: KindTokenNotFound, Message: "shop has no stored token", cause: err}
		}
		return tokens.Token{}, err
	}
	state := tok.StateAt(r.now(), r.cfg.RefreshBuffer)
	if state == tokens.StateValid {
		return tok, nil
	}
	fresh, err := r.ForceRefresh(ctx, shopID, tok.RefreshToken)
	if err != nil {
		r.log.Warnw("token refresh failed, using stale token", "shop", shopID, "state", state.String(), "err", err)
		return tok, nil
	}
	return fresh, nil
}

// ForceRefresh exchanges the refresh token unconditionally and persists the
// new pair atomically with its recomputed expiry. A marketplace rejection is
// terminal (KindRefreshDenied): the gateway never retries it within a pass.
func (r *Refresher) ForceRefresh(ctx context.Context, shopID int64, refreshToken string) (tokens.Token, error) {
	id, err := r.identity(ctx, shopID)
	if err != nil {
		return tokens.Token{}, err
	}
	body := map[string]any{
		"partner_id":    id.PartnerID,
		"shop_id":       shopID,
		"refresh_token": refreshToken,
	}
	// Partner-level call: refresh is signed without the access token.
	resp, err := r.client.do(ctx, http.MethodPost, refreshPath, id, "", shopID, body, nil)
	if err != nil {
		refreshTotal.WithLabelValues("transport_error").Inc()
		return tokens.Token{}, err
	}
	if e := classifyResponse(resp.Status, mapAny(resp.Body)); e != nil {
		refreshTotal.WithLabelValues("denied").Inc()
		return tokens.Token{}, &Error{Kind: KindRefreshDenied, Code: e.Code, Message: e.Message, Status: e.Status}
	}

	if resp.Body == nil {
		// A 2xx with an empty or non-JSON body is a proxy artifact, not a
		// marketplace decision. Transient, so the next pass tries again.
		refreshTotal.WithLabelValues("transport_error").Inc()
		return tokens.Token{}, &Error{Kind: KindRemoteTransient, Message: "undecodable refresh response", Status: resp.Status}
	}
	access, _ := resp.Body["access_token"].(string)
	refresh, _ := resp.Body["refresh_token"].(string)
	expireIn, _ := resp.Body["expire_in"].(float64)
	if access == "" || refresh == "" || expireIn <= 0 {
		return tokens.Token{}, &Error{Kind: KindRefreshDenied, Message: "refresh response missing token fields", Status: resp.Status}
	}

	fresh := tokens.New(shopID, access, refresh, r.now(), time.Duration(expireIn)*time.Second)
	if err := r.store.Upsert(ctx, fresh); err != nil {
		return tokens.Token{}, err
	}
	refreshTotal.WithLabelValues("ok").Inc()
	r.log.Infow("token refreshed", "shop", shopID, "expires_at", fresh.ExpiresAt)
	return fresh, nil
}

func (r *Refresher) identity(ctx context.Context, shopID int64) (signing.Identity, error) {
	def := signing.Identity{PartnerID: r.cfg.DefaultPartnerID, PartnerKey: r.cfg.DefaultPartnerKey}
	shop, err := r.shops.Get(ctx, shopID)
	if err != nil {
		// Unregistered shop still signs with the default identity.
		return def, nil
	}
	return shop.Identity(def), nil
}

func mapAny(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
