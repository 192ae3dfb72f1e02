// internal/marketplace/gateway.go
package marketplace

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pacer/pkg/config"
	"pacer/pkg/shops"
	"pacer/pkg/signing"
	"pacer/pkg/tokens"
)

// Gateway issues signed marketplace calls on behalf of a shop. It obtains a
// usable token from the Refresher, and on an auth failure performs exactly
// one forced refresh followed by exactly one retry of the identical request
// (with a fresh idempotency reference). A second auth failure is returned
// as-is; there is no loop.
type Gateway struct {
	cfg       config.Config
	log       *zap.SugaredLogger
	shops     shops.Provider
	refresher *Refresher
	client    *apiClient
}

// NewGateway wires the shared signed client under both the gateway and the
// refresher.
func NewGateway(cfg config.Config, log *zap.SugaredLogger, prov shops.Provider, refresher *Refresher) (*Gateway, error) {
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	refresher.client = client
	return &Gateway{cfg: cfg, log: log, shops: prov, refresher: refresher, client: client}, nil
}

// NewStack builds the refresher+gateway pair in one call (the usual wiring).
func NewStack(cfg config.Config, log *zap.SugaredLogger, prov shops.Provider, store tokens.Store) (*Refresher, *Gateway, error) {
	refresher := NewRefresher(cfg, log, store, prov, nil)
	gw, err := NewGateway(cfg, log, prov, refresher)
	if err != nil {
		return nil, nil, err
	}
	return refresher, gw, nil
}

// Call issues one shop-level request. body may be nil for GETs. The returned
// payload is the raw response body; callers decode what they need.
func (g *Gateway) Call(ctx context.Context, shopID int64, method, path string, body map[string]any, query url.Values) (json.RawMessage, error) {
	id, err := g.identity(ctx, shopID)
	if err != nil {
		return nil, err
	}
	tok, err := g.refresher.Obtain(ctx, shopID)
	if err != nil {
		return nil, err
	}

	raw, err := g.attempt(ctx, id, tok.AccessToken, shopID, method, path, body, query)
	if !IsAuthFailure(err) {
		return raw, err
	}

	g.log.Infow("auth failure, forcing refresh", "shop", shopID, "path", path)
	authRetryTotal.Inc()
	fresh, rerr := g.refresher.ForceRefresh(ctx, shopID, tok.RefreshToken)
	if rerr != nil {
		return nil, rerr
	}
	// One retry with the refreshed token; whatever it yields is final.
	return g.attempt(ctx, id, fresh.AccessToken, shopID, method, path, body, query)
}

// attempt sends the request once with a freshly generated idempotency
// reference so a retried call is never treated as a duplicate of the failed
// one.
func (g *Gateway) attempt(ctx context.Context, id signing.Identity, accessToken string, shopID int64, method, path string, body map[string]any, query url.Values) (json.RawMessage, error) {
	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("request_id", uuid.NewString())
	resp, err := g.client.do(ctx, method, path, id, accessToken, shopID, body, q)
	if err != nil {
		return nil, err
	}
	if e := classifyResponse(resp.Status, mapAny(resp.Body)); e != nil {
		return resp.Raw, e
	}
	return resp.Raw, nil
}

func (g *Gateway) identity(ctx context.Context, shopID int64) (signing.Identity, error) {
	def := signing.Identity{PartnerID: g.cfg.DefaultPartnerID, PartnerKey: g.cfg.DefaultPartnerKey}
	shop, err := g.shops.Get(ctx, shopID)
	if err != nil {
		return def, nil
	}
	return shop.Identity(def), nil
}
