// internal/marketplace/client.go
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pacer/pkg/config"
	"pacer/pkg/middleware"
	"pacer/pkg/signing"
)

// apiClient is the shared signed-HTTP layer under the gateway and the
// refresher. It applies the process-wide base URL, timeout and (when
// configured) the forwarding proxy to every call uniformly.
type apiClient struct {
	base  string
	httpc *http.Client
	now   func() time.Time
}

func newAPIClient(cfg config.Config) (*apiClient, error) {
	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		pu, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("proxy url: %w", err)
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = http.ProxyURL(pu)
		transport = t
	}
	return &apiClient{
		base: cfg.MarketplaceBaseURL,
		httpc: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: middleware.OutboundTransport(transport),
		},
		now: time.Now,
	}, nil
}

// response is the decoded marketplace envelope plus the HTTP status.
type response struct {
	Status int
	Body   map[string]any
	Raw    json.RawMessage
}

// do signs and issues one request. accessToken=="" means a public (partner
// level) call; the signature then omits the token and shop id, matching the
// remote verification rule. A transport failure or undecodable body comes
// back as a tagged *Error; an envelope-level error is left to the caller to
// classify so the gateway can count attempts.
func (c *apiClient) do(ctx context.Context, method, path string, id signing.Identity, accessToken string, shopID int64, body any, query url.Values) (response, error) {
	if id.PartnerID == 0 || id.PartnerKey == "" {
		return response{}, &Error{Kind: KindSignatureInput, Message: "missing signing identity"}
	}
	ts := c.now().Unix()
	sig := signing.Sign(id, path, ts, accessToken, shopID)

	q := url.Values{}
	for k, vs := range query {
		q[k] = vs
	}
	q.Set("partner_id", fmt.Sprint(id.PartnerID))
	q.Set("timestamp", fmt.Sprint(ts))
	q.Set("sign", sig)
	if accessToken != "" {
		q.Set("access_token", accessToken)
		q.Set("shop_id", fmt.Sprint(shopID))
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return response{}, &Error{Kind: KindSignatureInput, cause: err}
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path+"?"+q.Encode(), rd)
	if err != nil {
		return response{}, &Error{Kind: KindSignatureInput, cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return response{}, classifyTransport(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return response{}, classifyTransport(err)
	}
	out := response{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil && resp.StatusCode >= 500 {
			// 5xx with a non-JSON body (gateway/proxy error page)
			return out, &Error{Kind: KindRemoteTransient, Status: resp.StatusCode, Message: "non-json upstream response"}
		}
	}
	return out, nil
}
