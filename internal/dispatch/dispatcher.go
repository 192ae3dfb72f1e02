// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pacer/internal/schedule"
	"pacer/pkg/audit"
	"pacer/pkg/config"
	"pacer/pkg/rules"
)

// budgetPaths maps the rule kind to the marketplace mutation endpoint.
var budgetPaths = map[rules.Kind]string{
	rules.KindAuto:   "/api/v2/ads/set_auto_campaign_budget",
	rules.KindManual: "/api/v2/ads/set_manual_campaign_budget",
}

// Caller is the remote-call surface the dispatcher needs (the marketplace
// gateway in production, a fake in tests).
type Caller interface {
	Call(ctx context.Context, shopID int64, method, path string, body map[string]any, query url.Values) (json.RawMessage, error)
}

// Outcome is one rule's result within a pass report.
type Outcome struct {
	RuleID     string  `json:"rule_id"`
	CampaignID int64   `json:"campaign_id"`
	Value      float64 `json:"value"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// Report is the response body of one processing pass.
type Report struct {
	Hour    int       `json:"hour"`
	Weekday string    `json:"weekday"`
	Results []Outcome `json:"results"`
}

// Dispatcher runs one processing pass: match active rules, group them by
// shop, push each shop's mutations through the gateway and append one audit
// record per rule whatever the outcome. Shops are processed concurrently;
// everything belonging to one shop runs as a strictly sequential chain so a
// shop's token is never refreshed twice at once.
type Dispatcher struct {
	cfg     config.Config
	log     *zap.SugaredLogger
	matcher *schedule.Matcher
	rules   rules.Store
	audit   audit.Store
	gateway Caller
	locker  Locker
}

func New(cfg config.Config, log *zap.SugaredLogger, matcher *schedule.Matcher, ruleStore rules.Store, auditStore audit.Store, gateway Caller, locker Locker) *Dispatcher {
	return &Dispatcher{cfg: cfg, log: log, matcher: matcher, rules: ruleStore, audit: auditStore, gateway: gateway, locker: locker}
}

// Run executes one pass at the given instant. Only a failure to load the rule
// set aborts the pass; every per-rule and per-shop failure is converted into
// a failed audit record and the pass continues.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) (Report, error) {
	start := time.Now()
	hour, day := d.matcher.At(now)
	report := Report{Hour: hour, Weekday: day.String()}

	all, err := d.rules.ListActive(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load rules: %w", err)
	}
	active := d.matcher.ActiveRules(now, all)
	if len(active) == 0 {
		d.log.Infow("pass: no active rules", "hour", hour, "weekday", day.String())
		passTotal.Inc()
		return report, nil
	}

	// Results are written by index so concurrent shops cannot reorder the
	// report; `active` is already shop-grouped and deterministic.
	results := make([]Outcome, len(active))
	byShop := map[int64][]job{}
	var shopOrder []int64
	for i, r := range active {
		if _, seen := byShop[r.ShopID]; !seen {
			shopOrder = append(shopOrder, r.ShopID)
		}
		byShop[r.ShopID] = append(byShop[r.ShopID], job{idx: i, rule: r})
	}

	var wg sync.WaitGroup
	for i, shopID := range shopOrder {
		if i > 0 && d.cfg.ShopDelay > 0 {
			// Stagger shop dispatch to stay under remote rate limits.
			time.Sleep(d.cfg.ShopDelay)
		}
		wg.Add(1)
		go func(shopID int64, jobs []job) {
			defer wg.Done()
			d.runShop(ctx, now, shopID, jobs, results)
		}(shopID, byShop[shopID])
	}
	wg.Wait()

	report.Results = results
	passTotal.Inc()
	passDuration.Observe(time.Since(start).Seconds())
	d.log.Infow("pass complete", "hour", hour, "weekday", day.String(), "rules", len(active), "took", time.Since(start))
	return report, nil
}

type job struct {
	idx  int
	rule rules.Rule
}

// runShop processes one shop's rules sequentially under the pass lock.
func (d *Dispatcher) runShop(ctx context.Context, now time.Time, shopID int64, jobs []job, results []Outcome) {
	release, ok, err := d.locker.TryAcquire(ctx, shopID)
	if err != nil {
		// The lock is a soft marker; a Redis outage must not stop scheduling.
		d.log.Warnw("pass lock error", "shop", shopID, "err", err)
	}
	if err == nil && !ok {
		for _, j := range jobs {
			results[j.idx] = d.finish(ctx, now, j.rule, fmt.Errorf("shop locked by a concurrent pass"))
		}
		return
	}
	if release != nil {
		defer release()
	}
	for _, j := range jobs {
		results[j.idx] = d.finish(ctx, now, j.rule, d.apply(ctx, j.rule))
	}
}

// apply issues the budget mutation for one rule. A panic while processing a
// rule is converted into an error so one malformed rule cannot take down the
// rest of the pass.
func (d *Dispatcher) apply(ctx context.Context, r rules.Rule) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	path, ok := budgetPaths[r.Kind]
	if !ok {
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	body := map[string]any{
		"campaign_id": r.CampaignID,
		"budget":      r.Budget,
	}
	_, err = d.gateway.Call(ctx, r.ShopID, http.MethodPost, path, body, nil)
	return err
}

// finish converts the outcome into exactly one audit record and the report
// entry for the rule.
func (d *Dispatcher) finish(ctx context.Context, now time.Time, r rules.Rule, err error) Outcome {
	rec := audit.Record{
		ID:           uuid.NewString(),
		RuleID:       r.ID,
		ShopID:       r.ShopID,
		CampaignID:   r.CampaignID,
		AppliedValue: r.Budget,
		Status:       audit.StatusSuccess,
		ExecutedAt:   now.UTC(),
	}
	out := Outcome{RuleID: r.ID, CampaignID: r.CampaignID, Value: r.Budget, Success: true}
	if err != nil {
		rec.Status = audit.StatusFailed
		rec.ErrorDetail = err.Error()
		out.Success = false
		out.Error = err.Error()
		d.log.Warnw("rule failed", "rule", r.ID, "shop", r.ShopID, "campaign", r.CampaignID, "err", err)
	}
	ruleOutcomeTotal.WithLabelValues(rec.Status).Inc()
	if aerr := d.audit.Append(ctx, rec); aerr != nil {
		d.log.Errorw("audit append failed", "rule", r.ID, "err", aerr)
	}
	return out
}
