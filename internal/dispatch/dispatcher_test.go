package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pacer/internal/schedule"
	"pacer/pkg/audit"
	"pacer/pkg/config"
	"pacer/pkg/rules"
)

// fakeCaller records calls and fails for scripted campaigns.
type fakeCaller struct {
	mu       sync.Mutex
	calls    []fakeCall
	failFor  map[int64]error
	panicFor map[int64]bool
}

type fakeCall struct {
	ShopID int64
	Path   string
	Body   map[string]any
}

func (f *fakeCaller) Call(ctx context.Context, shopID int64, method, path string, body map[string]any, query url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{ShopID: shopID, Path: path, Body: body})
	campaign, _ := body["campaign_id"].(int64)
	if f.panicFor[campaign] {
		panic("malformed target")
	}
	if err, ok := f.failFor[campaign]; ok {
		return nil, err
	}
	return json.RawMessage(`{"error":""}`), nil
}

func newDispatcher(t *testing.T, caller Caller, ruleStore rules.Store, auditStore audit.Store) *Dispatcher {
	t.Helper()
	matcher, err := schedule.NewMatcher("UTC")
	require.NoError(t, err)
	cfg := config.Config{ShopDelay: 0}
	return New(cfg, zap.NewNop().Sugar(), matcher, ruleStore, auditStore, caller, NewMemoryLocker())
}

func mkRule(id string, shop, campaign int64, kind rules.Kind) rules.Rule {
	return rules.Rule{ID: id, ShopID: shop, CampaignID: campaign, Kind: kind, HourStart: 0, HourEnd: 24, Budget: 50000, Active: true}
}

func seedRules(t *testing.T, store rules.Store, rs ...rules.Rule) {
	t.Helper()
	for _, r := range rs {
		require.NoError(t, store.Create(context.Background(), r))
	}
}

func TestRun_AppliesActiveRulesAndAuditsEach(t *testing.T) {
	caller := &fakeCaller{}
	ruleStore := rules.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	seedRules(t, ruleStore,
		mkRule("a", 1, 10, rules.KindManual),
		mkRule("b", 2, 20, rules.KindAuto),
	)
	d := newDispatcher(t, caller, ruleStore, auditStore)

	report, err := d.Run(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Success)
	assert.True(t, report.Results[1].Success)
	assert.Equal(t, "a", report.Results[0].RuleID, "shop order is deterministic")

	recs, err := auditStore.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	for _, rec := range recs {
		assert.True(t, rec.Success())
		assert.Equal(t, audit.StatusSuccess, rec.Status)
		assert.Equal(t, float64(50000), rec.AppliedValue)
	}
}

func TestRun_KindSelectsEndpoint(t *testing.T) {
	caller := &fakeCaller{}
	ruleStore := rules.NewMemoryStore()
	seedRules(t, ruleStore,
		mkRule("a", 1, 10, rules.KindAuto),
		mkRule("b", 1, 11, rules.KindManual),
	)
	d := newDispatcher(t, caller, ruleStore, audit.NewMemoryStore())

	_, err := d.Run(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, caller.calls, 2)
	assert.Equal(t, "/api/v2/ads/set_auto_campaign_budget", caller.calls[0].Path)
	assert.Equal(t, "/api/v2/ads/set_manual_campaign_budget", caller.calls[1].Path)
}

func TestRun_OneFailureDoesNotBlockOthers(t *testing.T) {
	caller := &fakeCaller{failFor: map[int64]error{10: errors.New("boom")}}
	ruleStore := rules.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	seedRules(t, ruleStore,
		mkRule("a", 1, 10, rules.KindManual),
		mkRule("b", 1, 11, rules.KindManual),
		mkRule("c", 2, 20, rules.KindManual),
	)
	d := newDispatcher(t, caller, ruleStore, auditStore)

	report, err := d.Run(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.False(t, report.Results[0].Success)
	assert.Equal(t, "boom", report.Results[0].Error)
	assert.True(t, report.Results[1].Success)
	assert.True(t, report.Results[2].Success)

	recs, _ := auditStore.List(context.Background(), "", 0)
	assert.Len(t, recs, 3, "a failed rule still leaves records for the rest")
}

func TestRun_PanicInOneRuleIsIsolated(t *testing.T) {
	caller := &fakeCaller{panicFor: map[int64]bool{10: true}}
	ruleStore := rules.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	seedRules(t, ruleStore,
		mkRule("a", 1, 10, rules.KindManual),
		mkRule("b", 1, 11, rules.KindManual),
	)
	d := newDispatcher(t, caller, ruleStore, auditStore)

	report, err := d.Run(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Error, "panic")
	assert.True(t, report.Results[1].Success)

	recs, _ := auditStore.List(context.Background(), "a", 0)
	require.Len(t, recs, 1)
	assert.Equal(t, audit.StatusFailed, recs[0].Status)
	assert.Contains(t, recs[0].ErrorDetail, "malformed target")
}

func TestRun_OverlappingRulesForSameShopBothProcessed(t *testing.T) {
	caller := &fakeCaller{}
	ruleStore := rules.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	r1 := mkRule("a", 1, 10, rules.KindManual)
	r2 := mkRule("b", 1, 10, rules.KindManual) // same campaign, overlapping window
	seedRules(t, ruleStore, r1, r2)
	d := newDispatcher(t, caller, ruleStore, auditStore)

	report, err := d.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, report.Results, 2, "no implicit deduplication across rules")
	recs, _ := auditStore.List(context.Background(), "", 0)
	assert.Len(t, recs, 2)
}

func TestRun_InactiveHourProducesNoWork(t *testing.T) {
	caller := &fakeCaller{}
	ruleStore := rules.NewMemoryStore()
	r := mkRule("a", 1, 10, rules.KindManual)
	now := time.Now().UTC()
	// Window that is certainly closed right now.
	r.HourStart = (now.Hour() + 2) % 24
	r.HourEnd = r.HourStart + 1
	if r.HourEnd > 24 {
		r.HourEnd = 24
	}
	seedRules(t, ruleStore, r)
	d := newDispatcher(t, caller, ruleStore, audit.NewMemoryStore())

	report, err := d.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, caller.calls)
}

func TestRun_LockedShopIsAuditedAsFailed(t *testing.T) {
	caller := &fakeCaller{}
	ruleStore := rules.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	seedRules(t, ruleStore, mkRule("a", 1, 10, rules.KindManual))

	locker := NewMemoryLocker()
	releaseHeld, ok, err := locker.TryAcquire(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	defer releaseHeld()

	matcher, err := schedule.NewMatcher("UTC")
	require.NoError(t, err)
	d := New(config.Config{}, zap.NewNop().Sugar(), matcher, ruleStore, auditStore, caller, locker)

	report, err := d.Run(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Error, "locked")
	assert.Empty(t, caller.calls, "no mutation while another pass holds the shop")
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	release, ok, err := l.TryAcquire(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok2, err := l.TryAcquire(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok2)

	release()
	_, ok3, err := l.TryAcquire(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ok3)
}
