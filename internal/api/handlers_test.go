package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pacer/internal/dispatch"
	"pacer/pkg/audit"
	"pacer/pkg/config"
	"pacer/pkg/rules"
)

type fakeRunner struct {
	report dispatch.Report
	err    error
	runs   int
}

func (f *fakeRunner) Run(ctx context.Context, now time.Time) (dispatch.Report, error) {
	f.runs++
	return f.report, f.err
}

func newTestApp(cfg config.Config, runner PassRunner) *App {
	return New(cfg, zap.NewNop().Sugar(), rules.NewMemoryStore(), audit.NewMemoryStore(), runner)
}

func post(t *testing.T, app *App, body map[string]any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/scheduler", bytes.NewReader(b))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func validRuleBody() map[string]any {
	return map[string]any{
		"shop_id":     1,
		"campaign_id": 2,
		"kind":        "manual",
		"hour_start":  9,
		"hour_end":    18,
		"budget":      50000,
		"active":      true,
	}
}

func TestProcess_ReturnsReport(t *testing.T) {
	runner := &fakeRunner{report: dispatch.Report{Hour: 9, Weekday: "Monday", Results: []dispatch.Outcome{
		{RuleID: "r1", CampaignID: 2, Value: 50000, Success: true},
	}}}
	app := newTestApp(config.Config{}, runner)

	rec := post(t, app, map[string]any{"action": "process"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		OK     bool            `json:"ok"`
		Report dispatch.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 9, resp.Report.Hour)
	require.Len(t, resp.Report.Results, 1)
	assert.Equal(t, "r1", resp.Report.Results[0].RuleID)
	assert.Equal(t, 1, runner.runs)
}

func TestProcess_TopLevelFailureStaysTwoHundred(t *testing.T) {
	runner := &fakeRunner{err: errors.New("load rules: storage down")}
	app := newTestApp(config.Config{}, runner)

	rec := post(t, app, map[string]any{"action": "process"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "the cron caller never sees an error status")
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["ok"])
	assert.Contains(t, resp["error"], "storage down")
}

func TestProcess_CronSecretEnforced(t *testing.T) {
	runner := &fakeRunner{}
	app := newTestApp(config.Config{CronSecret: "s3cret"}, runner)

	rec := post(t, app, map[string]any{"action": "process"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, runner.runs)

	rec = post(t, app, map[string]any{"action": "process"}, map[string]string{"X-Cron-Secret": "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.runs)
}

func TestRunNow_SameCodePathAsProcess(t *testing.T) {
	runner := &fakeRunner{}
	app := newTestApp(config.Config{}, runner)
	rec := post(t, app, map[string]any{"action": "run-now"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.runs)
}

func TestCreateListDeleteRule(t *testing.T) {
	app := newTestApp(config.Config{}, &fakeRunner{})

	rec := post(t, app, map[string]any{"action": "create", "rule": validRuleBody()}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		RuleID string `json:"rule_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.RuleID)

	rec = post(t, app, map[string]any{"action": "list"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Items []rules.Rule `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Items, 1)
	assert.Equal(t, created.RuleID, listed.Items[0].ID)

	rec = post(t, app, map[string]any{"action": "delete", "rule_id": created.RuleID}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post(t, app, map[string]any{"action": "delete", "rule_id": created.RuleID}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_ValidationRejectedBeforeAnyWork(t *testing.T) {
	app := newTestApp(config.Config{}, &fakeRunner{})

	body := validRuleBody()
	body["hour_start"] = 18
	body["hour_end"] = 9
	rec := post(t, app, map[string]any{"action": "create", "rule": body}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, app, map[string]any{"action": "create"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing rule payload")
}

func TestUpdate_MissingRuleIsNotFound(t *testing.T) {
	app := newTestApp(config.Config{}, &fakeRunner{})
	body := validRuleBody()
	body["rule_id"] = "nope"
	rec := post(t, app, map[string]any{"action": "update", "rule": body}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownAction(t *testing.T) {
	app := newTestApp(config.Config{}, &fakeRunner{})
	rec := post(t, app, map[string]any{"action": "explode"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogs_ReturnsAuditRecords(t *testing.T) {
	app := newTestApp(config.Config{}, &fakeRunner{})
	require.NoError(t, app.audit.Append(context.Background(), audit.Record{
		ID: "x", RuleID: "r1", ShopID: 1, CampaignID: 2, AppliedValue: 100,
		Status: audit.StatusFailed, ErrorDetail: "boom", ExecutedAt: time.Now().UTC(),
	}))

	rec := post(t, app, map[string]any{"action": "logs", "rule_id": "r1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Items []audit.Record `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "boom", listed.Items[0].ErrorDetail)
}
