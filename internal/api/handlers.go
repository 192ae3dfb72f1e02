// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"pacer/pkg/middleware"
	"pacer/pkg/rules"
)

// schedulerRequest is the single trigger envelope. Action selects the
// operation; the remaining fields are per-action.
type schedulerRequest struct {
	Action string      `json:"action"`
	Rule   *rules.Rule `json:"rule,omitempty"`
	RuleID string      `json:"rule_id,omitempty"`
	ShopID int64       `json:"shop_id,omitempty"`
	Limit  int         `json:"limit,omitempty"`
}

func (a *App) handleScheduler(w http.ResponseWriter, r *http.Request) {
	var req schedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"error": "bad json"}, http.StatusBadRequest)
		return
	}
	switch req.Action {
	case "process", "run-now":
		if !a.authorizeCron(r) {
			writeJSON(w, map[string]any{"error": "unauthorized"}, http.StatusUnauthorized)
			return
		}
		a.runPass(w, r)
	case "create", "update", "delete", "list", "logs":
		if !a.authorizeAdmin(r) {
			writeJSON(w, map[string]any{"error": "unauthorized"}, http.StatusUnauthorized)
			return
		}
		a.maintenance(w, r, req)
	default:
		writeJSON(w, map[string]any{"error": "unknown action"}, http.StatusBadRequest)
	}
}

// runPass executes one processing pass. The caller is an automated scheduler:
// the endpoint always answers 200 with a report, and a top-level failure
// (rule storage outage) is reported inside the body rather than raised.
func (a *App) runPass(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFrom(r.Context())
	report, err := a.dispatcher.Run(r.Context(), a.now())
	if err != nil {
		a.log.Errorw("pass aborted", "req", reqID, "err", err)
		writeJSON(w, map[string]any{"ok": false, "error": err.Error()}, http.StatusOK)
		return
	}
	a.log.Infow("pass triggered", "req", reqID, "rules", len(report.Results))
	writeJSON(w, map[string]any{"ok": true, "report": report}, http.StatusOK)
}

func (a *App) maintenance(w http.ResponseWriter, r *http.Request, req schedulerRequest) {
	ctx := r.Context()
	switch req.Action {
	case "create":
		if req.Rule == nil {
			writeJSON(w, map[string]any{"error": "rule required"}, http.StatusBadRequest)
			return
		}
		rule := *req.Rule
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		if err := rule.Validate(); err != nil {
			writeJSON(w, map[string]any{"error": err.Error()}, http.StatusBadRequest)
			return
		}
		if err := a.rules.Create(ctx, rule); err != nil {
			writeJSON(w, map[string]any{"error": "storage error"}, http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "rule_id": rule.ID}, http.StatusCreated)

	case "update":
		if req.Rule == nil || req.Rule.ID == "" {
			writeJSON(w, map[string]any{"error": "rule with rule_id required"}, http.StatusBadRequest)
			return
		}
		if err := req.Rule.Validate(); err != nil {
			writeJSON(w, map[string]any{"error": err.Error()}, http.StatusBadRequest)
			return
		}
		if err := a.rules.Update(ctx, *req.Rule); err != nil {
			status, msg := http.StatusInternalServerError, "storage error"
			if errors.Is(err, rules.ErrNotFound) {
				status, msg = http.StatusNotFound, "rule not found"
			}
			writeJSON(w, map[string]any{"error": msg}, status)
			return
		}
		writeJSON(w, map[string]any{"ok": true}, http.StatusOK)

	case "delete":
		if req.RuleID == "" {
			writeJSON(w, map[string]any{"error": "rule_id required"}, http.StatusBadRequest)
			return
		}
		if err := a.rules.Delete(ctx, req.RuleID); err != nil {
			status, msg := http.StatusInternalServerError, "storage error"
			if errors.Is(err, rules.ErrNotFound) {
				status, msg = http.StatusNotFound, "rule not found"
			}
			writeJSON(w, map[string]any{"error": msg}, status)
			return
		}
		writeJSON(w, map[string]any{"ok": true}, http.StatusOK)

	case "list":
		items, err := a.rules.List(ctx, req.ShopID)
		if err != nil {
			writeJSON(w, map[string]any{"error": "storage error"}, http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"items": items}, http.StatusOK)

	case "logs":
		items, err := a.audit.List(ctx, req.RuleID, req.Limit)
		if err != nil {
			writeJSON(w, map[string]any{"error": "storage error"}, http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"items": items}, http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
