// pkg/audit/model.go
package audit

import "time"

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Record is one append-only outcome row: exactly one per rule per processing
// pass in which the rule was active, whatever the result. Records keep the
// rule and shop ids as plain values so history survives rule deletion.
type Record struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	ShopID       int64     `json:"shop_id"`
	CampaignID   int64     `json:"campaign_id"`
	AppliedValue float64   `json:"applied_value"`
	Status       string    `json:"status"`
	ErrorDetail  string    `json:"error_detail,omitempty"`
	ExecutedAt   time.Time `json:"executed_at"`
}

func (r Record) Success() bool { return r.Status == StatusSuccess }
