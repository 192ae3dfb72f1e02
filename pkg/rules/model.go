// pkg/rules/model.go
package rules

import (
	"fmt"
	"time"
)

// Kind selects which campaign surface a rule adjusts.
type Kind string

const (
	KindAuto   Kind = "auto"   // auto-bidding campaigns
	KindManual Kind = "manual" // manually bid campaigns
)

func (k Kind) Valid() bool { return k == KindAuto || k == KindManual }

// Rule is a time-windowed budget instruction: while the window is open, the
// campaign's daily budget is set to Budget. Hours form a half-open range
// [HourStart, HourEnd) in the process scheduling timezone. An empty Days set
// means every day.
type Rule struct {
	ID         string    `json:"rule_id" yaml:"rule_id"`
	ShopID     int64     `json:"shop_id" yaml:"shop_id"`
	CampaignID int64     `json:"campaign_id" yaml:"campaign_id"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	HourStart  int       `json:"hour_start" yaml:"hour_start"`
	HourEnd    int       `json:"hour_end" yaml:"hour_end"`
	Days       []int     `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"` // 0=Sunday .. 6=Saturday
	Budget     float64   `json:"budget" yaml:"budget"`
	Active     bool      `json:"active" yaml:"active"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Validate rejects malformed rules before they reach storage or the
// marketplace.
func (r Rule) Validate() error {
	if r.ShopID <= 0 {
		return fmt.Errorf("shop_id required")
	}
	if r.CampaignID <= 0 {
		return fmt.Errorf("campaign_id required")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("kind must be %q or %q", KindAuto, KindManual)
	}
	if r.HourStart < 0 || r.HourStart > 23 {
		return fmt.Errorf("hour_start out of range [0,24)")
	}
	if r.HourEnd < 1 || r.HourEnd > 24 {
		return fmt.Errorf("hour_end out of range (0,24]")
	}
	if r.HourStart >= r.HourEnd {
		return fmt.Errorf("hour_start must be before hour_end")
	}
	for _, d := range r.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("days_of_week entries must be 0..6")
		}
	}
	if r.Budget <= 0 {
		return fmt.Errorf("budget must be positive")
	}
	return nil
}

// MatchesDay reports whether the rule applies on the given weekday.
func (r Rule) MatchesDay(day time.Weekday) bool {
	if len(r.Days) == 0 {
		return true
	}
	for _, d := range r.Days {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// MatchesHour applies the half-open hour window.
func (r Rule) MatchesHour(hour int) bool {
	return hour >= r.HourStart && hour < r.HourEnd
}
