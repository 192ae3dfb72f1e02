// internal/schedule/matcher.go
package schedule

import (
	"fmt"
	"sort"
	"time"

	"pacer/pkg/rules"
)

// Matcher evaluates rule windows against the clock in one fixed timezone.
// The zone is process-wide configuration, not the host's local zone, so
// schedules behave identically wherever the cron trigger runs.
type Matcher struct {
	loc *time.Location
}

func NewMatcher(tzName string) (*Matcher, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone %q: %w", tzName, err)
	}
	return &Matcher{loc: loc}, nil
}

// At reports the scheduling hour and weekday for now.
func (m *Matcher) At(now time.Time) (hour int, day time.Weekday) {
	local := now.In(m.loc)
	return local.Hour(), local.Weekday()
}

// ActiveRules returns the rules whose window covers now: active, hour within
// the half-open [start,end) range, and weekday in the rule's day set (empty
// set = every day). Output is ordered by shop then rule id so processing and
// audit order are reproducible.
func (m *Matcher) ActiveRules(now time.Time, all []rules.Rule) []rules.Rule {
	hour, day := m.At(now)
	var out []rules.Rule
	for _, r := range all {
		if !r.Active {
			continue
		}
		if !r.MatchesHour(hour) {
			continue
		}
		if !r.MatchesDay(day) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShopID != out[j].ShopID {
			return out[i].ShopID < out[j].ShopID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
