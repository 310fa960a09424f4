package providers

import (
	"encoding/json"
	"time"

	"github.com/j-veylop/authquota/internal/quota"
)

// claudeWindows lists the OAuth usage windows in display order.
var claudeWindows = []string{"five_hour", "seven_day", "seven_day_opus", "seven_day_sonnet"}

type claudeWindow struct {
	Utilization      *float64 `json:"utilization"`
	RemainingPercent *float64 `json:"remaining_percent"`
	ResetsAt         string   `json:"resets_at"`
}

// decodeClaude reads the OAuth usage response. Utilization is a 0-100 used
// percentage; remaining_percent, when present, takes precedence.
func decodeClaude(raw []byte, _ time.Time) (Readings, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Readings{}, err
	}

	var buckets []quota.RawBucket
	for _, name := range claudeWindows {
		var w *claudeWindow
		if err := json.Unmarshal(fields[name], &w); err != nil || w == nil {
			continue
		}
		fraction := usedPercentToFraction(w.Utilization)
		if w.RemainingPercent != nil {
			fraction = quota.FractionPtr(*w.RemainingPercent / 100)
		}
		if fraction == nil && w.ResetsAt == "" {
			continue
		}
		buckets = append(buckets, quota.RawBucket{
			ModelID:           name,
			RemainingFraction: fraction,
			ResetTime:         w.ResetsAt,
		})
	}
	return Readings{Buckets: buckets}, nil
}
