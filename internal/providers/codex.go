package providers

import (
	"encoding/json"
	"time"

	"github.com/j-veylop/authquota/internal/quota"
)

type codexWindow struct {
	UsedPercent       *float64 `json:"used_percent"`
	ResetAt           float64  `json:"reset_at"`
	ResetAfterSeconds float64  `json:"reset_after_seconds"`
}

func (w *codexWindow) bucket(id string, now time.Time) quota.RawBucket {
	reset := unixTime(w.ResetAt)
	if reset == "" && w.ResetAfterSeconds > 0 {
		at := now.Add(time.Duration(w.ResetAfterSeconds * float64(time.Second)))
		reset = at.UTC().Format(time.RFC3339)
	}
	return quota.RawBucket{
		ModelID:           id,
		RemainingFraction: usedPercentToFraction(w.UsedPercent),
		ResetTime:         reset,
	}
}

type codexRateLimit struct {
	PrimaryWindow   *codexWindow `json:"primary_window"`
	SecondaryWindow *codexWindow `json:"secondary_window"`
	Primary         *codexWindow `json:"primary"`
	Secondary       *codexWindow `json:"secondary"`
}

type codexUsage struct {
	RateLimit           *codexRateLimit `json:"rate_limit"`
	RateLimits          *codexRateLimit `json:"rate_limits"`
	CodeReviewRateLimit *codexRateLimit `json:"code_review_rate_limit"`
}

// decodeCodex reads the ChatGPT usage response. Windows carry a 0-100
// used_percent and either an absolute reset_at or a relative
// reset_after_seconds, resolved against now.
func decodeCodex(raw []byte, now time.Time) (Readings, error) {
	var usage codexUsage
	if err := json.Unmarshal(raw, &usage); err != nil {
		return Readings{}, err
	}

	rl := usage.RateLimit
	if rl == nil {
		rl = usage.RateLimits
	}

	var buckets []quota.RawBucket
	add := func(id string, windows ...*codexWindow) {
		for _, w := range windows {
			if w != nil {
				buckets = append(buckets, w.bucket(id, now))
				return
			}
		}
	}
	if rl != nil {
		add("primary_window", rl.PrimaryWindow, rl.Primary)
		add("secondary_window", rl.SecondaryWindow, rl.Secondary)
	}
	if cr := usage.CodeReviewRateLimit; cr != nil {
		add("code_review_primary_window", cr.PrimaryWindow, cr.Primary)
	}
	return Readings{Buckets: buckets}, nil
}
