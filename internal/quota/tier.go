package quota

import (
	"fmt"
	"time"
)

// Tier represents the subscription level inferred from reset cadence.
type Tier string

const (
	// TierFree represents the free subscription tier.
	TierFree Tier = "FREE"
	// TierPro represents the paid pro subscription tier.
	TierPro Tier = "PRO"
	// TierUnknown represents an unknown subscription tier.
	TierUnknown Tier = "UNKNOWN"
)

// TierThreshold is the reset time threshold for tier detection.
// PRO quotas reset within a few hours, FREE quotas daily.
const TierThreshold = 6 * time.Hour

// DetectTier classifies a single reset time relative to now.
func DetectTier(resetTime string, now time.Time) Tier {
	t, ok := ParseTime(resetTime)
	if !ok || IsGoZeroTime(resetTime) {
		return TierUnknown
	}

	duration := t.Sub(now)
	if duration < 0 {
		// A reset within the last hour still reads as an hourly cadence.
		if duration > -1*time.Hour {
			return TierPro
		}
		return TierUnknown
	}
	if duration <= TierThreshold {
		return TierPro
	}
	return TierFree
}

// TierFromGroups determines the overall tier across groups.
// If any group shows PRO tier, the account is PRO.
func TierFromGroups(groups []Group, now time.Time) Tier {
	hasFree := false
	for _, g := range groups {
		switch DetectTier(g.ResetTime, now) {
		case TierPro:
			return TierPro
		case TierFree:
			hasFree = true
		}
	}
	if hasFree {
		return TierFree
	}
	return TierUnknown
}

// TimeUntilReset calculates the duration until the reset, never negative.
func TimeUntilReset(resetTime string, now time.Time) time.Duration {
	t, ok := ParseTime(resetTime)
	if !ok {
		return 0
	}
	d := t.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// FormatResetTime formats the reset time for display.
func FormatResetTime(resetTime string, now time.Time) string {
	if _, ok := ParseTime(resetTime); !ok || IsGoZeroTime(resetTime) {
		return "Unknown"
	}

	duration := TimeUntilReset(resetTime, now)
	if duration <= 0 {
		return "Now"
	}
	if duration < time.Minute {
		return "< 1m"
	}
	if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	}

	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
