package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange24Hours shows data from the last 24 hours.
	TimeRange24Hours TimeRange = iota
	// TimeRange7Days shows data from the last 7 days.
	TimeRange7Days
	// TimeRange30Days shows data from the last 30 days.
	TimeRange30Days
	// TimeRangeAllTime shows all available historical data.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Days returns the number of days for the time range (0 = unlimited).
func (t TimeRange) Days() int {
	switch t {
	case TimeRange24Hours:
		return 1
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRangeAllTime:
		return 0
	default:
		return 30
	}
}

// Since returns the start of the range relative to now. All Time yields the
// zero time.
func (t TimeRange) Since(now time.Time) time.Time {
	days := t.Days()
	if days == 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -days)
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// GroupSnapshot is one recorded reading of a quota group (DB model).
type GroupSnapshot struct {
	Timestamp         time.Time
	RemainingFraction *float64
	RemainingAmount   *float64
	RefreshID         string
	AuthName          string
	Provider          string
	GroupID           string
	Label             string
	ResetTime         string
	ID                int64
}

// GroupHistoryStats summarizes a group's recorded history.
type GroupHistoryStats struct {
	FirstDataPoint  time.Time
	LastDataPoint   time.Time
	LastExhaustedAt time.Time
	AuthName        string
	GroupID         string
	Current         float64
	Min             float64
	Max             float64
	Avg             float64
	DataPoints      int
	Exhaustions     int
}

// HasData returns true if the group has any historical data.
func (s *GroupHistoryStats) HasData() bool {
	return s.DataPoints > 0
}

// SummarizeHistory computes stats over snapshots ordered oldest first.
// Snapshots without a known fraction are skipped. An exhaustion is counted
// each time the fraction drops to zero from a positive reading.
func SummarizeHistory(authName, groupID string, snapshots []GroupSnapshot) GroupHistoryStats {
	stats := GroupHistoryStats{AuthName: authName, GroupID: groupID}

	var sum float64
	prevPositive := false
	for _, s := range snapshots {
		if s.RemainingFraction == nil {
			continue
		}
		f := *s.RemainingFraction
		if stats.DataPoints == 0 {
			stats.FirstDataPoint = s.Timestamp
			stats.Min = f
			stats.Max = f
		}
		stats.DataPoints++
		sum += f
		stats.Min = min(stats.Min, f)
		stats.Max = max(stats.Max, f)
		stats.Current = f
		stats.LastDataPoint = s.Timestamp

		if f <= 0 && prevPositive {
			stats.Exhaustions++
			stats.LastExhaustedAt = s.Timestamp
		}
		prevPositive = f > 0
	}

	if stats.DataPoints > 0 {
		stats.Avg = sum / float64(stats.DataPoints)
	}
	return stats
}

// Percentages converts snapshots to remaining percentages for charting.
// Unknown readings are skipped.
func Percentages(snapshots []GroupSnapshot) []float64 {
	out := make([]float64, 0, len(snapshots))
	for _, s := range snapshots {
		if s.RemainingFraction == nil {
			continue
		}
		out = append(out, *s.RemainingFraction*100)
	}
	return out
}
