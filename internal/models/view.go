package models

import (
	"time"

	"github.com/j-veylop/authquota/internal/quota"
)

// QuotaView combines an auth file with its aggregated quota groups.
type QuotaView struct {
	FetchedAt    time.Time
	AuthFile     AuthFile
	PayloadError string
	Tier         quota.Tier
	Groups       []quota.Group
	// ExhaustedError and NeverRecover mirror the display badges.
	ExhaustedError bool
	NeverRecover   bool
}

// HasGroups reports whether any quota group is known for the auth file.
func (v *QuotaView) HasGroups() bool {
	return len(v.Groups) > 0
}

// LowestFraction returns the smallest known remaining fraction across groups.
func (v *QuotaView) LowestFraction() (float64, bool) {
	lowest, found := 0.0, false
	for _, g := range v.Groups {
		if g.RemainingFraction == nil {
			continue
		}
		if !found || *g.RemainingFraction < lowest {
			lowest = *g.RemainingFraction
			found = true
		}
	}
	return lowest, found
}

// ExhaustedGroups returns the ids of groups with no remaining quota.
func (v *QuotaView) ExhaustedGroups() []string {
	var ids []string
	for _, g := range v.Groups {
		if quota.IsExhausted(g) {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

// Group returns the group with the given id.
func (v *QuotaView) Group(id string) (quota.Group, bool) {
	for _, g := range v.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return quota.Group{}, false
}
