package quota

import (
	"strings"

	"github.com/samber/lo"
)

// Builder turns a provider's per-model entries into groups, one per model,
// except for the configured model family which always collapses into a single
// group placed first.
type Builder struct {
	Ignored IgnoreSet
	Family  FamilyRule
}

func (b Builder) inFamily(modelID string) bool {
	prefix := strings.ToLower(b.Family.Prefix)
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(modelID), prefix)
}

// Build aggregates entries in order. An entry whose fraction is unknown but
// which carries a reset time is reported as exhausted (fraction 0); an entry
// with neither is dropped.
func (b Builder) Build(entries []ProviderEntry) []Group {
	var family *Group
	groups := make([]Group, 0, len(entries))

	for _, entry := range entries {
		if entry.ModelID == "" || b.Ignored.Contains(entry.ModelID) {
			continue
		}
		fraction := FractionPtr(entry.Remaining)
		if fraction == nil && entry.ResetTime != "" {
			zero := 0.0
			fraction = &zero
		}
		if fraction == nil && entry.ResetTime == "" {
			continue
		}

		if b.inFamily(entry.ModelID) {
			if family == nil {
				family = &Group{
					ID:                b.Family.GroupID,
					Label:             b.Family.Label,
					RemainingFraction: copyFloat(fraction),
					ResetTime:         entry.ResetTime,
				}
			} else {
				family.RemainingFraction = MinOptional(family.RemainingFraction, fraction)
				family.ResetTime = PickEarlier(family.ResetTime, entry.ResetTime)
			}
			if !lo.Contains(family.ModelIDs, entry.ModelID) {
				family.ModelIDs = append(family.ModelIDs, entry.ModelID)
			}
			continue
		}

		label := strings.TrimSpace(entry.DisplayName)
		if label == "" {
			label = entry.ModelID
		}
		groups = append(groups, Group{
			ID:                entry.ModelID,
			Label:             label,
			ModelIDs:          []string{entry.ModelID},
			RemainingFraction: fraction,
			ResetTime:         entry.ResetTime,
		})
	}

	if family == nil {
		return groups
	}
	return append([]Group{*family}, groups...)
}
