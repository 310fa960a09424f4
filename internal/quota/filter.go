package quota

// IgnoreSet holds model ids that never take part in aggregation. Matching is
// exact and case-sensitive. The zero value ignores nothing.
type IgnoreSet struct {
	ids map[string]struct{}
}

// NewIgnoreSet builds an ignore set from ids.
func NewIgnoreSet(ids ...string) IgnoreSet {
	set := IgnoreSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Contains reports whether modelID is ignored.
func (s IgnoreSet) Contains(modelID string) bool {
	_, ok := s.ids[modelID]
	return ok
}

// Len returns the number of ignored ids.
func (s IgnoreSet) Len() int {
	return len(s.ids)
}
