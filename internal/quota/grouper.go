package quota

import "math"

// Grouper merges raw per-model buckets into logical quota groups.
type Grouper struct {
	Definitions Definitions
	Ignored     IgnoreSet
}

type groupAccumulator struct {
	def       GroupDefinition
	tokenType string
	modelIDs  []string
	seenIDs   map[string]struct{}

	preferred *RawBucket

	fraction *float64
	amount   *float64
	reset    string
}

func (a *groupAccumulator) addModel(id string) {
	if _, ok := a.seenIDs[id]; ok {
		return
	}
	a.seenIDs[id] = struct{}{}
	a.modelIDs = append(a.modelIDs, id)
}

func (a *groupAccumulator) fold(b RawBucket) {
	if a.def.PreferredModelID != "" && b.ModelID == a.def.PreferredModelID {
		preferred := b
		a.preferred = &preferred
		return
	}
	a.fraction = MinOptional(a.fraction, b.RemainingFraction)
	a.amount = MinOptional(a.amount, b.RemainingAmount)
	a.reset = PickEarlier(a.reset, b.ResetTime)
}

func (a *groupAccumulator) group() Group {
	g := Group{
		ID:        a.def.ID,
		Label:     a.def.Label,
		ModelIDs:  append([]string(nil), a.modelIDs...),
		TokenType: a.tokenType,
	}
	if a.preferred != nil {
		g.RemainingFraction = clampPtr(a.preferred.RemainingFraction)
		g.RemainingAmount = copyFloat(a.preferred.RemainingAmount)
		g.ResetTime = a.preferred.ResetTime
		return g
	}
	g.RemainingFraction = clampPtr(a.fraction)
	g.RemainingAmount = copyFloat(a.amount)
	g.ResetTime = a.reset
	return g
}

// Group aggregates buckets. Buckets of ignored models are dropped; the rest are
// keyed by their definition's group id and token type. Groups come back in
// first-seen key order. When a group's preferred model reported a bucket, that
// bucket's values are used verbatim; otherwise fraction and amount are the
// minimum across members and the reset time is the earliest.
func (g Grouper) Group(buckets []RawBucket) []Group {
	order := make([]string, 0, len(buckets))
	accs := make(map[string]*groupAccumulator, len(buckets))

	for _, b := range buckets {
		if b.ModelID == "" || g.Ignored.Contains(b.ModelID) {
			continue
		}
		def := g.Definitions.Lookup(b.ModelID)
		key := def.ID + "::" + b.TokenType

		acc, ok := accs[key]
		if !ok {
			acc = &groupAccumulator{
				def:       def,
				tokenType: b.TokenType,
				seenIDs:   make(map[string]struct{}),
			}
			accs[key] = acc
			order = append(order, key)
		}
		acc.addModel(b.ModelID)
		acc.fold(b)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, accs[key].group())
	}
	return groups
}

func clampPtr(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	out := clampFraction(*v)
	return &out
}
