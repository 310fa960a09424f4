// Package quota normalizes heterogeneous provider quota payloads into canonical
// quota groups. Every function in this package is pure: inputs are never
// retained or mutated and each call returns freshly allocated values.
package quota

// RawBucket is a single per-model quota reading before aggregation.
type RawBucket struct {
	ModelID           string
	TokenType         string
	RemainingFraction *float64
	RemainingAmount   *float64
	ResetTime         string
}

// Group is the aggregated quota record the presentation layer renders.
type Group struct {
	ID                string   `json:"id"`
	Label             string   `json:"label"`
	ModelIDs          []string `json:"models"`
	RemainingFraction *float64 `json:"remainingFraction"`
	RemainingAmount   *float64 `json:"remainingAmount,omitempty"`
	ResetTime         string   `json:"resetTime,omitempty"`
	TokenType         string   `json:"tokenType,omitempty"`
}

// GroupDefinition is static provider configuration describing which raw model
// ids form one logical quota group.
type GroupDefinition struct {
	ID               string   `toml:"id"`
	Label            string   `toml:"label"`
	PreferredModelID string   `toml:"preferred_model,omitempty"`
	ModelIDs         []string `toml:"models"`
}

// Definitions indexes group definitions by raw model id.
type Definitions map[string]GroupDefinition

// NewDefinitions builds a model id index. When a model id appears in more than
// one definition the first definition wins.
func NewDefinitions(defs ...GroupDefinition) Definitions {
	index := make(Definitions)
	for _, def := range defs {
		for _, id := range def.ModelIDs {
			if _, ok := index[id]; ok {
				continue
			}
			index[id] = def
		}
	}
	return index
}

// Lookup returns the definition for modelID. Unknown models get a synthetic
// definition whose id and label are the model id itself.
func (d Definitions) Lookup(modelID string) GroupDefinition {
	if def, ok := d[modelID]; ok {
		return def
	}
	return GroupDefinition{ID: modelID, Label: modelID}
}

// ProviderEntry is the canonical per-model entry handed to the Builder once a
// provider decoder has resolved its wire shape.
type ProviderEntry struct {
	ModelID     string
	DisplayName string
	// Remaining is the raw remaining-quota value exactly as the provider sent
	// it; the Builder runs it through NormalizeFraction.
	Remaining any
	ResetTime string
}

// FamilyRule folds every model whose id starts with Prefix (case-insensitive)
// into a single synthesized group.
type FamilyRule struct {
	Prefix  string `toml:"prefix"`
	GroupID string `toml:"group_id"`
	Label   string `toml:"label"`
}

// DefaultFamilyRule merges every Claude model variant into one badge.
func DefaultFamilyRule() FamilyRule {
	return FamilyRule{Prefix: "claude", GroupID: "claude-merged", Label: "Claude"}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
