package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/j-veylop/authquota/internal/quota"
)

// Aggregation modes for a provider.
const (
	ModeBuilder = "builder"
	ModeGrouper = "grouper"
)

//go:embed default_rules.toml
var defaultRulesTOML []byte

// Rules is the quota aggregation configuration handed to the core.
type Rules struct {
	Family        *quota.FamilyRule        `toml:"family"`
	Providers     map[string]ProviderRules `toml:"providers"`
	IgnoredModels []string                 `toml:"ignored_models"`
}

// ProviderRules configures aggregation for one provider.
type ProviderRules struct {
	Mode   string                  `toml:"mode"`
	Groups []quota.GroupDefinition `toml:"groups"`
}

// DefaultRules returns the embedded rule set.
func DefaultRules() *Rules {
	r, err := parseRules(defaultRulesTOML)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded rules: %v", err))
	}
	return r
}

// LoadRules reads a rules file and overlays it on the defaults. A missing file
// or empty path yields the defaults. Top-level keys present in the file
// replace the default value for that key; providers are replaced one by one.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	override, err := parseRules(b)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", path, err)
	}
	rules.merge(override)
	return rules, nil
}

func parseRules(b []byte) (*Rules, error) {
	var r Rules
	if err := toml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) merge(o *Rules) {
	if o.IgnoredModels != nil {
		r.IgnoredModels = o.IgnoredModels
	}
	if o.Family != nil {
		r.Family = o.Family
	}
	if r.Providers == nil {
		r.Providers = make(map[string]ProviderRules, len(o.Providers))
	}
	for name, p := range o.Providers {
		r.Providers[normalizeProvider(name)] = p
	}
}

// Validate checks group definitions and the family rule.
func (r *Rules) Validate() error {
	if r.Family != nil && r.Family.Prefix != "" && r.Family.GroupID == "" {
		return errors.New("family rule needs a group_id")
	}
	for name, p := range r.Providers {
		switch p.Mode {
		case "", ModeBuilder, ModeGrouper:
		default:
			return fmt.Errorf("provider %s: unknown mode %q", name, p.Mode)
		}
		for i, g := range p.Groups {
			if strings.TrimSpace(g.ID) == "" {
				return fmt.Errorf("provider %s: group %d has no id", name, i)
			}
			if len(g.ModelIDs) == 0 {
				return fmt.Errorf("provider %s: group %s has no models", name, g.ID)
			}
		}
	}
	return nil
}

// IgnoreSet returns the ignored model ids as a set.
func (r *Rules) IgnoreSet() quota.IgnoreSet {
	return quota.NewIgnoreSet(r.IgnoredModels...)
}

// FamilyRule returns the configured family rule. A nil rule disables merging.
func (r *Rules) FamilyRule() quota.FamilyRule {
	if r.Family == nil {
		return quota.FamilyRule{}
	}
	return *r.Family
}

// Provider returns the rules for a provider name, matched case-insensitively.
func (r *Rules) Provider(name string) ProviderRules {
	return r.Providers[normalizeProvider(name)]
}

// ProviderNames returns the configured provider names, sorted.
func (r *Rules) ProviderNames() []string {
	names := make([]string, 0, len(r.Providers))
	for name := range r.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Grouper returns a bucket grouper configured for provider.
func (r *Rules) Grouper(provider string) quota.Grouper {
	return quota.Grouper{
		Definitions: quota.NewDefinitions(r.Provider(provider).Groups...),
		Ignored:     r.IgnoreSet(),
	}
}

// Builder returns a group builder with the configured family rule.
func (r *Rules) Builder() quota.Builder {
	return quota.Builder{
		Ignored: r.IgnoreSet(),
		Family:  r.FamilyRule(),
	}
}

// Encode renders the rules as TOML.
func (r *Rules) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetArraysMultiline(true)
	enc.SetIndentSymbol("  ")
	enc.SetIndentTables(true)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
