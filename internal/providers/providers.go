// Package providers maps each provider's raw quota payload onto the canonical
// inputs of the quota core and runs the configured aggregation.
package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/quota"
)

// ErrUnknownProvider is returned when no decoder is registered for a provider.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider names.
const (
	Antigravity = "antigravity"
	GeminiCLI   = "gemini-cli"
	Claude      = "claude"
	Codex       = "codex"
)

// Readings is what a wire decoder extracts from a payload. Decoders fill
// Entries when the payload is a per-model map and Buckets when it already
// reports per-pool readings.
type Readings struct {
	Entries []quota.ProviderEntry
	Buckets []quota.RawBucket
}

type decodeFunc func(raw []byte, now time.Time) (Readings, error)

var decoders = map[string]decodeFunc{
	Antigravity: decodeAntigravity,
	GeminiCLI:   decodeGeminiCLI,
	Claude:      decodeClaude,
	Codex:       decodeCodex,
}

var aliases = map[string]string{
	"gemini":    GeminiCLI,
	"geminicli": GeminiCLI,
	"anthropic": Claude,
	"openai":    Codex,
}

// Canonical resolves a provider name or alias to its registered name.
func Canonical(provider string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(provider))
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	_, ok := decoders[name]
	return name, ok
}

// Names returns the registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read runs the provider's wire decoder without aggregating.
func Read(provider string, raw []byte, now time.Time) (Readings, error) {
	name, ok := Canonical(provider)
	if !ok {
		return Readings{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	readings, err := decoders[name](raw, now)
	if err != nil {
		return Readings{}, fmt.Errorf("failed to decode %s payload: %w", name, err)
	}
	return readings, nil
}

// Decode turns a raw provider payload into quota groups using rules.
func Decode(provider string, raw []byte, rules *config.Rules, now time.Time) ([]quota.Group, error) {
	readings, err := Read(provider, raw, now)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = config.DefaultRules()
	}
	name, _ := Canonical(provider)
	return Aggregate(name, readings, rules), nil
}

// Aggregate runs readings through the Builder or the Grouper depending on the
// provider's configured mode. Without a mode, entries go to the Builder and
// buckets to the Grouper.
func Aggregate(provider string, readings Readings, rules *config.Rules) []quota.Group {
	mode := rules.Provider(provider).Mode
	if mode == "" {
		mode = config.ModeGrouper
		if len(readings.Entries) > 0 {
			mode = config.ModeBuilder
		}
	}

	if mode == config.ModeBuilder {
		entries := readings.Entries
		if len(entries) == 0 {
			entries = bucketsToEntries(readings.Buckets)
		}
		return rules.Builder().Build(entries)
	}

	buckets := readings.Buckets
	if len(buckets) == 0 {
		buckets = entriesToBuckets(readings.Entries)
	}
	return rules.Grouper(provider).Group(buckets)
}

// entriesToBuckets applies the Builder's reset-without-fraction rule so both
// modes agree on exhausted entries.
func entriesToBuckets(entries []quota.ProviderEntry) []quota.RawBucket {
	buckets := make([]quota.RawBucket, 0, len(entries))
	for _, e := range entries {
		fraction := quota.FractionPtr(e.Remaining)
		if fraction == nil && e.ResetTime == "" {
			continue
		}
		if fraction == nil {
			zero := 0.0
			fraction = &zero
		}
		buckets = append(buckets, quota.RawBucket{
			ModelID:           e.ModelID,
			RemainingFraction: fraction,
			ResetTime:         e.ResetTime,
		})
	}
	return buckets
}

func bucketsToEntries(buckets []quota.RawBucket) []quota.ProviderEntry {
	entries := make([]quota.ProviderEntry, 0, len(buckets))
	for _, b := range buckets {
		var remaining any
		if b.RemainingFraction != nil {
			remaining = *b.RemainingFraction
		}
		entries = append(entries, quota.ProviderEntry{
			ModelID:   b.ModelID,
			Remaining: remaining,
			ResetTime: b.ResetTime,
		})
	}
	return entries
}

// rawValue decodes a JSON scalar for the fraction normalizer. Missing and null
// values become nil.
func rawValue(m json.RawMessage) any {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || bytes.Equal(m, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(m))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// firstString returns the first non-blank value.
func firstString(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// unixTime renders seconds since the epoch as an RFC3339 UTC string.
func unixTime(secs float64) string {
	if secs <= 0 {
		return ""
	}
	return time.Unix(int64(secs), 0).UTC().Format(time.RFC3339)
}

// usedPercentToFraction converts a 0-100 utilization into a remaining fraction.
func usedPercentToFraction(used *float64) *float64 {
	if used == nil {
		return nil
	}
	return quota.FractionPtr(1 - *used/100)
}
