package quota

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeFraction converts a raw "remaining quota" value into a fraction in
// [0, 1]. Numbers and numeric strings are taken as fractions, strings with a
// trailing "%" as percentages. The second return value is false when the input
// is missing or cannot be interpreted.
func NormalizeFraction(v any) (float64, bool) {
	f, ok := numericValue(v)
	if !ok {
		return 0, false
	}
	return clampFraction(f), true
}

// FractionPtr is NormalizeFraction in nullable form.
func FractionPtr(v any) *float64 {
	f, ok := NormalizeFraction(v)
	if !ok {
		return nil
	}
	return &f
}

// AmountPtr parses an absolute remaining count. Gemini sends these as decimal
// strings, other providers as JSON numbers.
func AmountPtr(v any) *float64 {
	if s, ok := v.(string); ok && strings.HasSuffix(strings.TrimSpace(s), "%") {
		return nil
	}
	f, ok := numericValue(v)
	if !ok {
		return nil
	}
	return &f
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		return parseNumericString(val)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
