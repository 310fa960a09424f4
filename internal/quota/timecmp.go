package quota

import (
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
}

// ParseTime parses a provider timestamp. The zero time and false are returned
// for empty or unparsable input.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PickEarlier returns whichever of a and b is chronologically earlier, as the
// original string. An empty or unparsable value loses to the other one; on an
// exact tie a wins.
func PickEarlier(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	ta, okA := ParseTime(a)
	tb, okB := ParseTime(b)
	switch {
	case !okA && !okB:
		return a
	case !okA:
		return b
	case !okB:
		return a
	}
	if tb.Before(ta) {
		return b
	}
	return a
}

// MinOptional returns the smaller of a and b. Nil means absent, not zero: if
// either side is nil the other is returned.
func MinOptional(a, b *float64) *float64 {
	if a == nil {
		return copyFloat(b)
	}
	if b == nil {
		return copyFloat(a)
	}
	if *b < *a {
		return copyFloat(b)
	}
	return copyFloat(a)
}
