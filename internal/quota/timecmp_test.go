package quota

import "testing"

func TestPickEarlier(t *testing.T) {
	const (
		early = "2025-01-01T10:00:00Z"
		late  = "2025-01-01T12:00:00Z"
	)

	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"BothEmpty", "", "", ""},
		{"OnlyA", early, "", early},
		{"OnlyB", "", late, late},
		{"AEarlier", early, late, early},
		{"BEarlier", late, early, early},
		{"AUnparsable", "not-a-date", late, late},
		{"BUnparsable", early, "not-a-date", early},
		{"BothUnparsable", "x", "y", "x"},
		{"TieFavorsFirst", "2025-01-01T10:00:00Z", "2025-01-01T11:00:00+01:00", "2025-01-01T10:00:00Z"},
		{"OriginalStringKept", "2025-01-01T11:30:00+02:00", early, "2025-01-01T11:30:00+02:00"},
		{"Millis", "2025-01-01T09:00:00.000Z", early, "2025-01-01T09:00:00.000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickEarlier(tt.a, tt.b); got != tt.want {
				t.Errorf("PickEarlier(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPickEarlier_Commutative(t *testing.T) {
	values := []string{
		"",
		"garbage",
		"2025-03-01T00:00:00Z",
		"2025-02-01T00:00:00Z",
		"2025-02-01T00:00:00.5Z",
	}
	for _, a := range values {
		for _, b := range values {
			if a == "garbage" && b == "garbage" {
				continue
			}
			ab, ba := PickEarlier(a, b), PickEarlier(b, a)
			ta, _ := ParseTime(ab)
			tb, _ := ParseTime(ba)
			if !ta.Equal(tb) {
				t.Errorf("PickEarlier not commutative for %q, %q: %q vs %q", a, b, ab, ba)
			}
		}
	}
}

func TestMinOptional(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
		want *float64
	}{
		{"BothNil", nil, nil, nil},
		{"LeftNil", nil, ptr(0.4), ptr(0.4)},
		{"RightNil", ptr(0.4), nil, ptr(0.4)},
		{"ZeroIsNotAbsence", ptr(0), nil, ptr(0)},
		{"Min", ptr(0.8), ptr(0.3), ptr(0.3)},
		{"MinReversed", ptr(0.3), ptr(0.8), ptr(0.3)},
		{"Equal", ptr(0.5), ptr(0.5), ptr(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinOptional(tt.a, tt.b)
			if !floatPtrEqual(got, tt.want) {
				t.Errorf("MinOptional(%s, %s) = %s, want %s", fmtPtr(tt.a), fmtPtr(tt.b), fmtPtr(got), fmtPtr(tt.want))
			}
		})
	}
}

func TestMinOptional_DoesNotAlias(t *testing.T) {
	a := ptr(0.2)
	got := MinOptional(a, nil)
	*got = 0.9
	if *a != 0.2 {
		t.Errorf("MinOptional result aliases its input")
	}
}

func TestIgnoreSet(t *testing.T) {
	set := NewIgnoreSet("gemini-1.5-pro", "chat_20706")

	tests := []struct {
		id   string
		want bool
	}{
		{"gemini-1.5-pro", true},
		{"chat_20706", true},
		{"Gemini-1.5-Pro", false},
		{"gemini-1.5-pro-002", false},
		{"gemini-1.5", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := set.Contains(tt.id); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}

	var zero IgnoreSet
	if zero.Contains("anything") {
		t.Error("zero IgnoreSet should ignore nothing")
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
}
