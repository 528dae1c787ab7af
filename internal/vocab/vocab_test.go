package vocab

import "testing"

func TestMatch(t *testing.T) {
	v := New("color", []string{"Black", "white", "navy"})

	tests := []struct {
		name      string
		raw       string
		canonical string
		ok        bool
	}{
		{name: "exact lowercase", raw: "black", canonical: "black", ok: true},
		{name: "mixed case", raw: "BlAcK", canonical: "black", ok: true},
		{name: "surrounding whitespace", raw: "  navy ", canonical: "navy", ok: true},
		{name: "out of vocabulary", raw: "mauve", ok: false},
		{name: "no fuzzy match", raw: "blak", ok: false},
		{name: "empty", raw: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Match(tt.raw)
			if ok != tt.ok {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.canonical {
				t.Errorf("Match(%q) = %q, want %q", tt.raw, got, tt.canonical)
			}
		})
	}
}

func TestNewDeduplicates(t *testing.T) {
	v := New("color", []string{"gray", "Gray", " GRAY ", "grey"})
	if v.Len() != 2 {
		t.Errorf("expected 2 values after dedup, got %d: %v", v.Len(), v.Values())
	}
}

func TestValuesIsACopy(t *testing.T) {
	v := New("type", []string{"shirt", "pants"})
	vals := v.Values()
	vals[0] = "mutated"
	if got := v.Values()[0]; got != "shirt" {
		t.Errorf("internal values mutated through Values() copy: %q", got)
	}
}
