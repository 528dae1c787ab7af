package vocab

import "strings"

// Vocabulary is a closed set of allowed values for a single catalog field.
// The set is immutable after construction and safe for concurrent readers.
type Vocabulary struct {
	name      string
	values    []string
	canonical map[string]string
}

// New builds a vocabulary from the given values. Matching is case-insensitive;
// the canonical form of each value is its lowercased, trimmed spelling.
func New(name string, values []string) *Vocabulary {
	v := &Vocabulary{
		name:      name,
		canonical: make(map[string]string, len(values)),
	}
	for _, raw := range values {
		c := strings.ToLower(strings.TrimSpace(raw))
		if c == "" {
			continue
		}
		if _, exists := v.canonical[c]; exists {
			continue
		}
		v.canonical[c] = c
		v.values = append(v.values, c)
	}
	return v
}

// Name returns the field name this vocabulary constrains.
func (v *Vocabulary) Name() string {
	return v.name
}

// Match reports whether raw belongs to the vocabulary and returns its
// canonical form. Matching is exact after trimming and lowercasing; no
// fuzzy correction is attempted.
func (v *Vocabulary) Match(raw string) (string, bool) {
	c, ok := v.canonical[strings.ToLower(strings.TrimSpace(raw))]
	return c, ok
}

// Values returns a copy of the canonical values in load order.
func (v *Vocabulary) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// Len returns the number of values in the vocabulary.
func (v *Vocabulary) Len() int {
	return len(v.values)
}
