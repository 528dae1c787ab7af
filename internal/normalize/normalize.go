package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/vocab"
)

// FieldViolation records one field that failed validation, carrying the
// offending raw value so the sender and operator can see what the model
// actually produced.
type FieldViolation struct {
	Field  string
	Value  string
	Detail string
}

func (v FieldViolation) String() string {
	if v.Value == "" {
		return fmt.Sprintf("%s: %s", v.Field, v.Detail)
	}
	return fmt.Sprintf("%s: %q %s", v.Field, v.Value, v.Detail)
}

// ValidationError reports every violation found in one pass, so a single
// failed extraction surfaces complete diagnostics.
type ValidationError struct {
	Unparseable bool
	Violations  []FieldViolation
}

func (e *ValidationError) Error() string {
	if e.Unparseable {
		return "model response contains no parseable JSON payload"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "model response failed validation: " + strings.Join(parts, "; ")
}

// Fields is the validated output of normalization, ready to become a catalog
// record.
type Fields struct {
	ProductType string
	Color       string
	Brand       string
	Description string
}

const maxDescriptionLen = 250

// candidate holds the model's claimed fields before validation. Every field
// is optional; no structural assumption about the provider's output survives
// past this struct.
type candidate struct {
	Type        *string `json:"type"`
	Color       *string `json:"color"`
	Brand       *string `json:"brand"`
	Description *string `json:"description"`
}

// Normalizer validates raw model text against the controlled vocabularies.
type Normalizer struct {
	types  *vocab.Vocabulary
	colors *vocab.Vocabulary
}

// New creates a normalizer bound to the process vocabularies.
func New(types, colors *vocab.Vocabulary) *Normalizer {
	return &Normalizer{types: types, colors: colors}
}

// Normalize locates the JSON payload inside the raw model text, decodes it,
// and validates each field. Vocabulary membership is case-insensitive exact
// match; an out-of-vocabulary value is a hard violation, never coerced.
func (n *Normalizer) Normalize(raw string) (*Fields, error) {
	payload, ok := locateJSON(raw)
	if !ok {
		return nil, &ValidationError{Unparseable: true}
	}

	var cand candidate
	if err := json.Unmarshal([]byte(payload), &cand); err != nil {
		return nil, &ValidationError{Unparseable: true}
	}

	var violations []FieldViolation
	fields := &Fields{}

	if cand.Type == nil {
		violations = append(violations, FieldViolation{Field: "type", Detail: "missing required field"})
	} else if canonical, ok := n.types.Match(*cand.Type); ok {
		fields.ProductType = canonical
	} else {
		violations = append(violations, FieldViolation{Field: "type", Value: *cand.Type, Detail: "is not in the product type vocabulary"})
	}

	if cand.Color == nil {
		violations = append(violations, FieldViolation{Field: "color", Detail: "missing required field"})
	} else if canonical, ok := n.colors.Match(*cand.Color); ok {
		fields.Color = canonical
	} else {
		violations = append(violations, FieldViolation{Field: "color", Value: *cand.Color, Detail: "is not in the color vocabulary"})
	}

	if cand.Brand != nil {
		fields.Brand = strings.TrimSpace(*cand.Brand)
	}
	if cand.Description != nil {
		fields.Description = clamp(strings.TrimSpace(*cand.Description), maxDescriptionLen)
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return fields, nil
}

// locateJSON finds the structured payload inside possibly noisy model output.
// The model may wrap JSON in markdown fences or prose; the payload is taken
// as the span from the first '{' to the last '}'.
func locateJSON(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func clamp(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
