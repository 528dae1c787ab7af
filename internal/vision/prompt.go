package vision

import (
	"fmt"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/vocab"
)

// BuildPrompt constructs the analysis prompt with both controlled
// vocabularies embedded verbatim, so the model is constrained to choose from
// them rather than inventing labels.
func BuildPrompt(types, colors *vocab.Vocabulary) string {
	return fmt.Sprintf(`You are an expert product cataloger. Analyze this product photo and describe it in JSON format.

**STRICT VOCABULARY REQUIREMENTS:**
- type: MUST be exactly one of: %s
- color: MUST be exactly one of: %s

**Required JSON Response:**
{
    "type": "Product type from the vocabulary list above",
    "color": "Primary/dominant color from the vocabulary list above",
    "brand": "Brand name if clearly visible, otherwise an empty string",
    "description": "Product description focusing on visible features (max 250 characters)"
}

**Analysis Guidelines:**
- Focus on clearly visible features only
- Pick the single dominant color
- Do not invent a brand that is not legible in the photo
- Note any damage, wear, or quality indicators in the description

Provide ONLY the JSON response, no additional text.`,
		strings.Join(types.Values(), ", "),
		strings.Join(colors.Values(), ", "),
	)
}
