package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ajuraforce/photo-product-analyzer/internal/catalog"
	"github.com/ajuraforce/photo-product-analyzer/internal/normalize"
	"github.com/ajuraforce/photo-product-analyzer/internal/validate"
)

// successMessage carries the normalized fields and the image link back to the
// sender.
func successMessage(rec catalog.Record, rowID string) string {
	var b strings.Builder
	b.WriteString("Product saved to the catalog.\n")
	fmt.Fprintf(&b, "ID: %s (row %s)\n", rec.RequestID, rowID)
	fmt.Fprintf(&b, "Type: %s\n", rec.ProductType)
	fmt.Fprintf(&b, "Color: %s\n", rec.Color)
	if rec.Brand != "" {
		fmt.Fprintf(&b, "Brand: %s\n", rec.Brand)
	}
	if rec.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	}
	fmt.Fprintf(&b, "Photo: %s", rec.ImageURL)
	return b.String()
}

// FailureMessage maps an error to sender-facing text. Input-side and
// AI-output-side failures are shown verbatim because the sender can act on
// them; infrastructure failures stay generic, with detail reserved for the
// operator log.
func FailureMessage(err error) string {
	if errors.Is(err, ErrConcurrentRequest) {
		return "Your previous photo is still being processed. Please wait for it to finish before sending another."
	}

	var violation *validate.Violation
	if errors.As(err, &violation) {
		switch violation.Reason {
		case validate.TooLarge:
			return "This photo is too large: " + violation.Detail + ". Please send a smaller image."
		case validate.UnsupportedFormat:
			return "This image format is not supported: " + violation.Detail + "."
		case validate.Corrupt:
			return "This image could not be read. Please try again with a different photo."
		case validate.DimensionsInvalid:
			return "This image's dimensions are out of range: " + violation.Detail + "."
		}
	}

	var validation *normalize.ValidationError
	if errors.As(err, &validation) {
		if validation.Unparseable {
			return "The AI could not produce a usable analysis for this photo. Please try a clearer shot of the product."
		}
		lines := make([]string, len(validation.Violations))
		for i, v := range validation.Violations {
			lines[i] = "- " + v.String()
		}
		return "The AI analysis did not match the catalog vocabulary:\n" + strings.Join(lines, "\n")
	}

	return "Something went wrong while processing your photo. Please try again in a few minutes."
}
