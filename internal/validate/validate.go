package validate

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

// Reason identifies which check an image failed.
type Reason string

const (
	TooLarge          Reason = "too_large"
	UnsupportedFormat Reason = "unsupported_format"
	Corrupt           Reason = "corrupt"
	DimensionsInvalid Reason = "dimensions_invalid"
)

// Violation is an input-side failure the sender can act on.
type Violation struct {
	Reason Reason
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("image rejected (%s): %s", v.Reason, v.Detail)
}

// Limits are the validation bounds, read once from configuration.
type Limits struct {
	MaxBytes     int64
	Formats      []string
	MinDimension int
	MaxDimension int
}

// Check validates raw image bytes before any network cost is spent. Checks run
// in a fixed order and the first failure short-circuits: byte length, declared
// format, decodability, dimensions.
func Check(data []byte, declaredFormat string, limits Limits) error {
	if int64(len(data)) > limits.MaxBytes {
		return &Violation{
			Reason: TooLarge,
			Detail: fmt.Sprintf("%d bytes exceeds the %d byte limit", len(data), limits.MaxBytes),
		}
	}

	format := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(declaredFormat), "."))
	if !formatAllowed(format, limits.Formats) {
		return &Violation{
			Reason: UnsupportedFormat,
			Detail: fmt.Sprintf("format %q is not accepted (accepted: %s)", format, strings.Join(limits.Formats, ", ")),
		}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &Violation{
			Reason: Corrupt,
			Detail: "image data could not be decoded: " + err.Error(),
		}
	}

	if cfg.Width < limits.MinDimension || cfg.Height < limits.MinDimension ||
		cfg.Width > limits.MaxDimension || cfg.Height > limits.MaxDimension {
		return &Violation{
			Reason: DimensionsInvalid,
			Detail: fmt.Sprintf("%dx%d outside the allowed %d-%d pixel range", cfg.Width, cfg.Height, limits.MinDimension, limits.MaxDimension),
		}
	}

	return nil
}

func formatAllowed(format string, accepted []string) bool {
	for _, f := range accepted {
		if format == f {
			return true
		}
	}
	return false
}
