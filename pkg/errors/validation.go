package errors

import (
	"math"
)

// TargetDecimals is the number of fraction digits a target may carry.
const TargetDecimals = 3

// ValidateTarget rejects numeric targets that cannot produce a meaningful
// expression: zero, negative values, NaN, infinities and values with more
// than TargetDecimals fraction digits.
func ValidateTarget(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidTarget, "target must be a finite number, got %v", v)
	}
	if v <= 0 {
		return New(ErrCodeInvalidTarget, "target must be positive, got %v", v)
	}
	n := v * math.Pow10(TargetDecimals)
	if math.Abs(n-math.Round(n)) > 1e-9*math.Max(1, math.Abs(n)) {
		return New(ErrCodeInvalidTarget, "target may have at most %d decimals, got %v", TargetDecimals, v)
	}
	return nil
}

// ValidateTargets validates a per-color target list. The returned error names
// the first offending color index.
func ValidateTargets(targets []float64) error {
	for i, v := range targets {
		if err := ValidateTarget(v); err != nil {
			return Wrap(ErrCodeInvalidTarget, err, "target for color %d", i)
		}
	}
	return nil
}

// ValidateRange checks that v lies in [lo, hi]. name is used in the message.
func ValidateRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return New(ErrCodeInvalidConfig, "%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}

// ValidateDimensions checks a raster size.
func ValidateDimensions(w, h int) error {
	if w < 0 || h < 0 {
		return New(ErrCodeInvalidImage, "image dimensions must not be negative, got %dx%d", w, h)
	}
	const maxSide = 1 << 14
	if w > maxSide || h > maxSide {
		return New(ErrCodeInvalidImage, "image too large (max %d pixels per side), got %dx%d", maxSide, w, h)
	}
	return nil
}
