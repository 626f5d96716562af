package errors

import (
	"math"
)

// CheckNumericalStability checks values for NaN or Inf and returns an
// error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// SafeDivide performs division with protection against a vanishing
// denominator. Returns 0 when the denominator magnitude is below eps.
func SafeDivide(numerator, denominator, eps float64) float64 {
	if math.Abs(denominator) < eps {
		return 0
	}
	return numerator / denominator
}

// ClipNonnegative clips negative values in place to zero. Kernel density
// grids use this to enforce nonnegativity after smoothing.
func ClipNonnegative(values []float64) {
	for i, v := range values {
		if v < 0 {
			values[i] = 0
		}
	}
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
