package embedding

import (
	"fmt"
	"math"
)

// ValidateVector checks that a provider vector has exactly the expected
// dimensionality and only finite components. An invalid vector fails the
// single text it belongs to, never its whole batch.
func ValidateVector(v []float32, dimensions int) error {
	if len(v) != dimensions {
		return fmt.Errorf("%w: got %d dimensions, expected %d", ErrInvalidVector, len(v), dimensions)
	}
	for i, val := range v {
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidVector, i)
		}
	}
	return nil
}
