// Package utils contains small numeric and concurrency helpers shared by the voxelmesh packages.
package utils

import (
	"math"
)

// Round2 rounds n to two decimal places.
func Round2(n float64) float64 {
	return math.Round(n*100) / 100
}

// IsFinitePositive reports whether n is a real number strictly greater than zero.
func IsFinitePositive(n float64) bool {
	return n > 0 && !math.IsInf(n, 0) && !math.IsNaN(n)
}
