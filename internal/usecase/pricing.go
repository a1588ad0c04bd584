package usecase

import "math"

// RoundToHalf quantizes a price onto the 0.5 tick grid using the average
// of trunc(p) and trunc(p+0.5). The formula floors to the lower half
// unit: [x.0, x.5) maps to x.0 and [x.5, x+1.0) maps to x.5. Kept as-is
// for compatibility with existing order placement, including its bias —
// this is not round-half-to-nearest.
func RoundToHalf(price float64) float64 {
	return (math.Trunc(price) + math.Trunc(price+0.5)) / 2
}
