// Package similarity scores vector pairs.
package similarity

import "math"

// Cosine returns dot(a,b) / (|a|*|b|).
//
// Vectors of different length and zero vectors score 0. Accumulation is in
// float64 and the result is clamped to [-1, 1].
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(-1, math.Min(1, s))
}

// DimensionsMatch reports whether a and b can be compared.
func DimensionsMatch(a, b []float32) bool { return len(a) == len(b) }
