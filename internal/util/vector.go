package util

import "math"

// ZeroVector returns an all-zero vector of length dim.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// IsValidVector reports whether v has length dim and only finite components.
func IsValidVector(v []float32, dim int) bool {
	if len(v) != dim {
		return false
	}
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// IsZeroVector reports whether every component of v is zero.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// SanitizeVector returns v when valid, otherwise a zero vector of length dim
// and false.
func SanitizeVector(v []float32, dim int) ([]float32, bool) {
	if IsValidVector(v, dim) {
		return v, true
	}
	return ZeroVector(dim), false
}

// ClampSimilarity maps an L2 distance to a similarity in [0, 1].
// NaN and negative results become 0.
func ClampSimilarity(distance float64) float64 {
	s := 1 - distance
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
