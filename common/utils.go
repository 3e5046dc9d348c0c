package common

import "cmp"

// Coalesce returns the first non-zero value, or the zero value. Config defaults are filled with it.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value
//   - lo: the lower bound
//   - hi: the upper bound, expected to be >= lo
//
// Returns:
//   - T: v, lo, or hi
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
