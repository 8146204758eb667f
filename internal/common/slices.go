package common

import "golang.org/x/exp/constraints"

// Ints converts a slice of any integer type to []int
func Ints[T constraints.Integer](in []T) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// Float64s converts a slice of any numeric type to []float64
func Float64s[T constraints.Integer | constraints.Float](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
