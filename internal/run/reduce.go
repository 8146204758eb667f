package run

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reducer collapses the values at one time point. It only ever sees
// non-missing values and at least one of them.
type Reducer func(values []float64) float64

func apply(reducer Reducer, values []float64) float64 {
	clean := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	return reducer(clean)
}

// Common reducers
var (
	Mean   Reducer = func(x []float64) float64 { return stat.Mean(x, nil) }
	Sum    Reducer = floats.Sum
	Min    Reducer = floats.Min
	Max    Reducer = floats.Max
	Median Reducer = median
	StdDev Reducer = stdDev
)

func median(x []float64) float64 {
	m, err := stats.Median(stats.Float64Data(x))
	if err != nil {
		return math.NaN()
	}
	return m
}

// stdDev is the sample standard deviation
func stdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// Quantile returns a reducer computing the q-th quantile by linear
// interpolation between closest ranks, h = (n-1)q.
func Quantile(q float64) Reducer {
	return func(x []float64) float64 {
		s := slices.Clone(x)
		slices.Sort(s)
		h := float64(len(s)-1) * q
		lo := math.Floor(h)
		i := int(lo)
		if i >= len(s)-1 {
			return s[len(s)-1]
		}
		return s[i] + (h-lo)*(s[i+1]-s[i])
	}
}
