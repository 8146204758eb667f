// Package interpolate maps series values from one time axis onto another.
//
// All arithmetic happens on ordinals (seconds since 1970-01-01 UTC) so uneven
// calendar spacing is respected. Interior points use the selected
// interpolation rule; points outside the fitted range use the selected
// extrapolation rule, independently below and above.
package interpolate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/timeaxis"
)

// InterpolationType selects the rule used between source points
type InterpolationType int

const (
	Linear InterpolationType = iota
	Nearest
	Cubic
	Akima
)

var interpolationNames = map[InterpolationType]string{
	Linear:  "linear",
	Nearest: "nearest",
	Cubic:   "cubic",
	Akima:   "akima",
}

func (t InterpolationType) String() string {
	if s, ok := interpolationNames[t]; ok {
		return s
	}
	return fmt.Sprintf("interpolation(%d)", int(t))
}

// minPoints is the number of non-missing source points the rule needs
func (t InterpolationType) minPoints() int {
	switch t {
	case Nearest:
		return 1
	case Cubic, Akima:
		return 3
	default:
		return 2
	}
}

// ParseInterpolationType resolves "linear", "nearest", "cubic" or "akima"
func ParseInterpolationType(s string) (InterpolationType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range interpolationNames {
		if n == name {
			return t, nil
		}
	}
	return Linear, errors.NewSpecificationError("ParseInterpolationType", fmt.Sprintf("unknown interpolation type: %q", s))
}

// ExtrapolationType selects the rule used outside the source range
type ExtrapolationType int

const (
	// ExtrapolateNone rejects targets outside the source range
	ExtrapolateNone ExtrapolationType = iota
	// ExtrapolateLinear extends the first or last segment
	ExtrapolateLinear
	// ExtrapolateConstant holds the first or last value
	ExtrapolateConstant
)

func (t ExtrapolationType) String() string {
	switch t {
	case ExtrapolateNone:
		return "none"
	case ExtrapolateLinear:
		return "linear"
	case ExtrapolateConstant:
		return "constant"
	default:
		return fmt.Sprintf("extrapolation(%d)", int(t))
	}
}

// ParseExtrapolationType resolves "none" (or ""), "linear" or "constant"
func ParseExtrapolationType(s string) (ExtrapolationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ExtrapolateNone, nil
	case "linear":
		return ExtrapolateLinear, nil
	case "constant":
		return ExtrapolateConstant, nil
	}
	return ExtrapolateNone, errors.NewSpecificationError("ParseExtrapolationType", fmt.Sprintf("unknown extrapolation type: %q", s))
}

// predictor is satisfied by the gonum fitters
type predictor interface {
	Fit(xs, ys []float64) error
	Predict(x float64) float64
}

func newPredictor(t InterpolationType) predictor {
	switch t {
	case Nearest:
		return &nearest{}
	case Cubic:
		return &interp.NaturalCubic{}
	case Akima:
		return &interp.AkimaSpline{}
	default:
		return &interp.PiecewiseLinear{}
	}
}

// nearest picks the closest source point; ties go to the earlier point
type nearest struct {
	xs, ys []float64
}

func (n *nearest) Fit(xs, ys []float64) error {
	n.xs, n.ys = xs, ys
	return nil
}

func (n *nearest) Predict(x float64) float64 {
	i := sort.SearchFloat64s(n.xs, x)
	switch {
	case i == 0:
		return n.ys[0]
	case i == len(n.xs):
		return n.ys[len(n.ys)-1]
	case n.xs[i]-x < x-n.xs[i-1]:
		return n.ys[i]
	default:
		return n.ys[i-1]
	}
}

// Converter maps values on a source axis onto a target axis
type Converter struct {
	source        []float64
	target        []float64
	interpolation InterpolationType
	extrapolation ExtrapolationType
}

// NewConverter binds source and target axes. With ExtrapolateNone it fails
// if any target lies outside the source range.
func NewConverter(source, target *timeaxis.TimeAxis, interpolation InterpolationType, extrapolation ExtrapolationType) (*Converter, error) {
	if source == nil || target == nil {
		return nil, errors.NewConstructionError("Interpolate", "source and target axes are required")
	}
	if _, ok := interpolationNames[interpolation]; !ok {
		return nil, errors.NewSpecificationError("Interpolate", fmt.Sprintf("unsupported interpolation type %s", interpolation))
	}
	if extrapolation < ExtrapolateNone || extrapolation > ExtrapolateConstant {
		return nil, errors.NewSpecificationError("Interpolate", fmt.Sprintf("unsupported extrapolation type %s", extrapolation))
	}

	if extrapolation == ExtrapolateNone {
		if target.First().Before(source.First()) || target.Last().After(source.Last()) {
			return nil, errors.NewRangeError("Interpolate", fmt.Sprintf(
				"target range [%s, %s] is outside source range [%s, %s] and extrapolation is disabled",
				target.First().Format("2006-01-02"), target.Last().Format("2006-01-02"),
				source.First().Format("2006-01-02"), source.Last().Format("2006-01-02")))
		}
	}

	return &Converter{
		source:        source.Ordinals(),
		target:        target.Ordinals(),
		interpolation: interpolation,
		extrapolation: extrapolation,
	}, nil
}

// Convert maps values (one per source timestamp) onto the target axis.
// Missing (NaN) source values are left out of the fit. When too few points
// remain for the interpolation rule every result is NaN.
func (c *Converter) Convert(values []float64) ([]float64, error) {
	if len(values) != len(c.source) {
		return nil, errors.NewValidationError("Interpolate", "", fmt.Sprintf(
			"got %d values for a source axis of length %d", len(values), len(c.source)))
	}

	xs := make([]float64, 0, len(values))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, c.source[i])
			ys = append(ys, v)
		}
	}

	out := make([]float64, len(c.target))
	if len(xs) < c.interpolation.minPoints() {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}

	p := newPredictor(c.interpolation)
	if err := p.Fit(xs, ys); err != nil {
		return nil, errors.NewInternalError("Interpolate", err)
	}

	lo, hi := xs[0], xs[len(xs)-1]
	for i, x := range c.target {
		switch {
		case x < lo:
			out[i] = c.extrapolate(x, xs[0], ys[0], xs, ys, true)
		case x > hi:
			out[i] = c.extrapolate(x, xs[len(xs)-1], ys[len(ys)-1], xs, ys, false)
		default:
			out[i] = p.Predict(x)
		}
	}
	return out, nil
}

func (c *Converter) extrapolate(x, edgeX, edgeY float64, xs, ys []float64, below bool) float64 {
	switch c.extrapolation {
	case ExtrapolateConstant:
		return edgeY
	case ExtrapolateLinear:
		if len(xs) < 2 {
			return math.NaN()
		}
		var slope float64
		if below {
			slope = (ys[1] - ys[0]) / (xs[1] - xs[0])
		} else {
			n := len(xs)
			slope = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
		}
		return edgeY + slope*(x-edgeX)
	default:
		// inside the axis range but beyond the last non-missing value
		return math.NaN()
	}
}

// Interpolate converts values from source onto target in one call
func Interpolate(source *timeaxis.TimeAxis, values []float64, target *timeaxis.TimeAxis,
	interpolation InterpolationType, extrapolation ExtrapolationType) ([]float64, error) {
	c, err := NewConverter(source, target, interpolation, extrapolation)
	if err != nil {
		return nil, err
	}
	return c.Convert(values)
}
