// Package timeseries provides a named, unit-tagged, one dimensional series of
// values keyed by a time axis. Arithmetic is unit aware and resampling goes
// through the interpolate package.
package timeseries

import (
	"fmt"
	"maps"
	"math"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/interpolate"
	"github.com/paveg/scmframe/internal/timeaxis"
	"github.com/paveg/scmframe/internal/units"
)

// UnitAttr is the attribute holding the unit expression
const UnitAttr = "unit"

// TimeSeries is a one dimensional series over a time axis. It is not safe
// for concurrent mutation.
type TimeSeries struct {
	name      string
	axis      *timeaxis.TimeAxis
	values    []float64
	attrs     map[string]string
	converter units.Converter
}

type options struct {
	name      string
	attrs     map[string]string
	converter units.Converter
}

// Option configures a TimeSeries
type Option func(*options)

// WithAttrs sets the series attributes; the map is copied
func WithAttrs(attrs map[string]string) Option {
	return func(o *options) {
		o.attrs = maps.Clone(attrs)
	}
}

// WithConverter sets the unit converter used by arithmetic
func WithConverter(c units.Converter) Option {
	return func(o *options) {
		o.converter = c
	}
}

// WithName sets the series name
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.attrs == nil {
		o.attrs = make(map[string]string)
	}
	return o
}

// New creates a series from values and raw time input of equal length
func New(values []float64, time timeaxis.Input, opts ...Option) (*TimeSeries, error) {
	axis, err := timeaxis.New(time)
	if err != nil {
		return nil, err
	}
	return fromAxis(append([]float64(nil), values...), axis, opts)
}

// NewWithAxis creates a series over an existing axis
func NewWithAxis(values []float64, axis *timeaxis.TimeAxis, opts ...Option) (*TimeSeries, error) {
	if axis == nil {
		return nil, errors.NewConstructionError("TimeSeries", "time axis must not be nil")
	}
	return fromAxis(append([]float64(nil), values...), axis, opts)
}

func fromAxis(values []float64, axis *timeaxis.TimeAxis, opts []Option) (*TimeSeries, error) {
	if len(values) != axis.Len() {
		return nil, errors.NewConstructionError("TimeSeries",
			fmt.Sprintf("got %d values for %d timestamps", len(values), axis.Len()))
	}
	o := newOptions(opts)
	return &TimeSeries{
		name:      o.name,
		axis:      axis,
		values:    values,
		attrs:     o.attrs,
		converter: o.converter,
	}, nil
}

// Labeled is a labeled array: data with named dimensions and per-dimension
// coordinates. Only single dimension arrays labeled "time" become a series.
type Labeled struct {
	Data   []float64
	Dims   []string
	Coords map[string]timeaxis.Input
	Attrs  map[string]string
}

// FromLabeled converts a single dimension labeled array whose only
// dimension is named "time"
func FromLabeled(l Labeled, opts ...Option) (*TimeSeries, error) {
	if len(l.Dims) != 1 {
		return nil, errors.NewConstructionError("TimeSeries", "data must be 1d")
	}
	if l.Dims[0] != "time" {
		return nil, errors.NewConstructionError("TimeSeries",
			fmt.Sprintf("labeled data must have its only dimension named 'time', got %q", l.Dims[0]))
	}
	coord, ok := l.Coords["time"]
	if !ok {
		return nil, errors.NewConstructionError("TimeSeries", "labeled data has no 'time' coordinate")
	}
	if l.Attrs != nil {
		opts = append([]Option{WithAttrs(l.Attrs)}, opts...)
	}
	return New(l.Data, coord, opts...)
}

// NewFromData dispatches on the kind of data: []float64, []int and []int64
// need time; Labeled carries its own time and must not be given one.
func NewFromData(data any, time timeaxis.Input, opts ...Option) (*TimeSeries, error) {
	timeGiven := time.Kind() != timeaxis.KindInvalid

	switch d := data.(type) {
	case Labeled:
		if timeGiven {
			return nil, errors.NewTypeError("TimeSeries", "if data is labeled, time must not be given")
		}
		return FromLabeled(d, opts...)
	case *Labeled:
		if d == nil {
			return nil, errors.NewConstructionError("TimeSeries", "nil labeled data")
		}
		if timeGiven {
			return nil, errors.NewTypeError("TimeSeries", "if data is labeled, time must not be given")
		}
		return FromLabeled(*d, opts...)
	case [][]float64:
		return nil, errors.NewConstructionError("TimeSeries", "data must be 1d")
	}

	if !timeGiven {
		return nil, errors.NewTypeError("TimeSeries", "if data is not labeled, time must be given")
	}

	switch d := data.(type) {
	case []float64:
		return New(d, time, opts...)
	case []int:
		return New(toFloats(d), time, opts...)
	case []int64:
		return New(toFloats(d), time, opts...)
	default:
		return nil, errors.NewUnsupportedTypeError("TimeSeries", fmt.Sprintf("%T", data))
	}
}

func toFloats[T int | int64](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// Name returns the series name
func (s *TimeSeries) Name() string { return s.name }

// Len returns the number of values
func (s *TimeSeries) Len() int { return len(s.values) }

// TimeAxis returns the immutable time axis
func (s *TimeSeries) TimeAxis() *timeaxis.TimeAxis { return s.axis }

// Values returns a copy of the values
func (s *TimeSeries) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Buffer returns the live value buffer. Writes through it change the series.
func (s *TimeSeries) Buffer() []float64 { return s.values }

// Attrs returns a copy of the attributes
func (s *TimeSeries) Attrs() map[string]string { return maps.Clone(s.attrs) }

// SetAttr sets one attribute
func (s *TimeSeries) SetAttr(key, value string) { s.attrs[key] = value }

// Unit returns the unit attribute, empty when dimensionless
func (s *TimeSeries) Unit() string { return s.attrs[UnitAttr] }

// units returns the configured converter, creating a registry on first use
func (s *TimeSeries) units() units.Converter {
	if s.converter == nil {
		s.converter = units.NewRegistry()
	}
	return s.converter
}

// Copy returns a series with independent values and attributes
func (s *TimeSeries) Copy() *TimeSeries {
	return &TimeSeries{
		name:      s.name,
		axis:      s.axis,
		values:    append([]float64(nil), s.values...),
		attrs:     maps.Clone(s.attrs),
		converter: s.converter,
	}
}

// Interpolate resamples the series onto target
func (s *TimeSeries) Interpolate(target timeaxis.Input, interpolation interpolate.InterpolationType,
	extrapolation interpolate.ExtrapolationType) (*TimeSeries, error) {
	axis, err := timeaxis.New(target)
	if err != nil {
		return nil, err
	}
	values, err := interpolate.Interpolate(s.axis, s.values, axis, interpolation, extrapolation)
	if err != nil {
		return nil, err
	}
	return &TimeSeries{
		name:      s.name,
		axis:      axis,
		values:    values,
		attrs:     maps.Clone(s.attrs),
		converter: s.converter,
	}, nil
}

// ConvertUnit returns the series expressed in unit to
func (s *TimeSeries) ConvertUnit(to string) (*TimeSeries, error) {
	f, err := s.units().ConversionFactor(s.Unit(), to)
	if err != nil {
		return nil, err
	}
	out := s.Copy()
	for i := range out.values {
		out.values[i] *= f
	}
	out.attrs[UnitAttr] = to
	return out, nil
}

// Reduce applies fn to the values
func (s *TimeSeries) Reduce(fn func([]float64) float64) float64 {
	return fn(s.Values())
}

// Array exports the values as an Arrow float64 array; NaN becomes null.
// The caller must Release the result.
func (s *TimeSeries) Array(mem memory.Allocator) *array.Float64 {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	builder := array.NewFloat64Builder(mem)
	defer builder.Release()
	for _, v := range s.values {
		if math.IsNaN(v) {
			builder.AppendNull()
			continue
		}
		builder.Append(v)
	}
	return builder.NewFloat64Array()
}

func (s *TimeSeries) String() string {
	unit := s.Unit()
	if unit == "" {
		unit = "dimensionless"
	}
	return fmt.Sprintf("TimeSeries(name=%q, unit=%q, len=%d)", s.name, unit, len(s.values))
}
