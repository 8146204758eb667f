package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe/internal/calendar"
	scmerrors "github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/interpolate"
	"github.com/paveg/scmframe/internal/timeaxis"
	"github.com/paveg/scmframe/internal/units"
)

func newSeries(t *testing.T, unit string) *TimeSeries {
	t.Helper()
	var opts []Option
	if unit != "" {
		opts = append(opts, WithAttrs(map[string]string{UnitAttr: unit}))
	}
	s, err := New([]float64{1, 2, 3}, timeaxis.Times(
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
	), opts...)
	require.NoError(t, err)
	return s
}

func TestNewAcrossTimeInputs(t *testing.T) {
	want := timeaxis.MustNew(timeaxis.Years(10, 2010, 5010))
	inputs := map[string]timeaxis.Input{
		"years":     timeaxis.Years(10, 2010, 5010),
		"times":     timeaxis.Times(want.Values()...),
		"datetimes": timeaxis.DateTimes(calendar.Date(10, 1, 1), calendar.Date(2010, 1, 1), calendar.Date(5010, 1, 1)),
		"strings":   timeaxis.Strings("0010", "2010", "5010"),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			s, err := NewFromData([]int{1, 2, 3}, in)
			require.NoError(t, err)
			assert.Equal(t, []float64{1, 2, 3}, s.Values())
			assert.True(t, s.TimeAxis().Equal(want))
		})
	}
}

func TestFromLabeled(t *testing.T) {
	l := Labeled{
		Data:   []float64{-1, -2, -3},
		Dims:   []string{"time"},
		Coords: map[string]timeaxis.Input{"time": timeaxis.Years(20, 2020, 5050)},
		Attrs:  map[string]string{UnitAttr: "K"},
	}
	s, err := NewFromData(l, timeaxis.Input{})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2, -3}, s.Values())
	assert.Equal(t, "K", s.Unit())
	assert.Equal(t, []int{20, 2020, 5050}, s.TimeAxis().Years())
}

func TestConstructionErrors(t *testing.T) {
	years := timeaxis.Years(2000, 2001)
	labeled := Labeled{
		Data:   []float64{1, 2},
		Dims:   []string{"time"},
		Coords: map[string]timeaxis.Input{"time": years},
	}

	tests := []struct {
		name     string
		data     any
		time     timeaxis.Input
		sentinel error
		message  string
	}{
		{"2d slice", [][]float64{{1, 2}, {2, 4}}, years, scmerrors.ErrConstruction, "data must be 1d"},
		{"2d labeled", Labeled{Data: []float64{1, 2, 2, 4}, Dims: []string{"time", "lat"}}, timeaxis.Input{}, scmerrors.ErrConstruction, "data must be 1d"},
		{"labeled with time", labeled, years, scmerrors.ErrType, "time must not be given"},
		{"no time", []float64{1, 2}, timeaxis.Input{}, scmerrors.ErrType, "time must be given"},
		{"wrong length", []float64{1, 2, 3}, years, scmerrors.ErrConstruction, "3 values for 2 timestamps"},
		{"unsupported", []string{"a"}, years, scmerrors.ErrType, "unsupported type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromData(tt.data, tt.time)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	for _, dim := range []string{"times", "lat", "Time", "t"} {
		t.Run("dimension "+dim, func(t *testing.T) {
			l := labeled
			l.Dims = []string{dim}
			_, err := NewFromData(l, timeaxis.Input{})
			assert.ErrorIs(t, err, scmerrors.ErrConstruction)
			assert.Contains(t, err.Error(), "only dimension named 'time'")
		})
	}
}

func TestScalarArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(*TimeSeries) (*TimeSeries, error)
		inPlace  func(*TimeSeries) error
		expected []float64
	}{
		{"add", func(s *TimeSeries) (*TimeSeries, error) { return s.Add(Scalar(2)) }, func(s *TimeSeries) error { return s.AddInPlace(2) }, []float64{3, 4, 5}},
		{"sub", func(s *TimeSeries) (*TimeSeries, error) { return s.Sub(2.0) }, func(s *TimeSeries) error { return s.SubInPlace(Scalar(2)) }, []float64{-1, 0, 1}},
		{"mul", func(s *TimeSeries) (*TimeSeries, error) { return s.Mul(2) }, func(s *TimeSeries) error { return s.MulInPlace(2.0) }, []float64{2, 4, 6}},
		{"div", func(s *TimeSeries) (*TimeSeries, error) { return s.Div(Scalar(2)) }, func(s *TimeSeries) error { return s.DivInPlace(2) }, []float64{0.5, 1, 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSeries(t, "")
			out, err := tt.fn(s)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, out.Values(), 1e-12)
			assert.Equal(t, []float64{1, 2, 3}, s.Values())

			require.NoError(t, tt.inPlace(s))
			assert.InDeltaSlice(t, tt.expected, s.Values(), 1e-12)
		})
	}
}

func TestQuantityArithmetic(t *testing.T) {
	s := newSeries(t, "GtC / yr")

	out, err := s.Add(units.Q(2, "GtC / yr"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 4, 5}, out.Values(), 1e-12)

	out, err = s.Add(units.Q(1000, "MtC / yr"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 3, 4}, out.Values(), 1e-12)
	assert.Equal(t, "GtC / yr", out.Unit())

	out, err = s.Mul(units.Q(2, "yr"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4, 6}, out.Values(), 1e-12)
	assert.Equal(t, "(GtC / yr) * yr", out.Unit())

	cumulative, err := out.ConvertUnit("MtC")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2000, 4000, 6000}, cumulative.Values(), 1e-9)
}

func TestIncompatibleUnitsLeaveSeriesUnchanged(t *testing.T) {
	t.Run("dimensionless series", func(t *testing.T) {
		s := newSeries(t, "")
		err := s.AddInPlace(units.Q(2, "GtC / yr"))
		require.Error(t, err)

		var dimErr *units.DimensionalityError
		require.ErrorAs(t, err, &dimErr)
		assert.Contains(t, err.Error(), "Cannot convert from 'dimensionless'")
		assert.Contains(t, err.Error(), "'GtC / yr'")
		assert.Equal(t, []float64{1, 2, 3}, s.Values())
	})

	t.Run("rate vs acceleration", func(t *testing.T) {
		s := newSeries(t, "GtC / yr")
		_, err := s.Add(units.Q(2, "GtC / yr / yr"))
		assert.ErrorIs(t, err, scmerrors.ErrDimensionality)
		assert.Contains(t, err.Error(), "Cannot convert from 'GtC / yr' ([carbon] * [mass] / [time]) to 'GtC / yr / yr' ([carbon] * [mass] / [time] ** 2)")

		err = s.SubInPlace(units.Q(2, "K"))
		assert.ErrorIs(t, err, scmerrors.ErrDimensionality)
		assert.Equal(t, []float64{1, 2, 3}, s.Values())
		assert.Equal(t, "GtC / yr", s.Unit())
	})
}

func TestSeriesOperand(t *testing.T) {
	a := newSeries(t, "GtC / yr")
	b := newSeries(t, "MtC / yr")

	out, err := a.Add(b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.001, 2.002, 3.003}, out.Values(), 1e-12)

	ratio, err := a.Div(a)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, ratio.Values(), 1e-12)
	assert.Equal(t, "(GtC / yr) / (GtC / yr)", ratio.Unit())

	other, err := New([]float64{1, 2}, timeaxis.Years(2000, 2001))
	require.NoError(t, err)
	_, err = a.Add(other)
	assert.ErrorIs(t, err, scmerrors.ErrValidation)

	_, err = a.Add("2")
	assert.ErrorIs(t, err, scmerrors.ErrType)
}

func TestInjectedConverter(t *testing.T) {
	reg := units.NewRegistry()
	require.NoError(t, reg.Define("Mt_per_yr", "Mt / yr"))

	s, err := New([]float64{1, 2}, timeaxis.Years(2000, 2001),
		WithConverter(reg), WithAttrs(map[string]string{UnitAttr: "Gt / yr"}))
	require.NoError(t, err)

	out, err := s.Add(units.Q(500, "Mt_per_yr"))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 2.5}, out.Values(), 1e-12)
}

func TestInterpolate(t *testing.T) {
	s, err := New([]float64{0, 10}, timeaxis.Years(2000, 2010),
		WithName("tas"), WithAttrs(map[string]string{UnitAttr: "K"}))
	require.NoError(t, err)

	same, err := s.Interpolate(timeaxis.FromAxis(s.TimeAxis()), interpolate.Linear, interpolate.ExtrapolateNone)
	require.NoError(t, err)
	assert.InDeltaSlice(t, s.Values(), same.Values(), 1e-12)

	out, err := s.Interpolate(timeaxis.Years(2010, 2020), interpolate.Linear, interpolate.ExtrapolateConstant)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{10, 10}, out.Values(), 1e-9)
	assert.Equal(t, "K", out.Unit())
	assert.Equal(t, "tas", out.Name())

	_, err = s.Interpolate(timeaxis.Years(2020), interpolate.Linear, interpolate.ExtrapolateNone)
	assert.ErrorIs(t, err, scmerrors.ErrRange)
}

func TestCopyIndependence(t *testing.T) {
	s := newSeries(t, "K")
	c := s.Copy()

	c.Buffer()[0] = 100
	c.SetAttr(UnitAttr, "m")
	assert.Equal(t, 1.0, s.Values()[0])
	assert.Equal(t, "K", s.Unit())
	assert.NotSame(t, &s.values[0], &c.values[0])
}

func TestValuesIsCopyBufferIsLive(t *testing.T) {
	s := newSeries(t, "")
	s.Values()[0] = 99
	assert.Equal(t, 1.0, s.Values()[0])
	s.Buffer()[0] = 99
	assert.Equal(t, 99.0, s.Values()[0])
}

func TestReduceAndArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	s, err := New([]float64{1, math.NaN(), 3}, timeaxis.Years(2000, 2001, 2002))
	require.NoError(t, err)

	maxValue := s.Reduce(func(v []float64) float64 {
		m := math.Inf(-1)
		for _, x := range v {
			if !math.IsNaN(x) && x > m {
				m = x
			}
		}
		return m
	})
	assert.Equal(t, 3.0, maxValue)

	arr := s.Array(mem)
	defer arr.Release()
	assert.Equal(t, 3, arr.Len())
	assert.Equal(t, 1, arr.NullN())
	assert.Equal(t, 3.0, arr.Value(2))

	assert.Equal(t, `TimeSeries(name="", unit="dimensionless", len=3)`, s.String())
}
