package interpolate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe/internal/calendar"
	scmerrors "github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/timeaxis"
)

func yearAxis(t *testing.T, years ...int) *timeaxis.TimeAxis {
	t.Helper()
	a, err := timeaxis.New(timeaxis.Years(years...))
	require.NoError(t, err)
	return a
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for y := from; y < to; y++ {
		out = append(out, y)
	}
	return out
}

func TestParseTypes(t *testing.T) {
	for _, name := range []string{"linear", "nearest", "cubic", "akima", "LINEAR"} {
		_, err := ParseInterpolationType(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseInterpolationType("quintic")
	assert.ErrorIs(t, err, scmerrors.ErrSpecification)

	e, err := ParseExtrapolationType("")
	require.NoError(t, err)
	assert.Equal(t, ExtrapolateNone, e)
	e, err = ParseExtrapolationType("constant")
	require.NoError(t, err)
	assert.Equal(t, ExtrapolateConstant, e)
	_, err = ParseExtrapolationType("cubic")
	assert.ErrorIs(t, err, scmerrors.ErrSpecification)
}

func TestInterpolationIdentity(t *testing.T) {
	axis := yearAxis(t, 2000, 2005, 2010, 2020, 2030, 2050)
	values := []float64{1, 3, 2, 8, -4, 10}

	for _, it := range []InterpolationType{Linear, Nearest, Cubic, Akima} {
		t.Run(it.String(), func(t *testing.T) {
			got, err := Interpolate(axis, values, axis, it, ExtrapolateNone)
			require.NoError(t, err)
			assert.InDeltaSlice(t, values, got, 1e-9)
		})
	}
}

func TestLinearInterpolationMatchesSeconds(t *testing.T) {
	source := yearAxis(t, 2000, 2002)
	target := yearAxis(t, 2001)

	got, err := Interpolate(source, []float64{0, 731}, target, Linear, ExtrapolateNone)
	require.NoError(t, err)
	// 2000 is a leap year: 366 of the 731 days have passed by 2001-01-01
	assert.InDelta(t, 366.0, got[0], 1e-9)
}

func TestLinearExtrapolationContinuesProgression(t *testing.T) {
	source := yearAxis(t, seq(800, 1000)...)
	values := make([]float64, source.Len())
	for i, y := range source.Ordinals() {
		values[i] = 3 + 2e-9*y
	}
	target := yearAxis(t, seq(700, 1100)...)

	got, err := Interpolate(source, values, target, Linear, ExtrapolateLinear)
	require.NoError(t, err)
	for i, x := range target.Ordinals() {
		assert.InDelta(t, 3+2e-9*x, got[i], 1e-6)
	}
}

func TestExtrapolationLong(t *testing.T) {
	for _, cal := range []calendar.Calendar{calendar.Standard, calendar.NoLeap, calendar.Day360} {
		t.Run(cal.String(), func(t *testing.T) {
			mk := func(from, to int) *timeaxis.TimeAxis {
				dts := make([]calendar.DateTime, 0, to-from)
				for y := from; y < to; y++ {
					dts = append(dts, calendar.DateTime{Year: y, Month: 1, Day: 1, Calendar: cal})
				}
				a, err := timeaxis.New(timeaxis.DateTimes(dts...))
				require.NoError(t, err)
				return a
			}
			source := mk(800, 1000)
			values := make([]float64, source.Len())
			for i := range values {
				values[i] = float64(800 + i)
			}
			target := mk(800, 1100)

			got, err := Interpolate(source, values, target, Linear, ExtrapolateLinear)
			require.NoError(t, err)
			for i, v := range got {
				assert.InDelta(t, float64(800+i), v, 0.5)
			}
		})
	}
}

func TestMissingValuesExcluded(t *testing.T) {
	source := yearAxis(t, 2000, 2001, 2002, 2003, 2004)
	values := []float64{2000, 2001, 2002, math.NaN(), math.NaN()}
	target := yearAxis(t, seq(2000, 2010)...)

	got, err := Interpolate(source, values, target, Linear, ExtrapolateLinear)
	require.NoError(t, err)
	for i, v := range got {
		assert.InDelta(t, float64(2000+i), v, 0.05)
	}
}

func TestTooFewPointsGivesNaN(t *testing.T) {
	source := yearAxis(t, 2000, 2010, 2020)
	target := yearAxis(t, 2005, 2015)

	tests := []struct {
		name   string
		interp InterpolationType
		values []float64
	}{
		{"linear one point", Linear, []float64{1, math.NaN(), math.NaN()}},
		{"cubic two points", Cubic, []float64{1, 2, math.NaN()}},
		{"akima two points", Akima, []float64{math.NaN(), 2, 3}},
		{"nearest no points", Nearest, []float64{math.NaN(), math.NaN(), math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpolate(source, tt.values, target, tt.interp, ExtrapolateConstant)
			require.NoError(t, err)
			for _, v := range got {
				assert.True(t, math.IsNaN(v))
			}
		})
	}
}

func TestConstantExtrapolation(t *testing.T) {
	source := yearAxis(t, 2000, 2010)
	target := yearAxis(t, 1990, 2005, 2020)

	got, err := Interpolate(source, []float64{1, 3}, target, Linear, ExtrapolateConstant)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 2.0, got[1], 0.01)
	assert.InDelta(t, 3.0, got[2], 1e-12)
}

func TestNearest(t *testing.T) {
	source := yearAxis(t, 2000, 2010)
	target := yearAxis(t, 2003, 2008)

	got, err := Interpolate(source, []float64{1, 3}, target, Nearest, ExtrapolateNone)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, got)
}

func TestNoExtrapolationOutOfRange(t *testing.T) {
	source := yearAxis(t, 2000, 2010)

	_, err := NewConverter(source, yearAxis(t, 1999, 2005), Linear, ExtrapolateNone)
	assert.ErrorIs(t, err, scmerrors.ErrRange)

	_, err = NewConverter(source, yearAxis(t, 2005, 2011), Linear, ExtrapolateNone)
	assert.ErrorIs(t, err, scmerrors.ErrRange)

	c, err := NewConverter(source, yearAxis(t, 2000, 2010), Linear, ExtrapolateNone)
	require.NoError(t, err)
	_, err = c.Convert([]float64{1})
	assert.ErrorIs(t, err, scmerrors.ErrValidation)
}

func TestConverterReuse(t *testing.T) {
	source := yearAxis(t, 2000, 2010, 2020)
	target := yearAxis(t, 2000, 2020)
	c, err := NewConverter(source, target, Cubic, ExtrapolateNone)
	require.NoError(t, err)

	for _, values := range [][]float64{{1, 2, 3}, {5, 0, 5}} {
		got, err := c.Convert(values)
		require.NoError(t, err)
		assert.InDelta(t, values[0], got[0], 1e-9)
		assert.InDelta(t, values[2], got[1], 1e-9)
	}
}
