// Package timeaxis provides the immutable, strictly increasing time axis that
// backs every series. All inputs are normalised to UTC time.Time values
// (proleptic Gregorian, nanosecond precision).
package timeaxis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/calendar"
	"github.com/paveg/scmframe/internal/errors"
)

// stringLayouts are tried in order when parsing string input
var stringLayouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// TimeAxis is an ordered sequence of unique timestamps
type TimeAxis struct {
	values []time.Time
}

// New builds a TimeAxis from raw input. The result must be non-empty and
// strictly increasing.
func New(input Input) (*TimeAxis, error) {
	var (
		values []time.Time
		err    error
	)

	switch input.kind {
	case KindAxis:
		if input.axis == nil {
			return nil, errors.NewConstructionError("TimeAxis", "nil axis")
		}
		return input.axis, nil
	case KindYears:
		values, err = fromYears(input.years)
	case KindTimes:
		values = make([]time.Time, len(input.times))
		for i, t := range input.times {
			values[i] = t.UTC()
		}
	case KindDateTimes:
		values, err = fromDateTimes(input.datetimes)
	case KindDatetime64:
		values, err = fromArrow(input.arrow)
	case KindStrings:
		values, err = fromStrings(input.strings)
	default:
		return nil, errors.NewUnsupportedTypeError("TimeAxis", input.kind.String())
	}
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, errors.NewConstructionError("TimeAxis", "time axis must contain at least one timestamp")
	}
	for i := 1; i < len(values); i++ {
		if !values[i].After(values[i-1]) {
			return nil, errors.NewConstructionError("TimeAxis",
				fmt.Sprintf("timestamps must be strictly increasing: %s at position %d follows %s",
					values[i].Format(time.RFC3339), i, values[i-1].Format(time.RFC3339)))
		}
	}

	return &TimeAxis{values: values}, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(input Input) *TimeAxis {
	a, err := New(input)
	if err != nil {
		panic(err)
	}
	return a
}

func fromYears(years []float64) ([]time.Time, error) {
	out := make([]time.Time, len(years))
	for i, y := range years {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, errors.NewConstructionError("TimeAxis", fmt.Sprintf("invalid year %v at position %d", y, i))
		}
		whole := math.Floor(y)
		start := time.Date(int(whole), time.January, 1, 0, 0, 0, 0, time.UTC)
		if frac := y - whole; frac > 0 {
			next := start.AddDate(1, 0, 0)
			length := next.Sub(start)
			start = start.Add(time.Duration(math.Round(frac * float64(length))))
		}
		out[i] = start
	}
	return out, nil
}

func fromDateTimes(dts []calendar.DateTime) ([]time.Time, error) {
	out := make([]time.Time, len(dts))
	for i, d := range dts {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		t, err := d.Time()
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func fromArrow(arr *array.Timestamp) ([]time.Time, error) {
	if arr == nil {
		return nil, errors.NewConstructionError("TimeAxis", "nil timestamp array")
	}
	tsType, ok := arr.DataType().(*arrow.TimestampType)
	if !ok {
		return nil, errors.NewUnsupportedTypeError("TimeAxis", arr.DataType().String())
	}
	out := make([]time.Time, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			return nil, errors.NewConstructionError("TimeAxis", fmt.Sprintf("null timestamp at position %d", i))
		}
		out[i] = arr.Value(i).ToTime(tsType.Unit).UTC()
	}
	return out, nil
}

func fromStrings(ss []string) ([]time.Time, error) {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		t, err := parseString(s)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NewConstructionError("TimeAxis", fmt.Sprintf("cannot parse time string %q", s))
}

// Values returns a copy of the normalised timestamps
func (a *TimeAxis) Values() []time.Time {
	return append([]time.Time(nil), a.values...)
}

// Len returns the number of timestamps
func (a *TimeAxis) Len() int { return len(a.values) }

// At returns the i-th timestamp
func (a *TimeAxis) At(i int) time.Time { return a.values[i] }

// First returns the earliest timestamp
func (a *TimeAxis) First() time.Time { return a.values[0] }

// Last returns the latest timestamp
func (a *TimeAxis) Last() time.Time { return a.values[len(a.values)-1] }

// Equal reports element-wise equality with other
func (a *TimeAxis) Equal(other *TimeAxis) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil || len(a.values) != len(other.values) {
		return false
	}
	for i := range a.values {
		if !a.values[i].Equal(other.values[i]) {
			return false
		}
	}
	return true
}

// Index returns the position of t on the axis
func (a *TimeAxis) Index(t time.Time) (int, bool) {
	i := sort.Search(len(a.values), func(i int) bool { return !a.values[i].Before(t) })
	if i < len(a.values) && a.values[i].Equal(t) {
		return i, true
	}
	return -1, false
}

// Contains reports whether t is on the axis
func (a *TimeAxis) Contains(t time.Time) bool {
	_, ok := a.Index(t)
	return ok
}

// Years returns the calendar year of each timestamp
func (a *TimeAxis) Years() []int {
	out := make([]int, len(a.values))
	for i, t := range a.values {
		out[i] = t.Year()
	}
	return out
}

// YearFractions returns each timestamp as a decimal year
func (a *TimeAxis) YearFractions() []float64 {
	out := make([]float64, len(a.values))
	for i, t := range a.values {
		out[i] = calendar.FromTime(t).YearFraction()
	}
	return out
}

// Ordinals returns seconds since 1970-01-01 UTC
func (a *TimeAxis) Ordinals() []float64 {
	out := make([]float64, len(a.values))
	for i, t := range a.values {
		out[i] = float64(t.Unix()) + float64(t.Nanosecond())/1e9
	}
	return out
}

// DateTimes returns the timestamps as calendar date-times of cal. A timestamp
// whose fields do not exist in cal (29 February in a no-leap calendar) is an error.
func (a *TimeAxis) DateTimes(cal calendar.Calendar) ([]calendar.DateTime, error) {
	out := make([]calendar.DateTime, len(a.values))
	for i, t := range a.values {
		d := calendar.FromTime(t).In(cal)
		if err := d.Validate(); err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// Array exports the axis as an Arrow timestamp array. Whole-second axes are
// exported in seconds, others in the finest unit whose int64 range holds
// every timestamp. The caller owns the returned array and must Release it.
func (a *TimeAxis) Array(mem memory.Allocator) *array.Timestamp {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	unit := a.exportUnit()
	builder := array.NewTimestampBuilder(mem, &arrow.TimestampType{Unit: unit, TimeZone: "UTC"})
	defer builder.Release()
	for _, t := range a.values {
		switch unit {
		case arrow.Nanosecond:
			builder.Append(arrow.Timestamp(t.UnixNano()))
		case arrow.Microsecond:
			builder.Append(arrow.Timestamp(t.UnixMicro()))
		default:
			builder.Append(arrow.Timestamp(t.Unix()))
		}
	}
	return builder.NewTimestampArray()
}

// int64 nanoseconds since the epoch cover 1677-09-21 to 2262-04-11
const minNanoYear, maxNanoYear = 1678, 2261

func (a *TimeAxis) exportUnit() arrow.TimeUnit {
	whole, nanoRange := true, true
	for _, t := range a.values {
		if t.Nanosecond() != 0 {
			whole = false
		}
		if y := t.Year(); y < minNanoYear || y > maxNanoYear {
			nanoRange = false
		}
	}
	switch {
	case whole:
		return arrow.Second
	case nanoRange:
		return arrow.Nanosecond
	default:
		return arrow.Microsecond
	}
}

// Months returns the month (1-12) of each timestamp
func (a *TimeAxis) Months() []int {
	return a.component(func(t time.Time) int { return int(t.Month()) })
}

// Days returns the day of month of each timestamp
func (a *TimeAxis) Days() []int {
	return a.component(time.Time.Day)
}

// Weekdays returns the day of week of each timestamp, Monday = 0
func (a *TimeAxis) Weekdays() []int {
	return a.component(func(t time.Time) int { return (int(t.Weekday()) + 6) % 7 })
}

// Hours returns the hour of each timestamp
func (a *TimeAxis) Hours() []int {
	return a.component(time.Time.Hour)
}

func (a *TimeAxis) component(fn func(time.Time) int) []int {
	out := make([]int, len(a.values))
	for i, t := range a.values {
		out[i] = fn(t)
	}
	return out
}

// String renders the axis bounds
func (a *TimeAxis) String() string {
	return fmt.Sprintf("TimeAxis(%d: %s .. %s)", len(a.values),
		a.First().Format("2006-01-02T15:04:05"), a.Last().Format("2006-01-02T15:04:05"))
}
