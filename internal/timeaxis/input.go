package timeaxis

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/paveg/scmframe/internal/calendar"
)

// InputKind identifies which raw representation an Input carries
type InputKind int

const (
	KindInvalid InputKind = iota
	KindYears
	KindTimes
	KindDateTimes
	KindDatetime64
	KindStrings
	KindAxis
)

func (k InputKind) String() string {
	switch k {
	case KindYears:
		return "years"
	case KindTimes:
		return "times"
	case KindDateTimes:
		return "datetimes"
	case KindDatetime64:
		return "datetime64"
	case KindStrings:
		return "strings"
	case KindAxis:
		return "axis"
	default:
		return "invalid"
	}
}

// Input is raw time input of exactly one kind. Build it with one of the
// constructor functions; the zero value is rejected by New.
type Input struct {
	kind      InputKind
	years     []float64
	times     []time.Time
	datetimes []calendar.DateTime
	arrow     *array.Timestamp
	strings   []string
	axis      *TimeAxis
}

// Kind returns the kind of raw input
func (in Input) Kind() InputKind { return in.kind }

// Years interprets integer years as 1 January of each year
func Years(years ...int) Input {
	fs := make([]float64, len(years))
	for i, y := range years {
		fs[i] = float64(y)
	}
	return Input{kind: KindYears, years: fs}
}

// YearFractions interprets each value as a decimal year; the fractional part
// is the elapsed share of that year
func YearFractions(years ...float64) Input {
	return Input{kind: KindYears, years: append([]float64(nil), years...)}
}

// Times uses native time values, converted to UTC
func Times(ts ...time.Time) Input {
	return Input{kind: KindTimes, times: append([]time.Time(nil), ts...)}
}

// DateTimes uses calendar date-times of any calendar, converted field-wise
func DateTimes(dts ...calendar.DateTime) Input {
	return Input{kind: KindDateTimes, datetimes: append([]calendar.DateTime(nil), dts...)}
}

// Datetime64 uses an Arrow timestamp array of any unit
func Datetime64(arr *array.Timestamp) Input {
	return Input{kind: KindDatetime64, arrow: arr}
}

// Strings parses ISO-like date strings
func Strings(s ...string) Input {
	return Input{kind: KindStrings, strings: append([]string(nil), s...)}
}

// FromAxis reuses an already built axis
func FromAxis(a *TimeAxis) Input {
	return Input{kind: KindAxis, axis: a}
}
