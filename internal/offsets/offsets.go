// Package offsets steps through calendar time using pandas/xarray-style
// frequency offsets ("AS", "A", "QS", "MS", "D", ...) and generates ranges of
// aligned timestamps in any supported calendar.
package offsets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paveg/scmframe/internal/calendar"
	"github.com/paveg/scmframe/internal/errors"
)

// Offset is a repeating calendar step
type Offset interface {
	// OnOffset reports whether d lies exactly on a step boundary
	OnOffset(d calendar.DateTime) bool
	// Rollback returns the latest boundary on or before d
	Rollback(d calendar.DateTime) calendar.DateTime
	// Rollforward returns the earliest boundary on or after d
	Rollforward(d calendar.DateTime) calendar.DateTime
	// Next returns the boundary one step after the boundary d
	Next(d calendar.DateTime) calendar.DateTime
	// String returns the frequency string of the offset
	String() string
}

var monthAbbrevs = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

func monthAbbrev(m int) string {
	return monthAbbrevs[m-1]
}

func multiplePrefix(n int) string {
	if n == 1 {
		return ""
	}
	return strconv.Itoa(n)
}

func isMidnight(d calendar.DateTime) bool {
	return d.Hour == 0 && d.Minute == 0 && d.Second == 0 && d.Nanosecond == 0
}

// shiftMonths moves (year, month) by n months
func shiftMonths(year, month, n int) (int, int) {
	total := year*12 + (month - 1) + n
	y := total / 12
	m := total%12 + 1
	if total < 0 && total%12 != 0 {
		y--
		m = total%12 + 13
	}
	return y, m
}

// monthStart is midnight on the first day of (year, month) in d's calendar
func monthStart(d calendar.DateTime, year, month int) calendar.DateTime {
	return calendar.DateTime{Year: year, Month: month, Day: 1, Calendar: d.Calendar}
}

// monthEnd is midnight on the last day of (year, month) in d's calendar
func monthEnd(d calendar.DateTime, year, month int) calendar.DateTime {
	return calendar.DateTime{Year: year, Month: month, Day: d.Calendar.DaysInMonth(year, month), Calendar: d.Calendar}
}

// YearBegin steps to the first day of Month every N years
type YearBegin struct {
	N     int
	Month int
}

func (o YearBegin) OnOffset(d calendar.DateTime) bool {
	return d.Month == o.Month && d.Day == 1 && isMidnight(d)
}

func (o YearBegin) Rollback(d calendar.DateTime) calendar.DateTime {
	c := monthStart(d, d.Year, o.Month)
	if c.After(d) {
		c = monthStart(d, d.Year-1, o.Month)
	}
	return c
}

func (o YearBegin) Rollforward(d calendar.DateTime) calendar.DateTime {
	c := monthStart(d, d.Year, o.Month)
	if c.Before(d) {
		c = monthStart(d, d.Year+1, o.Month)
	}
	return c
}

func (o YearBegin) Next(d calendar.DateTime) calendar.DateTime {
	return monthStart(d, d.Year+o.N, o.Month)
}

func (o YearBegin) String() string {
	return fmt.Sprintf("%sAS-%s", multiplePrefix(o.N), monthAbbrev(o.Month))
}

// YearEnd steps to the last day of Month every N years
type YearEnd struct {
	N     int
	Month int
}

func (o YearEnd) OnOffset(d calendar.DateTime) bool {
	return d.Month == o.Month && d.Day == d.Calendar.DaysInMonth(d.Year, d.Month) && isMidnight(d)
}

func (o YearEnd) Rollback(d calendar.DateTime) calendar.DateTime {
	c := monthEnd(d, d.Year, o.Month)
	if c.After(d) {
		c = monthEnd(d, d.Year-1, o.Month)
	}
	return c
}

func (o YearEnd) Rollforward(d calendar.DateTime) calendar.DateTime {
	c := monthEnd(d, d.Year, o.Month)
	if c.Before(d) {
		c = monthEnd(d, d.Year+1, o.Month)
	}
	return c
}

func (o YearEnd) Next(d calendar.DateTime) calendar.DateTime {
	return monthEnd(d, d.Year+o.N, o.Month)
}

func (o YearEnd) String() string {
	return fmt.Sprintf("%sA-%s", multiplePrefix(o.N), monthAbbrev(o.Month))
}

// QuarterBegin steps to the first day of every third month, the cycle
// including Month, N quarters at a time
type QuarterBegin struct {
	N     int
	Month int
}

func inQuarterCycle(month, anchor int) bool {
	return ((month-anchor)%3+3)%3 == 0
}

func (o QuarterBegin) OnOffset(d calendar.DateTime) bool {
	return inQuarterCycle(d.Month, o.Month) && d.Day == 1 && isMidnight(d)
}

func (o QuarterBegin) Rollback(d calendar.DateTime) calendar.DateTime {
	y, m := d.Year, d.Month
	for !inQuarterCycle(m, o.Month) {
		y, m = shiftMonths(y, m, -1)
	}
	c := monthStart(d, y, m)
	if c.After(d) {
		y, m = shiftMonths(y, m, -3)
		c = monthStart(d, y, m)
	}
	return c
}

func (o QuarterBegin) Rollforward(d calendar.DateTime) calendar.DateTime {
	y, m := d.Year, d.Month
	for !inQuarterCycle(m, o.Month) {
		y, m = shiftMonths(y, m, 1)
	}
	c := monthStart(d, y, m)
	if c.Before(d) {
		y, m = shiftMonths(y, m, 3)
		c = monthStart(d, y, m)
	}
	return c
}

func (o QuarterBegin) Next(d calendar.DateTime) calendar.DateTime {
	y, m := shiftMonths(d.Year, d.Month, 3*o.N)
	return monthStart(d, y, m)
}

func (o QuarterBegin) String() string {
	return fmt.Sprintf("%sQS-%s", multiplePrefix(o.N), monthAbbrev(o.Month))
}

// QuarterEnd steps to the last day of every third month, the cycle
// including Month, N quarters at a time
type QuarterEnd struct {
	N     int
	Month int
}

func (o QuarterEnd) OnOffset(d calendar.DateTime) bool {
	return inQuarterCycle(d.Month, o.Month) && d.Day == d.Calendar.DaysInMonth(d.Year, d.Month) && isMidnight(d)
}

func (o QuarterEnd) Rollback(d calendar.DateTime) calendar.DateTime {
	y, m := d.Year, d.Month
	for !inQuarterCycle(m, o.Month) {
		y, m = shiftMonths(y, m, -1)
	}
	c := monthEnd(d, y, m)
	if c.After(d) {
		y, m = shiftMonths(y, m, -3)
		c = monthEnd(d, y, m)
	}
	return c
}

func (o QuarterEnd) Rollforward(d calendar.DateTime) calendar.DateTime {
	y, m := d.Year, d.Month
	for !inQuarterCycle(m, o.Month) {
		y, m = shiftMonths(y, m, 1)
	}
	c := monthEnd(d, y, m)
	if c.Before(d) {
		y, m = shiftMonths(y, m, 3)
		c = monthEnd(d, y, m)
	}
	return c
}

func (o QuarterEnd) Next(d calendar.DateTime) calendar.DateTime {
	y, m := shiftMonths(d.Year, d.Month, 3*o.N)
	return monthEnd(d, y, m)
}

func (o QuarterEnd) String() string {
	return fmt.Sprintf("%sQ-%s", multiplePrefix(o.N), monthAbbrev(o.Month))
}

// MonthBegin steps to the first day of the month every N months
type MonthBegin struct {
	N int
}

func (o MonthBegin) OnOffset(d calendar.DateTime) bool {
	return d.Day == 1 && isMidnight(d)
}

func (o MonthBegin) Rollback(d calendar.DateTime) calendar.DateTime {
	return monthStart(d, d.Year, d.Month)
}

func (o MonthBegin) Rollforward(d calendar.DateTime) calendar.DateTime {
	if o.OnOffset(d) {
		return d
	}
	y, m := shiftMonths(d.Year, d.Month, 1)
	return monthStart(d, y, m)
}

func (o MonthBegin) Next(d calendar.DateTime) calendar.DateTime {
	y, m := shiftMonths(d.Year, d.Month, o.N)
	return monthStart(d, y, m)
}

func (o MonthBegin) String() string {
	return multiplePrefix(o.N) + "MS"
}

// MonthEnd steps to the last day of the month every N months
type MonthEnd struct {
	N int
}

func (o MonthEnd) OnOffset(d calendar.DateTime) bool {
	return d.Day == d.Calendar.DaysInMonth(d.Year, d.Month) && isMidnight(d)
}

func (o MonthEnd) Rollback(d calendar.DateTime) calendar.DateTime {
	c := monthEnd(d, d.Year, d.Month)
	if c.After(d) {
		y, m := shiftMonths(d.Year, d.Month, -1)
		c = monthEnd(d, y, m)
	}
	return c
}

func (o MonthEnd) Rollforward(d calendar.DateTime) calendar.DateTime {
	c := monthEnd(d, d.Year, d.Month)
	if c.Before(d) {
		y, m := shiftMonths(d.Year, d.Month, 1)
		c = monthEnd(d, y, m)
	}
	return c
}

func (o MonthEnd) Next(d calendar.DateTime) calendar.DateTime {
	y, m := shiftMonths(d.Year, d.Month, o.N)
	return monthEnd(d, y, m)
}

func (o MonthEnd) String() string {
	return multiplePrefix(o.N) + "M"
}

// Tick is a fixed-length step of N units of Seconds each (day, hour, minute, second)
type Tick struct {
	N       int
	Seconds int64
	code    string
}

// Day returns a tick of n days
func Day(n int) Tick { return Tick{N: n, Seconds: 86400, code: "D"} }

// Hour returns a tick of n hours
func Hour(n int) Tick { return Tick{N: n, Seconds: 3600, code: "H"} }

// Minute returns a tick of n minutes
func Minute(n int) Tick { return Tick{N: n, Seconds: 60, code: "T"} }

// Second returns a tick of n seconds
func Second(n int) Tick { return Tick{N: n, Seconds: 1, code: "S"} }

func (o Tick) secondsIntoUnit(d calendar.DateTime) int64 {
	sod := int64(d.Hour*3600 + d.Minute*60 + d.Second)
	return sod % o.Seconds
}

func (o Tick) OnOffset(d calendar.DateTime) bool {
	return d.Nanosecond == 0 && o.secondsIntoUnit(d) == 0
}

func (o Tick) Rollback(d calendar.DateTime) calendar.DateTime {
	r := o.secondsIntoUnit(d)
	d.Nanosecond = 0
	return d.AddSeconds(-r)
}

func (o Tick) Rollforward(d calendar.DateTime) calendar.DateTime {
	if o.OnOffset(d) {
		return d
	}
	return o.Rollback(d).AddSeconds(o.Seconds)
}

func (o Tick) Next(d calendar.DateTime) calendar.DateTime {
	return d.AddSeconds(int64(o.N) * o.Seconds)
}

func (o Tick) String() string {
	return multiplePrefix(o.N) + o.code
}

var offsetPattern = regexp.MustCompile(`^(-?\d*)([A-Za-z]+)(?:-([A-Za-z]{3}))?$`)

// ParseOffset converts a frequency string such as "AS", "5A", "QS-JUL" or "D" to an Offset
func ParseOffset(freq string) (Offset, error) {
	m := offsetPattern.FindStringSubmatch(strings.TrimSpace(freq))
	if m == nil {
		return nil, errors.NewSpecificationError("ParseOffset", fmt.Sprintf("invalid frequency string: %q", freq))
	}

	n := 1
	if m[1] != "" {
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errors.NewSpecificationError("ParseOffset", fmt.Sprintf("invalid multiple in %q", freq))
		}
		n = parsed
	}
	if n <= 0 {
		return nil, errors.NewSpecificationError("ParseOffset", fmt.Sprintf("multiple must be positive in %q", freq))
	}

	code := m[2]
	if strings.EqualFold(code, "min") {
		code = "T"
	}
	code = strings.ToUpper(code)

	anchor := 0
	if m[3] != "" {
		for i, abbrev := range monthAbbrevs {
			if strings.EqualFold(abbrev, m[3]) {
				anchor = i + 1
			}
		}
		if anchor == 0 {
			return nil, errors.NewSpecificationError("ParseOffset", fmt.Sprintf("invalid month anchor in %q", freq))
		}
	}
	anchorOr := func(def int) int {
		if anchor == 0 {
			return def
		}
		return anchor
	}

	switch code {
	case "AS", "YS":
		return YearBegin{N: n, Month: anchorOr(1)}, nil
	case "A", "Y":
		return YearEnd{N: n, Month: anchorOr(12)}, nil
	case "QS":
		return QuarterBegin{N: n, Month: anchorOr(1)}, nil
	case "Q":
		return QuarterEnd{N: n, Month: anchorOr(12)}, nil
	}

	if anchor != 0 {
		return nil, errors.NewSpecificationError("ParseOffset", fmt.Sprintf("frequency %q does not take a month anchor", freq))
	}

	switch code {
	case "MS":
		return MonthBegin{N: n}, nil
	case "M":
		return MonthEnd{N: n}, nil
	case "D":
		return Day(n), nil
	case "H":
		return Hour(n), nil
	case "T":
		return Minute(n), nil
	case "S":
		return Second(n), nil
	}

	return nil, errors.NewSpecificationError("ParseOffset", fmt.Sprintf("unrecognised frequency: %q", freq))
}
