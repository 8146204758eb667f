package filters

import (
	"fmt"
	"strings"
	"time"

	"github.com/paveg/scmframe/internal/calendar"
	"github.com/paveg/scmframe/internal/common"
	"github.com/paveg/scmframe/internal/errors"
)

var monthNames = []string{"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december"}

// weekdayNames start on Monday, which is day 0
var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// isIn returns a mask of the data elements contained in items
func isIn[T comparable](data []T, items []T) []bool {
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	out := make([]bool, len(data))
	for i, d := range data {
		_, out[i] = set[d]
	}
	return out
}

// intsOf accepts an integer or a list of integers
func intsOf(v any) ([]int, bool) {
	if common.IsIntegerType(v) {
		i, err := common.ToInt64(v)
		return []int{int(i)}, err == nil
	}
	switch x := v.(type) {
	case []int:
		return x, true
	case []int32:
		return common.Ints(x), true
	case []int64:
		return common.Ints(x), true
	case []any:
		out := make([]int, len(x))
		for i, y := range x {
			if !common.IsIntegerType(y) {
				return nil, false
			}
			n, err := common.ToInt64(y)
			if err != nil {
				return nil, false
			}
			out[i] = int(n)
		}
		return out, true
	default:
		return nil, false
	}
}

// YearsMatch selects the data years contained in years (an int or a list of ints)
func YearsMatch(data []int, years any) ([]bool, error) {
	ys, ok := intsOf(years)
	if !ok {
		return nil, errors.NewTypeError("YearsMatch", "`year` can only be filtered with ints or lists of ints")
	}
	return isIn(data, ys), nil
}

// HourMatch selects the data hours contained in hours (an int or a list of ints)
func HourMatch(data []int, hours any) ([]bool, error) {
	hs, ok := intsOf(hours)
	if !ok {
		return nil, errors.NewTypeError("HourMatch", "`hour` can only be filtered with ints or lists of ints")
	}
	return isIn(data, hs), nil
}

// MonthMatch selects data months (1-12) matching months: ints, names,
// abbreviations or increasing ranges such as "Mar-May"
func MonthMatch(data []int, months any) ([]bool, error) {
	ms, err := timeComponents(months, monthNames, 1, "month")
	if err != nil {
		return nil, err
	}
	return isIn(data, ms), nil
}

// DayMatch selects data weekdays (Monday = 0) matching days: ints, names,
// abbreviations or increasing ranges such as "Mon-Fri"
func DayMatch(data []int, days any) ([]bool, error) {
	ds, err := timeComponents(days, weekdayNames, 0, "day")
	if err != nil {
		return nil, err
	}
	return isIn(data, ds), nil
}

func timeComponents(spec any, names []string, first int, what string) ([]int, error) {
	var strs []string
	switch s := spec.(type) {
	case string:
		strs = []string{s}
	case []string:
		strs = s
	default:
		if ints, ok := intsOf(spec); ok {
			return ints, nil
		}
		if list, ok := spec.([]any); ok {
			return mixedComponents(list, names, first, what)
		}
		return nil, errors.NewTypeError(opName(what),
			fmt.Sprintf("`%s` can only be filtered with ints, strings or lists of them, got %T", what, spec))
	}

	var out []int
	for _, s := range strs {
		ints, err := parseComponent(s, names, first, what)
		if err != nil {
			return nil, err
		}
		out = append(out, ints...)
	}
	return out, nil
}

func mixedComponents(list []any, names []string, first int, what string) ([]int, error) {
	var out []int
	for _, item := range list {
		ints, err := timeComponents(item, names, first, what)
		if err != nil {
			return nil, err
		}
		out = append(out, ints...)
	}
	return out, nil
}

// parseComponent converts a name or a "From-To" range of names
func parseComponent(s string, names []string, first int, what string) ([]int, error) {
	from, to, isRange := strings.Cut(s, "-")
	if !isRange {
		v, err := componentByName(s, names, first, what)
		if err != nil {
			return nil, err
		}
		return []int{v}, nil
	}

	lo, err := componentByName(from, names, first, what)
	if err != nil {
		return nil, err
	}
	hi, err := componentByName(to, names, first, what)
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, errors.NewSpecificationError(opName(what), fmt.Sprintf(
			"string ranges must lead to increasing integer ranges, %s becomes [%d, %d]", s, lo, hi))
	}
	out := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		out = append(out, v)
	}
	return out, nil
}

// componentByName accepts the full name or its three letter abbreviation
func componentByName(s string, names []string, first int, what string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if key == name || (len(key) == 3 && strings.HasPrefix(name, key)) {
			return first + i, nil
		}
	}
	return 0, errors.NewSpecificationError(opName(what), fmt.Sprintf("could not convert %s '%s' to integer", what, s))
}

// DatetimeMatch selects the data timestamps equal to one of dts: a
// time.Time, a calendar.DateTime or a list of either
func DatetimeMatch(data []time.Time, dts any) ([]bool, error) {
	var targets []time.Time
	switch d := dts.(type) {
	case time.Time:
		targets = []time.Time{d}
	case []time.Time:
		targets = d
	case calendar.DateTime:
		t, err := d.Time()
		if err != nil {
			return nil, err
		}
		targets = []time.Time{t}
	case []calendar.DateTime:
		targets = make([]time.Time, len(d))
		for i, dt := range d {
			t, err := dt.Time()
			if err != nil {
				return nil, err
			}
			targets[i] = t
		}
	default:
		return nil, errors.NewTypeError("DatetimeMatch", "`time` can only be filtered with datetimes or lists of datetimes")
	}

	keys := make([]instant, len(targets))
	for i, t := range targets {
		keys[i] = instantOf(t)
	}
	seen := make([]instant, len(data))
	for i, t := range data {
		seen[i] = instantOf(t)
	}
	return isIn(seen, keys), nil
}

// instant is a comparable key for a point in time
type instant struct {
	sec  int64
	nsec int
}

func instantOf(t time.Time) instant {
	return instant{sec: t.Unix(), nsec: t.Nanosecond()}
}

func opName(what string) string {
	return strings.ToUpper(what[:1]) + what[1:] + "Match"
}
