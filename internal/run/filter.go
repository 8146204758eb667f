package run

import (
	"fmt"
	"sort"

	"github.com/paveg/scmframe/internal/common"
	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/filters"
	"github.com/paveg/scmframe/internal/meta"
)

// Filter selects timeseries by metadata and time points by time components.
// Conditions are combined with AND; values within one condition with OR.
type Filter struct {
	// Meta maps a metadata column to a spec: a string glob, a number, nil
	// (missing) or a list of those
	Meta map[string]any

	// Year, Month, Day, Hour select time points. Day takes day-of-month
	// integers or weekday names.
	Year  any
	Month any
	Day   any
	Hour  any
	// Time takes time.Time or calendar.DateTime values
	Time any

	// Level narrows the variable match by hierarchy depth ("1", "2-", "0+").
	// Without a variable spec it applies to every variable.
	Level string
	// Regexp treats string specs as regular expressions
	Regexp bool
	// Exclude keeps what the conditions do not select
	Exclude bool
	// Quiet suppresses the empty-result warning
	Quiet bool
}

// Filter returns the timeseries and time points selected by f. An empty
// time selection yields an empty run on the original axis.
func (r *Run) Filter(f Filter) (*Run, error) {
	var out *Run
	err := r.record("Filter", false, func() error {
		var err error
		out, err = r.filter(f)
		return err
	})
	return out, err
}

func (r *Run) filter(f Filter) (*Run, error) {
	rows, hasMeta, err := r.metaMask(f)
	if err != nil {
		return nil, err
	}
	times, hasTime, err := r.timeMask(f)
	if err != nil {
		return nil, err
	}

	if f.Exclude {
		if hasMeta {
			invert(rows)
		}
		if hasTime {
			invert(times)
		}
	}

	rowIdx, timeIdx := positions(rows), positions(times)
	if len(timeIdx) == 0 {
		rowIdx = nil
		timeIdx = positions(trueMask(r.axis.Len()))
	}

	if len(rowIdx) == 0 && r.cfg.LogIfEmpty && !f.Quiet {
		r.logger.Warn("filtered run is empty", "filter", fmt.Sprintf("%+v", f))
	}
	r.debug("filter", "timeseries", len(rowIdx), "times", len(timeIdx))

	return r.take(rowIdx, timeIdx)
}

func (r *Run) metaMask(f Filter) ([]bool, bool, error) {
	rows := trueMask(r.Len())
	if len(f.Meta) == 0 && f.Level == "" {
		return rows, false, nil
	}

	var level *filters.Level
	if f.Level != "" {
		var err error
		if level, err = filters.ParseLevel(f.Level); err != nil {
			return nil, false, err
		}
	}

	specs := f.Meta
	if _, ok := specs[VariableColumn]; level != nil && !ok {
		specs = make(map[string]any, len(f.Meta)+1)
		for k, v := range f.Meta {
			specs[k] = v
		}
		specs[VariableColumn] = "*"
	}

	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		col, err := r.Column(key)
		if err != nil {
			return nil, false, errors.NewColumnNotFoundError("Filter", key)
		}
		values, err := specValues(specs[key])
		if err != nil {
			return nil, false, fmt.Errorf("filter on %q: %w", key, err)
		}
		opts := filters.PatternOptions{Regexp: f.Regexp, Separator: r.cfg.HierarchySeparator}
		if key == VariableColumn {
			opts.Level = level
		}
		mask, err := filters.PatternMatch(col, values, opts)
		if err != nil {
			return nil, false, err
		}
		and(rows, mask)
	}
	return rows, true, nil
}

func (r *Run) timeMask(f Filter) ([]bool, bool, error) {
	times := trueMask(r.axis.Len())
	applied := false

	apply := func(spec any, match func() ([]bool, error)) error {
		if spec == nil {
			return nil
		}
		mask, err := match()
		if err != nil {
			return err
		}
		and(times, mask)
		applied = true
		return nil
	}

	steps := []struct {
		spec  any
		match func() ([]bool, error)
	}{
		{f.Year, func() ([]bool, error) { return filters.YearsMatch(r.axis.Years(), f.Year) }},
		{f.Month, func() ([]bool, error) { return filters.MonthMatch(r.axis.Months(), f.Month) }},
		{f.Day, func() ([]bool, error) {
			if isNameSpec(f.Day) {
				return filters.DayMatch(r.axis.Weekdays(), f.Day)
			}
			return filters.DayMatch(r.axis.Days(), f.Day)
		}},
		{f.Hour, func() ([]bool, error) { return filters.HourMatch(r.axis.Hours(), f.Hour) }},
		{f.Time, func() ([]bool, error) { return filters.DatetimeMatch(r.axis.Values(), f.Time) }},
	}
	for _, s := range steps {
		if err := apply(s.spec, s.match); err != nil {
			return nil, false, err
		}
	}
	return times, applied, nil
}

// specValues converts a metadata filter spec into match values
func specValues(spec any) ([]meta.Value, error) {
	switch s := spec.(type) {
	case []meta.Value:
		return s, nil
	case []string:
		return meta.Strings(s...), nil
	case []float64:
		return meta.Numbers(s...), nil
	case []int:
		return meta.Numbers(common.Float64s(s)...), nil
	case []int64:
		return meta.Numbers(common.Float64s(s)...), nil
	case []any:
		out := make([]meta.Value, len(s))
		for i, raw := range s {
			v, err := meta.ParseValue(raw)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		v, err := meta.ParseValue(spec)
		if err != nil {
			return nil, err
		}
		return []meta.Value{v}, nil
	}
}

// isNameSpec reports whether a day spec is given by weekday name
func isNameSpec(spec any) bool {
	switch s := spec.(type) {
	case string, []string:
		return true
	case []any:
		if len(s) > 0 {
			_, ok := s[0].(string)
			return ok
		}
	}
	return false
}

func trueMask(n int) []bool {
	m := make([]bool, n)
	for i := range m {
		m[i] = true
	}
	return m
}

func and(dst, mask []bool) {
	for i := range dst {
		dst[i] = dst[i] && mask[i]
	}
}

func invert(m []bool) {
	for i := range m {
		m[i] = !m[i]
	}
}

func positions(m []bool) []int {
	out := make([]int, 0, len(m))
	for i, ok := range m {
		if ok {
			out = append(out, i)
		}
	}
	return out
}
