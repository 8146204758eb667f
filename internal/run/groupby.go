package run

import (
	"fmt"
	"slices"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/validation"
)

// GroupOptions controls GroupByWithOptions
type GroupOptions struct {
	// NAFill, when set, replaces missing values in the group keys and must
	// not already be a label of a group column holding missing values.
	// Missing keys form their own group either way.
	NAFill *meta.Value
}

// Groups partitions a run by the values of some metadata columns. Groups
// are kept in order of first appearance.
type Groups struct {
	run    *Run
	cols   []string
	groups []group
}

type group struct {
	key  []meta.Value
	rows []int
}

// GroupBy groups the timeseries by cols. With no columns every timeseries
// falls in one group.
func (r *Run) GroupBy(cols ...string) (*Groups, error) {
	return r.GroupByWithOptions(GroupOptions{}, cols...)
}

// GroupByWithOptions is GroupBy with options
func (r *Run) GroupByWithOptions(opts GroupOptions, cols ...string) (*Groups, error) {
	if err := validation.ValidateColumns(r, "GroupBy", cols...); err != nil {
		return nil, err
	}

	keyCols := make([]*meta.Column, len(cols))
	for j, name := range cols {
		keyCols[j] = r.meta[r.columnIndex(name)]
		if opts.NAFill != nil && keyCols[j].HasMissing() {
			for _, c := range keyCols[j].Categories() {
				if c.Equal(*opts.NAFill) {
					return nil, errors.NewValidationError("GroupBy", name, fmt.Sprintf(
						"fill value %s is already a label of %s", opts.NAFill, name))
				}
			}
		}
	}

	g := &Groups{run: r, cols: slices.Clone(cols)}
	err := r.record("GroupBy", false, func() error {
		buckets := make(map[uint64][]int)
		for i := 0; i < r.Len(); i++ {
			h := rowKey(keyCols, i)
			found := -1
			for _, gi := range buckets[h] {
				if sameCodes(keyCols, i, g.groups[gi].rows[0]) {
					found = gi
					break
				}
			}
			if found < 0 {
				key := make([]meta.Value, len(keyCols))
				for j, col := range keyCols {
					key[j] = col.Value(i)
					if opts.NAFill != nil && key[j].IsMissing() {
						key[j] = *opts.NAFill
					}
				}
				found = len(g.groups)
				g.groups = append(g.groups, group{key: key})
				buckets[h] = append(buckets[h], found)
			}
			g.groups[found].rows = append(g.groups[found].rows, i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.debug("group by", "columns", cols, "groups", len(g.groups))
	return g, nil
}

// Len returns the number of groups
func (g *Groups) Len() int { return len(g.groups) }

// Columns returns the grouping columns
func (g *Groups) Columns() []string { return slices.Clone(g.cols) }

// Key returns the grouping values of group i
func (g *Groups) Key(i int) map[string]meta.Value {
	out := make(map[string]meta.Value, len(g.cols))
	for j, name := range g.cols {
		out[name] = g.groups[i].key[j]
	}
	return out
}

// Group returns the timeseries of group i
func (g *Groups) Group(i int) (*Run, error) {
	if err := validation.ValidateIndex(i, len(g.groups), "Group"); err != nil {
		return nil, err
	}
	return g.run.take(g.groups[i].rows, positions(trueMask(g.run.axis.Len())))
}

// Map applies fn to every group and appends the results. Groups for which
// fn returns nil are dropped; when all are dropped Map returns nil.
func (g *Groups) Map(fn func(*Run) (*Run, error)) (*Run, error) {
	var parts []*Run
	for i := range g.groups {
		sub, err := g.Group(i)
		if err != nil {
			return nil, err
		}
		res, err := fn(sub)
		if err != nil {
			return nil, err
		}
		if res != nil {
			parts = append(parts, res)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return Append(parts...)
}

// Reduce collapses every group to one timeseries with reducer applied per
// time point. The result keeps only the grouping columns.
func (g *Groups) Reduce(reducer Reducer) (*Run, error) {
	r := g.run
	nt := r.axis.Len()
	values := make([][]float64, len(g.groups))
	buf := make([]float64, 0, r.Len())
	for gi, grp := range g.groups {
		row := make([]float64, nt)
		for t := 0; t < nt; t++ {
			buf = buf[:0]
			for _, i := range grp.rows {
				buf = append(buf, r.values[i][t])
			}
			row[t] = apply(reducer, buf)
		}
		values[gi] = row
	}

	cols := make([]*meta.Column, len(g.cols))
	for j, name := range g.cols {
		vals := make([]meta.Value, len(g.groups))
		for gi, grp := range g.groups {
			vals[gi] = grp.key[j]
		}
		col, err := meta.NewColumn(name, vals, r.mem)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return r.derive(cols, values, r.axis), nil
}

// ProcessOver reduces over cols, grouping by every other metadata column
func (r *Run) ProcessOver(cols []string, reducer Reducer) (*Run, error) {
	if err := validation.ValidateColumns(r, "ProcessOver", cols...); err != nil {
		return nil, err
	}
	g, err := r.GroupBy(r.GetMetaColumnsExcept(cols...)...)
	if err != nil {
		return nil, err
	}
	return g.Reduce(reducer)
}

// QuantilesOver computes each quantile over cols. The result has a
// "quantile" column holding the quantile of every timeseries.
func (r *Run) QuantilesOver(cols []string, quantiles []float64) (*Run, error) {
	if len(quantiles) == 0 {
		return nil, errors.NewSpecificationError("QuantilesOver", "no quantiles given")
	}
	parts := make([]*Run, 0, len(quantiles))
	for _, q := range quantiles {
		if q < 0 || q > 1 {
			return nil, errors.NewRangeError("QuantilesOver", fmt.Sprintf("quantile %v is outside [0, 1]", q))
		}
		part, err := r.ProcessOver(cols, Quantile(q))
		if err != nil {
			return nil, err
		}
		if err := part.SetMeta(QuantileColumn, q); err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return Append(parts...)
}
