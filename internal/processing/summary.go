package processing

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/run"
	"github.com/paveg/scmframe/internal/validation"
)

const defaultSummaryVariable = "Surface Air Temperature Change"

// ProgressFunc observes summary statistics as they complete
type ProgressFunc func(done, total int, name string)

// SummaryOptions configures CalculateSummaryStats. Zero fields take the
// defaults of DefaultSummaryOptions. Naming bases are fmt formats with one
// %s verb receiving the threshold or quantile.
type SummaryOptions struct {
	ExceedanceThresholds []float64
	ExceedanceVariable   string
	ExceedanceNaming     string

	PeakQuantiles  []float64
	PeakVariable   string
	PeakNaming     string
	PeakTimeNaming string
	// PeakReturnTime reports peak timestamps instead of years
	PeakReturnTime bool

	CategorisationVariable     string
	CategorisationQuantileCols []string

	Progress ProgressFunc
}

// DefaultSummaryOptions returns the standard warming summary configuration
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		ExceedanceThresholds:       []float64{1.5, 2.0, 2.5},
		ExceedanceVariable:         defaultSummaryVariable,
		ExceedanceNaming:           defaultExceedanceName,
		PeakQuantiles:              []float64{0.05, 0.17, 0.5, 0.83, 0.95},
		PeakVariable:               defaultSummaryVariable,
		PeakNaming:                 "%s peak",
		PeakTimeNaming:             "%s peak year",
		CategorisationVariable:     defaultSummaryVariable,
		CategorisationQuantileCols: []string{"ensemble_member"},
	}
}

func (o SummaryOptions) withDefaults() SummaryOptions {
	d := DefaultSummaryOptions()
	if o.ExceedanceThresholds == nil {
		o.ExceedanceThresholds = d.ExceedanceThresholds
	}
	if o.ExceedanceVariable == "" {
		o.ExceedanceVariable = d.ExceedanceVariable
	}
	if o.ExceedanceNaming == "" {
		o.ExceedanceNaming = d.ExceedanceNaming
	}
	if o.PeakQuantiles == nil {
		o.PeakQuantiles = d.PeakQuantiles
	}
	if o.PeakVariable == "" {
		o.PeakVariable = d.PeakVariable
	}
	if o.PeakNaming == "" {
		o.PeakNaming = d.PeakNaming
	}
	if o.PeakTimeNaming == "" {
		o.PeakTimeNaming = d.PeakTimeNaming
		if o.PeakReturnTime {
			o.PeakTimeNaming = "%s peak time"
		}
	}
	if o.CategorisationVariable == "" {
		o.CategorisationVariable = d.CategorisationVariable
	}
	if o.CategorisationQuantileCols == nil {
		o.CategorisationQuantileCols = d.CategorisationQuantileCols
	}
	return o
}

// SummaryRow is one statistic of one index key
type SummaryRow struct {
	Key       []meta.Value
	Statistic string
	Value     meta.Value
}

// Summary is a long table of statistics per index key
type Summary struct {
	Index []string
	Rows  []SummaryRow
}

// Statistics returns the statistic names in order
func (s *Summary) Statistics() []string {
	var out []string
	for _, row := range s.Rows {
		if !slices.Contains(out, row.Statistic) {
			out = append(out, row.Statistic)
		}
	}
	return out
}

// Lookup returns a statistic of the first row matching key on every given
// index column
func (s *Summary) Lookup(key map[string]any, statistic string) (meta.Value, bool) {
	for _, row := range s.Rows {
		if row.Statistic != statistic {
			continue
		}
		ok := true
		for name, raw := range key {
			j := slices.Index(s.Index, name)
			v, err := meta.ParseValue(raw)
			if j < 0 || err != nil || !row.Key[j].Equal(v) {
				ok = false
				break
			}
		}
		if ok {
			return row.Value, true
		}
	}
	return meta.Missing(), false
}

// WriteTable renders the summary as a text table
func (s *Summary) WriteTable(w io.Writer) {
	header := append(slices.Clone(s.Index), "statistic", "value")
	rows := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		cells := make([]string, 0, len(header))
		for _, v := range row.Key {
			cells = append(cells, v.Label(""))
		}
		rows[i] = append(cells, row.Statistic, formatValue(row.Value))
	}
	renderTable(w, header, rows)
}

// statistic is one column of the summary before it is stacked
type statistic struct {
	name   string
	keys   [][]meta.Value
	values []meta.Value
}

// CalculateSummaryStats computes exceedance probabilities, peak and peak
// time quantiles and the SR1.5 category of every index key. The unit column
// is always part of the index. Missing statistics are left out.
func CalculateSummaryStats(r *run.Run, index []string, opts SummaryOptions) (*Summary, error) {
	opts = opts.withDefaults()
	idx := slices.Clone(index)
	if !slices.Contains(idx, run.UnitColumn) {
		idx = append(idx, run.UnitColumn)
	}
	if err := validation.ValidateColumns(r, "CalculateSummaryStats", idx...); err != nil {
		return nil, err
	}
	processOver := r.GetMetaColumnsExcept(idx...)

	exceedRun, err := variableRun(r, opts.ExceedanceVariable, "exceedance_probabilities_variable")
	if err != nil {
		return nil, err
	}
	peakRun, err := variableRun(r, opts.PeakVariable, "peak_variable")
	if err != nil {
		return nil, err
	}
	catRun, err := variableRun(r, opts.CategorisationVariable, "categorisation_variable")
	if err != nil {
		return nil, err
	}
	for _, col := range opts.CategorisationQuantileCols {
		if !catRun.HasColumn(col) {
			return nil, errors.NewValidationError("CalculateSummaryStats", col, fmt.Sprintf(
				"categorisation_quantile_cols `%v` not in `scmrun`. Available columns:%v",
				opts.CategorisationQuantileCols, r.MetaColumns()))
		}
	}

	type call struct {
		name string
		fn   func() (statistic, error)
	}
	var calls []call

	for _, t := range opts.ExceedanceThresholds {
		name := nameFrom(opts.ExceedanceNaming, t)
		calls = append(calls, call{name, func() (statistic, error) {
			s, err := CalculateExceedanceProbabilities(exceedRun, t, processOver, name)
			if err != nil {
				return statistic{}, err
			}
			return reindex(s, idx, name)
		}})
	}

	var peaks, peakTimes *Series
	for _, q := range opts.PeakQuantiles {
		name := nameFrom(opts.PeakNaming, q)
		calls = append(calls, call{name, func() (statistic, error) {
			if peaks == nil {
				var err error
				if peaks, err = CalculatePeak(peakRun, ""); err != nil {
					return statistic{}, err
				}
			}
			return groupQuantile(peaks, idx, q, name)
		}})
	}
	for _, q := range opts.PeakQuantiles {
		name := nameFrom(opts.PeakTimeNaming, q)
		calls = append(calls, call{name, func() (statistic, error) {
			if peakTimes == nil {
				var err error
				if peakTimes, err = CalculatePeakTime(peakRun, "", !opts.PeakReturnTime); err != nil {
					return statistic{}, err
				}
			}
			return groupQuantile(peakTimes, idx, q, name)
		}})
	}

	calls = append(calls, call{"SR1.5 category", func() (statistic, error) {
		quantiles, err := catRun.QuantilesOver(opts.CategorisationQuantileCols, []float64{0.33, 0.5, 0.66})
		if err != nil {
			return statistic{}, err
		}
		s, err := CategorisationSR15(quantiles, idx)
		if err != nil {
			return statistic{}, err
		}
		return reindex(s, idx, "SR1.5 category")
	}})

	stats := make([]statistic, 0, len(calls))
	for i, c := range calls {
		st, err := c.fn()
		if err != nil {
			return nil, fmt.Errorf("calculating %s: %w", c.name, err)
		}
		stats = append(stats, st)
		if opts.Progress != nil {
			opts.Progress(i+1, len(calls), c.name)
		}
	}
	return stack(idx, stats), nil
}

func variableRun(r *run.Run, variable, option string) (*run.Run, error) {
	sub, err := r.Filter(run.Filter{Meta: map[string]any{run.VariableColumn: variable}, Quiet: true})
	if err != nil {
		return nil, err
	}
	if sub.Empty() {
		available, _ := r.UniqueMeta(run.VariableColumn)
		return nil, errors.NewValidationError("CalculateSummaryStats", run.VariableColumn, fmt.Sprintf(
			"%s `%s` is not available. Available variables:%v", option, variable, available))
	}
	return sub, nil
}

// reindex reorders a series' index to cols
func reindex(s *Series, cols []string, name string) (statistic, error) {
	pos, err := positionsOf(s, cols)
	if err != nil {
		return statistic{}, err
	}
	st := statistic{name: name}
	for i := 0; i < s.Len(); i++ {
		st.keys = append(st.keys, keyValues(s, i, pos))
		st.values = append(st.values, s.values[i])
	}
	return st, nil
}

// groupQuantile computes the q-th quantile of s within each cols group;
// timestamp values are interpolated in time
func groupQuantile(s *Series, cols []string, q float64, name string) (statistic, error) {
	pos, err := positionsOf(s, cols)
	if err != nil {
		return statistic{}, err
	}

	st := statistic{name: name}
	groups := make(map[string]int)
	var members [][]float64
	isTime := false
	for i := 0; i < s.Len(); i++ {
		k := s.keyOf(i, pos)
		gi, ok := groups[k]
		if !ok {
			gi = len(st.keys)
			groups[k] = gi
			st.keys = append(st.keys, keyValues(s, i, pos))
			members = append(members, nil)
		}
		v := s.values[i]
		switch v.Kind() {
		case meta.KindNumber:
			f, _ := v.Float()
			members[gi] = append(members[gi], f)
		case meta.KindString:
			t, err := time.Parse(timeLayout, v.Str())
			if err != nil {
				return statistic{}, errors.NewTypeError("CalculateSummaryStats",
					fmt.Sprintf("cannot take a quantile of %q", v.Str()))
			}
			isTime = true
			members[gi] = append(members[gi], float64(t.UnixNano())/1e9)
		}
	}

	quantile := run.Quantile(q)
	st.values = make([]meta.Value, len(members))
	for gi, vals := range members {
		if len(vals) == 0 {
			continue
		}
		f := quantile(vals)
		if isTime {
			sec, frac := math.Modf(f)
			st.values[gi] = meta.String(time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(timeLayout))
		} else {
			st.values[gi] = meta.Number(f)
		}
	}
	return st, nil
}

func positionsOf(s *Series, cols []string) ([]int, error) {
	pos := make([]int, len(cols))
	for j, name := range cols {
		if pos[j] = s.columnIndex(name); pos[j] < 0 {
			return nil, errors.NewColumnNotFoundError("CalculateSummaryStats", name)
		}
	}
	return pos, nil
}

func keyValues(s *Series, i int, pos []int) []meta.Value {
	out := make([]meta.Value, len(pos))
	for j, p := range pos {
		out[j] = s.index[p].Value(i)
	}
	return out
}

// stack joins the statistics into long rows: keys in order of first
// appearance, statistics in call order, missing values dropped
func stack(index []string, stats []statistic) *Summary {
	var order [][]meta.Value
	seen := make(map[string]int)
	lookup := make([]map[string]meta.Value, len(stats))
	for si, st := range stats {
		lookup[si] = make(map[string]meta.Value, len(st.keys))
		for i, key := range st.keys {
			k := keyString(key)
			if _, ok := seen[k]; !ok {
				seen[k] = len(order)
				order = append(order, key)
			}
			if _, dup := lookup[si][k]; !dup {
				lookup[si][k] = st.values[i]
			}
		}
	}

	out := &Summary{Index: slices.Clone(index)}
	for _, key := range order {
		k := keyString(key)
		for si, st := range stats {
			v, ok := lookup[si][k]
			if !ok || v.IsMissing() {
				continue
			}
			out.Rows = append(out.Rows, SummaryRow{Key: key, Statistic: st.name, Value: v})
		}
	}
	return out
}
