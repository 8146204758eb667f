package processing

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/run"
	"github.com/paveg/scmframe/internal/validation"
)

// SR1.5 category labels
const (
	CategoryBelow15        = "Below 1.5C"
	CategoryLowOvershoot   = "1.5C low overshoot"
	CategoryHighOvershoot  = "1.5C high overshoot"
	CategoryLower2         = "Lower 2C"
	CategoryHigher2        = "Higher 2C"
	CategoryAbove2         = "Above 2C"
	categorisationEndYear  = 2100
	categorisationStatName = "category"
)

var categorisationInputs = [4]string{"0.5 quantile peak", "0.33 quantile peak", "0.66 quantile peak", "2100 median"}

// CategorisationSR15 classifies warming the way the IPCC SR1.5 did. r must
// hold one temperature variable with a quantile column carrying at least
// the 0.33, 0.5 and 0.66 quantiles; index names the columns identifying a
// scenario.
//
// With peak the maximum over time and eoc the 2100 value of the median:
//
//	median peak > 2                  Above 2C
//	median peak <= 1.5               Below 1.5C
//	median peak > 1.5, eoc <= 1.5    1.5C low overshoot (p33 peak <= 1.5)
//	                                 or 1.5C high overshoot
//	otherwise                        Lower 2C (p66 peak <= 2)
//	                                 or Higher 2C (median peak <= 2)
//
// The overshoot categories take precedence over Above 2C.
func CategorisationSR15(r *run.Run, index []string) (*Series, error) {
	if err := assertSingle(r, run.VariableColumn); err != nil {
		return nil, err
	}
	converted, err := r.ConvertUnit("K", nil)
	if err != nil {
		return nil, err
	}
	if err := converted.SetMeta(run.UnitColumn, ""); err != nil {
		return nil, err
	}
	if err := validation.ValidateColumns(converted, "CategorisationSR15", index...); err != nil {
		return nil, err
	}

	peakAt := func(f run.Filter) (map[string]float64, error) {
		f.Quiet = true
		sub, err := converted.Filter(f)
		if err != nil {
			return nil, err
		}
		peaks, err := CalculatePeak(sub, "")
		if err != nil {
			return nil, err
		}
		return byKey(peaks, index)
	}
	quantile := func(q float64) run.Filter {
		return run.Filter{Meta: map[string]any{run.QuantileColumn: q}}
	}

	median, err := peakAt(quantile(0.5))
	if err != nil {
		return nil, err
	}
	p33, err := peakAt(quantile(0.33))
	if err != nil {
		return nil, err
	}
	p66, err := peakAt(quantile(0.66))
	if err != nil {
		return nil, err
	}
	eocFilter := quantile(0.5)
	eocFilter.Year = categorisationEndYear
	eoc, err := peakAt(eocFilter)
	if err != nil {
		return nil, err
	}

	groups, err := converted.GroupBy(index...)
	if err != nil {
		return nil, err
	}

	keys := make([][]meta.Value, groups.Len())
	values := make([]meta.Value, groups.Len())
	for gi := range keys {
		key := groups.Key(gi)
		vals := make([]meta.Value, len(index))
		for j, name := range index {
			vals[j] = key[name]
		}
		keys[gi] = vals

		k := keyString(vals)
		var stats [4]float64
		for j, src := range []map[string]float64{median, p33, p66, eoc} {
			f, ok := src[k]
			if !ok || math.IsNaN(f) {
				return nil, errors.NewInternalError("CategorisationSR15",
					fmt.Errorf("no %s for %v", categorisationInputs[j], vals))
			}
			stats[j] = f
		}
		category := classify(stats[0], stats[1], stats[2], stats[3])
		if category == "" {
			return nil, errors.NewInternalError("CategorisationSR15",
				fmt.Errorf("unclassified results for %v", vals))
		}
		values[gi] = meta.String(category)
	}

	cols, err := indexColumns(index, keys)
	if err != nil {
		return nil, err
	}
	return newSeries(categorisationStatName, cols, values), nil
}

func classify(median, p33, p66, eoc float64) string {
	category := ""
	if median > 2 {
		category = CategoryAbove2
	}
	if median <= 1.5 {
		category = CategoryBelow15
	}
	if median > 1.5 && eoc <= 1.5 {
		if p33 <= 1.5 {
			category = CategoryLowOvershoot
		}
		if p33 > 1.5 {
			category = CategoryHighOvershoot
		}
	}
	if category != "" {
		return category
	}

	p66Below2 := p66 <= 2
	if median <= 2 && !p66Below2 {
		category = CategoryHigher2
	}
	if p66Below2 {
		category = CategoryLower2
	}
	return category
}

// byKey maps the index key of every series row to its numeric value; the
// first row wins on repeated keys
func byKey(s *Series, index []string) (map[string]float64, error) {
	cols := make([]int, len(index))
	for j, name := range index {
		if cols[j] = s.columnIndex(name); cols[j] < 0 {
			return nil, errors.NewColumnNotFoundError("CategorisationSR15", name)
		}
	}
	out := make(map[string]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		k := s.keyOf(i, cols)
		if _, seen := out[k]; seen {
			continue
		}
		f, ok := s.values[i].Float()
		if !ok {
			f = math.NaN()
		}
		out[k] = f
	}
	return out, nil
}

func keyString(vals []meta.Value) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(v.String())
		b.WriteByte(0)
	}
	return b.String()
}

// indexColumns builds index columns from per-row key values
func indexColumns(names []string, keys [][]meta.Value) ([]*meta.Column, error) {
	cols := make([]*meta.Column, len(names))
	for j, name := range names {
		vals := make([]meta.Value, len(keys))
		for i, key := range keys {
			vals[i] = key[j]
		}
		col, err := meta.NewColumn(name, vals, memory.DefaultAllocator)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return cols, nil
}
