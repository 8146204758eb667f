package run

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/paveg/scmframe/internal/calendar"
	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/interpolate"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/offsets"
	"github.com/paveg/scmframe/internal/parallel"
	"github.com/paveg/scmframe/internal/timeaxis"
	"github.com/paveg/scmframe/internal/units"
)

// Interpolate maps every timeseries onto target. Large runs are spread over
// a worker pool; the result does not depend on it.
func (r *Run) Interpolate(target timeaxis.Input, interp interpolate.InterpolationType,
	extrap interpolate.ExtrapolationType) (*Run, error) {
	axis, err := timeaxis.New(target)
	if err != nil {
		return nil, err
	}
	return r.interpolateTo("Interpolate", axis, interp, extrap)
}

func (r *Run) interpolateTo(op string, axis *timeaxis.TimeAxis, interp interpolate.InterpolationType,
	extrap interpolate.ExtrapolationType) (*Run, error) {
	conv, err := interpolate.NewConverter(r.axis, axis, interp, extrap)
	if err != nil {
		return nil, err
	}

	useParallel := r.Len() >= r.cfg.ParallelThreshold
	var rows [][]float64
	err = r.record(op, useParallel, func() error {
		if useParallel {
			pool := parallel.NewWorkerPool(r.cfg.WorkerPoolSize)
			defer pool.Close()
			r.debug("interpolating in parallel", "timeseries", r.Len(), "workers", pool.NumWorkers())
			var err error
			rows, err = parallel.ProcessIndexedErr(pool, r.values, func(_ int, row []float64) ([]float64, error) {
				return conv.Convert(row)
			})
			return err
		}
		rows = make([][]float64, r.Len())
		for i, row := range r.values {
			out, err := conv.Convert(row)
			if err != nil {
				return fmt.Errorf("timeseries %d: %w", i, err)
			}
			rows[i] = out
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = [][]float64{}
	}
	return r.derive(slices.Clone(r.meta), rows, axis), nil
}

// Resample interpolates onto a regular range with frequency freq spanning
// the run's axis, using the configured interpolation and linear
// extrapolation at the rolled-out ends.
func (r *Run) Resample(freq string) (*Run, error) {
	interp, err := interpolate.ParseInterpolationType(r.cfg.DefaultInterpolation)
	if err != nil {
		return nil, err
	}
	return r.ResampleWith(freq, interp, interpolate.ExtrapolateLinear)
}

// ResampleWith is Resample with explicit interpolation and extrapolation
func (r *Run) ResampleWith(freq string, interp interpolate.InterpolationType,
	extrap interpolate.ExtrapolationType) (*Run, error) {
	dts, err := offsets.Range(calendar.FromTime(r.axis.First()), calendar.FromTime(r.axis.Last()), freq)
	if err != nil {
		return nil, err
	}
	axis, err := timeaxis.New(timeaxis.DateTimes(dts...))
	if err != nil {
		return nil, err
	}
	return r.interpolateTo("Resample", axis, interp, extrap)
}

// ConvertUnit converts every timeseries to unit using converter (a fresh
// registry when nil). Rows without a unit are dimensionless.
func (r *Run) ConvertUnit(unit string, converter units.Converter) (*Run, error) {
	col, err := r.Column(UnitColumn)
	if err != nil {
		return nil, errors.NewColumnNotFoundError("ConvertUnit", UnitColumn)
	}
	if converter == nil {
		converter = units.NewRegistry()
	}

	factors := make(map[string]float64, col.NumCategories())
	values := make([][]float64, r.Len())
	for i, row := range r.values {
		from := col.Value(i).Str()
		f, ok := factors[from]
		if !ok {
			if f, err = converter.ConversionFactor(from, unit); err != nil {
				return nil, err
			}
			factors[from] = f
		}
		out := make([]float64, len(row))
		for k, v := range row {
			out[k] = v * f
		}
		values[i] = out
	}

	out := r.derive(slices.Clone(r.meta), values, r.axis)
	if err := out.SetMeta(UnitColumn, unit); err != nil {
		return nil, err
	}
	return out, nil
}

// Append combines runs. The result spans the union of the time axes (NaN
// where a run has no value) and the union of the metadata columns (missing
// where a run lacks the column). Duplicate metadata rows are an error.
func Append(runs ...*Run) (*Run, error) {
	if len(runs) == 0 {
		return nil, errors.NewConstructionError("Append", "nothing to append")
	}
	first := runs[0]
	if len(runs) == 1 {
		return first.Copy(), nil
	}

	var out *Run
	err := first.record("Append", false, func() error {
		var err error
		out, err = appendRuns(runs)
		return err
	})
	return out, err
}

// Append returns r with others appended
func (r *Run) Append(others ...*Run) (*Run, error) {
	return Append(append([]*Run{r}, others...)...)
}

func appendRuns(runs []*Run) (*Run, error) {
	first := runs[0]

	axis, err := unionAxis(runs)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, run := range runs {
		for _, name := range run.MetaColumns() {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	total := 0
	for _, run := range runs {
		total += run.Len()
	}

	cols := make([]*meta.Column, len(names))
	for j, name := range names {
		vals := make([]meta.Value, 0, total)
		for _, run := range runs {
			if k := run.columnIndex(name); k >= 0 {
				vals = append(vals, run.meta[k].Values()...)
				continue
			}
			for i := 0; i < run.Len(); i++ {
				vals = append(vals, meta.Missing())
			}
		}
		col, err := meta.NewColumn(name, vals, first.mem)
		if err != nil {
			return nil, fmt.Errorf("appending metadata: %w", err)
		}
		cols[j] = col
	}

	values := make([][]float64, 0, total)
	for _, run := range runs {
		slots := make([]int, run.axis.Len())
		for k, t := range run.axis.Values() {
			slots[k], _ = axis.Index(t)
		}
		for _, row := range run.values {
			out := make([]float64, axis.Len())
			for k := range out {
				out[k] = math.NaN()
			}
			for k, v := range row {
				out[slots[k]] = v
			}
			values = append(values, out)
		}
	}

	if row, dup := duplicateRow(cols, total); dup {
		return nil, errors.NewValidationError("Append", "", fmt.Sprintf(
			"duplicate metadata: timeseries %d repeats the metadata of an earlier timeseries", row))
	}
	return first.derive(cols, values, axis), nil
}

func unionAxis(runs []*Run) (*timeaxis.TimeAxis, error) {
	axis := runs[0].axis
	same := true
	for _, run := range runs[1:] {
		if !run.axis.Equal(axis) {
			same = false
			break
		}
	}
	if same {
		return axis, nil
	}

	var all []time.Time
	for _, run := range runs {
		all = append(all, run.axis.Values()...)
	}
	slices.SortFunc(all, func(a, b time.Time) int { return a.Compare(b) })
	all = slices.CompactFunc(all, func(a, b time.Time) bool { return a.Equal(b) })
	return timeaxis.New(timeaxis.Times(all...))
}

// duplicateRow returns the first row whose metadata repeats an earlier row
func duplicateRow(cols []*meta.Column, n int) (int, bool) {
	buckets := make(map[uint64][]int, n)
	for i := 0; i < n; i++ {
		key := rowKey(cols, i)
		for _, j := range buckets[key] {
			if sameCodes(cols, i, j) {
				return i, true
			}
		}
		buckets[key] = append(buckets[key], i)
	}
	return 0, false
}

// rowKey hashes the category codes of row i; missing hashes as code 0
func rowKey(cols []*meta.Column, i int) uint64 {
	d := xxhash.New()
	var buf [4]byte
	for _, col := range cols {
		code := uint32(col.Code(i) + 1)
		buf[0], buf[1], buf[2], buf[3] = byte(code), byte(code>>8), byte(code>>16), byte(code>>24)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

func sameCodes(cols []*meta.Column, i, j int) bool {
	for _, col := range cols {
		if col.Code(i) != col.Code(j) {
			return false
		}
	}
	return true
}
