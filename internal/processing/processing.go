// Package processing computes summary statistics of ensembles: threshold
// crossing times, exceedance probabilities, peaks and peak times, the SR1.5
// warming categorisation and a combined summary table.
package processing

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/run"
)

// Dimensionless is the unit label of probabilities
const Dimensionless = "dimensionless"

const defaultExceedanceName = "%s exceedance probability"

// timeLayout formats timestamps returned instead of years
const timeLayout = "2006-01-02T15:04:05"

// CalculateCrossingTimes returns, per timeseries, the first time at which
// the value exceeds threshold: its year when returnYear is set, otherwise
// the timestamp. Timeseries that never cross are missing.
//
// Only times on the run's axis are considered; interpolate first for a finer
// resolution.
func CalculateCrossingTimes(r *run.Run, threshold float64, returnYear bool) (*Series, error) {
	index, err := metaIndex(r)
	if err != nil {
		return nil, err
	}
	axis := r.TimeAxis()
	values := make([]meta.Value, r.Len())
	for i, row := range r.Values() {
		values[i] = meta.Missing()
		for t, v := range row {
			if v > threshold {
				values[i] = timeValue(axis.At(t), returnYear)
				break
			}
		}
	}
	return newSeries("", index, values), nil
}

// CalculateExceedanceProbabilities returns, per group of timeseries sharing
// every metadata column except processOverCols, the fraction of timeseries
// that exceed threshold at any time. The unit becomes dimensionless; the
// series is named outputName or "<threshold> exceedance probability".
func CalculateExceedanceProbabilities(r *run.Run, threshold float64, processOverCols []string,
	outputName string) (*Series, error) {
	if err := assertSingle(r, run.VariableColumn, run.UnitColumn); err != nil {
		return nil, err
	}

	// the any-time indicator is broadcast over the row to keep the run shape
	exceeds := r.Values()
	for _, row := range exceeds {
		hit := 0.0
		for _, v := range row {
			if v > threshold {
				hit = 1
				break
			}
		}
		for t := range row {
			row[t] = hit
		}
	}

	g, err := indicatorGroups(r, exceeds, processOverCols)
	if err != nil {
		return nil, err
	}
	means, err := g.Reduce(run.Mean)
	if err != nil {
		return nil, err
	}
	if means.HasColumn(run.UnitColumn) {
		if err := means.SetMeta(run.UnitColumn, Dimensionless); err != nil {
			return nil, err
		}
	}

	index, err := metaIndex(means)
	if err != nil {
		return nil, err
	}
	values := make([]meta.Value, means.Len())
	for i, row := range means.Values() {
		values[i] = meta.Number(row[0])
	}
	return newSeries(exceedanceName(outputName, threshold), index, values), nil
}

// CalculateExceedanceProbabilitiesOverTime returns the fraction of each
// group's timeseries above threshold at every time point. The result's
// variable is outputName (or the default name) and its unit dimensionless.
//
// Its maximum is at most CalculateExceedanceProbabilities over the same
// ensemble, which counts a timeseries once it exceeds at any time.
func CalculateExceedanceProbabilitiesOverTime(r *run.Run, threshold float64, processOverCols []string,
	outputName string) (*run.Run, error) {
	if err := assertSingle(r, run.VariableColumn, run.UnitColumn); err != nil {
		return nil, err
	}

	exceeds := r.Values()
	for _, row := range exceeds {
		for t, v := range row {
			if v > threshold {
				row[t] = 1
			} else {
				row[t] = 0
			}
		}
	}

	g, err := indicatorGroups(r, exceeds, processOverCols)
	if err != nil {
		return nil, err
	}
	out, err := g.Reduce(run.Mean)
	if err != nil {
		return nil, err
	}
	if out.HasColumn(run.VariableColumn) {
		if err := out.SetMeta(run.VariableColumn, exceedanceName(outputName, threshold)); err != nil {
			return nil, err
		}
	}
	if out.HasColumn(run.UnitColumn) {
		if err := out.SetMeta(run.UnitColumn, Dimensionless); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// indicatorGroups groups indicator values shaped like r by every column
// except processOverCols
func indicatorGroups(r *run.Run, values [][]float64, processOverCols []string) (*run.Groups, error) {
	ind, err := r.WithValues(values)
	if err != nil {
		return nil, err
	}
	return ind.GroupBy(ind.GetMetaColumnsExcept(processOverCols...)...)
}

// CalculatePeak returns the maximum of every timeseries. The variable
// becomes outputName, or "Peak <variable>" when outputName is empty.
func CalculatePeak(r *run.Run, outputName string) (*Series, error) {
	index, err := peakIndex(r, outputName, "Peak")
	if err != nil {
		return nil, err
	}
	values := make([]meta.Value, r.Len())
	for i, row := range r.Values() {
		if t := argMax(row); t >= 0 {
			values[i] = meta.Number(row[t])
		}
	}
	return newSeries("", index, values), nil
}

// CalculatePeakTime returns the time of the maximum of every timeseries, as
// a year when returnYear is set. The variable becomes outputName, or
// "Year of peak <variable>" ("Time of peak" for timestamps).
func CalculatePeakTime(r *run.Run, outputName string, returnYear bool) (*Series, error) {
	lead := "Time of peak"
	if returnYear {
		lead = "Year of peak"
	}
	index, err := peakIndex(r, outputName, lead)
	if err != nil {
		return nil, err
	}
	axis := r.TimeAxis()
	values := make([]meta.Value, r.Len())
	for i, row := range r.Values() {
		if t := argMax(row); t >= 0 {
			values[i] = timeValue(axis.At(t), returnYear)
		}
	}
	return newSeries("", index, values), nil
}

// argMax is the first position of the largest non-missing value, or -1
func argMax(row []float64) int {
	best := -1
	for t, v := range row {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > row[best] {
			best = t
		}
	}
	return best
}

func timeValue(t time.Time, year bool) meta.Value {
	if year {
		return meta.Number(float64(t.Year()))
	}
	return meta.String(t.Format(timeLayout))
}

func metaIndex(r *run.Run) ([]*meta.Column, error) {
	names := r.MetaColumns()
	index := make([]*meta.Column, len(names))
	for j, name := range names {
		col, err := r.Column(name)
		if err != nil {
			return nil, err
		}
		index[j] = col
	}
	return index, nil
}

func peakIndex(r *run.Run, outputName, lead string) ([]*meta.Column, error) {
	index, err := metaIndex(r)
	if err != nil {
		return nil, err
	}
	for j, col := range index {
		if col.Name() != run.VariableColumn {
			continue
		}
		labels := col.Values()
		for i, v := range labels {
			if outputName != "" {
				labels[i] = meta.String(outputName)
			} else {
				labels[i] = meta.String(lead + " " + v.Str())
			}
		}
		renamed, err := meta.NewColumn(run.VariableColumn, labels, memory.DefaultAllocator)
		if err != nil {
			return nil, err
		}
		index[j] = renamed
	}
	return index, nil
}

func exceedanceName(outputName string, threshold float64) string {
	if outputName != "" {
		return outputName
	}
	return nameFrom(defaultExceedanceName, threshold)
}

// assertSingle fails when a column holds more than one value
func assertSingle(r *run.Run, cols ...string) error {
	for _, col := range cols {
		vals, err := r.UniqueMeta(col)
		if err != nil {
			return err
		}
		if len(vals) > 1 {
			return errors.NewValidationError("processing", col, fmt.Sprintf(
				"More than one value for %s. This is unlikely to be what you want.", col))
		}
	}
	return nil
}
