// Package testutil provides ensemble fixtures and assertions shared by the
// package tests.
//
// A default ensemble holds three scenarios of one warming variable with
// three ensemble members each. Member m of scenario k warms linearly from
// 0.1m in the first year to k+1+0.1m in the last one.
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/run"
	"github.com/paveg/scmframe/internal/timeaxis"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator *memory.CheckedAllocator
	tb        testing.TB
}

// Release asserts that everything allocated through the context was freed.
func (tmc *TestMemoryContext) Release() {
	tmc.Allocator.AssertSize(tmc.tb, 0)
}

// SetupMemoryTest creates a checked allocator for tests.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewCheckedAllocator(memory.NewGoAllocator()),
		tb:        tb,
	}
}

type ensembleConfig struct {
	scenarios []string
	variables []string
	members   int
	years     []int
	unit      string
	opts      []run.Option
}

// EnsembleOption configures NewEnsemble.
type EnsembleOption func(*ensembleConfig)

// WithScenarios sets the scenario labels.
func WithScenarios(scenarios ...string) EnsembleOption {
	return func(c *ensembleConfig) { c.scenarios = scenarios }
}

// WithVariables sets the variable labels.
func WithVariables(variables ...string) EnsembleOption {
	return func(c *ensembleConfig) { c.variables = variables }
}

// WithMembers sets the number of ensemble members per scenario and variable.
func WithMembers(n int) EnsembleOption {
	return func(c *ensembleConfig) { c.members = n }
}

// WithYears sets the time axis.
func WithYears(years ...int) EnsembleOption {
	return func(c *ensembleConfig) { c.years = years }
}

// WithUnit sets the unit of every timeseries.
func WithUnit(unit string) EnsembleOption {
	return func(c *ensembleConfig) { c.unit = unit }
}

// WithRunOptions passes options through to run.New.
func WithRunOptions(opts ...run.Option) EnsembleOption {
	return func(c *ensembleConfig) { c.opts = append(c.opts, opts...) }
}

// Years returns from, from+step, ... up to and including to.
func Years(from, to, step int) []int {
	var out []int
	for y := from; y <= to; y += step {
		out = append(out, y)
	}
	return out
}

// YearAxis builds a yearly axis from the given years.
func YearAxis(tb testing.TB, years ...int) *timeaxis.TimeAxis {
	tb.Helper()
	axis, err := timeaxis.New(timeaxis.Years(years...))
	require.NoError(tb, err)
	return axis
}

// NewEnsemble creates an ensemble with metadata columns climate_model,
// ensemble_member, model, region, scenario, unit and variable.
func NewEnsemble(tb testing.TB, opts ...EnsembleOption) *run.Run {
	tb.Helper()
	c := ensembleConfig{
		scenarios: []string{"ssp126", "ssp245", "ssp585"},
		variables: []string{"Surface Air Temperature Change"},
		members:   3,
		years:     Years(2000, 2100, 10),
		unit:      "K",
	}
	for _, opt := range opts {
		opt(&c)
	}

	axis := YearAxis(tb, c.years...)
	first, last := float64(c.years[0]), float64(c.years[len(c.years)-1])

	var (
		scenarios, variables []string
		members              []float64
		values               [][]float64
	)
	for k, scenario := range c.scenarios {
		for _, variable := range c.variables {
			for m := 0; m < c.members; m++ {
				row := make([]float64, len(c.years))
				for t, y := range c.years {
					frac := 0.0
					if last > first {
						frac = (float64(y) - first) / (last - first)
					}
					row[t] = float64(k+1)*frac + 0.1*float64(m)
				}
				scenarios = append(scenarios, scenario)
				variables = append(variables, variable)
				members = append(members, float64(m))
				values = append(values, row)
			}
		}
	}

	n := len(values)
	mem := memory.NewGoAllocator()
	constant := func(name, label string) *meta.Column {
		col, err := meta.Constant(name, meta.String(label), n, mem)
		require.NoError(tb, err)
		return col
	}

	cols := []*meta.Column{
		constant("climate_model", "a_climate_model"),
		meta.NewNumberColumn("ensemble_member", members, mem),
		constant("model", "a_model"),
		constant("region", "World"),
		meta.NewStringColumn("scenario", scenarios, mem),
		constant("unit", c.unit),
		meta.NewStringColumn("variable", variables, mem),
	}

	r, err := run.New(cols, values, axis, c.opts...)
	require.NoError(tb, err)
	return r
}

// AssertRunHasColumns asserts that a run has the expected metadata columns.
func AssertRunHasColumns(t *testing.T, r *run.Run, expected ...string) {
	t.Helper()
	for _, name := range expected {
		assert.True(t, r.HasColumn(name), "run should have column %s", name)
	}
}

// AssertRunNotEmpty asserts that a run holds timeseries.
func AssertRunNotEmpty(t *testing.T, r *run.Run) {
	t.Helper()
	assert.Positive(t, r.Len(), "run should have timeseries")
	assert.Positive(t, r.TimeAxis().Len(), "run should have time points")
}

// AssertRowInDelta asserts the values of timeseries i within delta.
func AssertRowInDelta(t *testing.T, r *run.Run, i int, expected []float64, delta float64) {
	t.Helper()
	row, err := r.Row(i)
	require.NoError(t, err)
	require.Len(t, row, len(expected))
	assert.InDeltaSlice(t, expected, row, delta)
}

// Labels returns the string labels of a metadata column, missing as "".
func Labels(t *testing.T, r *run.Run, column string) []string {
	t.Helper()
	col, err := r.Column(column)
	require.NoError(t, err)
	out := make([]string, col.Len())
	for i, v := range col.Values() {
		out[i] = v.Label("")
	}
	return out
}
