//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkSuite(t *testing.T) {
	t.Run("add scenarios", func(t *testing.T) {
		suite := NewBenchmarkSuite()
		suite.AddScenario(BenchmarkScenario{Name: "filter", Operation: func() error { return nil }, Iterations: 1})
		suite.AddQuickScenario("append", "append two runs", 100, func() error { return nil })

		require.Len(t, suite.scenarios, 2)
		assert.Equal(t, defaultIterations, suite.scenarios[1].Iterations)
		assert.Equal(t, 100, suite.scenarios[1].Timeseries)
	})

	t.Run("run records durations", func(t *testing.T) {
		suite := NewBenchmarkSuite()
		calls := 0
		suite.AddScenario(BenchmarkScenario{
			Name:       "sleep",
			Iterations: 3,
			Operation: func() error {
				calls++
				time.Sleep(time.Millisecond)
				return nil
			},
		})

		results := suite.Run()
		require.Len(t, results, 1)
		assert.Equal(t, 3, calls)
		assert.True(t, results[0].Success)
		assert.LessOrEqual(t, results[0].MinDuration, results[0].AverageDuration)
		assert.LessOrEqual(t, results[0].AverageDuration, results[0].MaxDuration)
		assert.Positive(t, results[0].OperationsPerSec)
	})

	t.Run("failures stop the scenario", func(t *testing.T) {
		suite := NewBenchmarkSuite()
		calls := 0
		suite.AddScenario(BenchmarkScenario{
			Name:       "broken",
			Iterations: 5,
			Operation: func() error {
				calls++
				return errors.New("test error")
			},
		})

		results := suite.Run()
		assert.Equal(t, 1, calls)
		assert.False(t, results[0].Success)
		assert.Contains(t, results[0].ErrorMessage, "test error")
	})

	t.Run("zero iterations run once", func(t *testing.T) {
		suite := NewBenchmarkSuite()
		calls := 0
		suite.AddScenario(BenchmarkScenario{Name: "once", Operation: func() error { calls++; return nil }})
		suite.Run()
		assert.Equal(t, 1, calls)
	})

	t.Run("clear", func(t *testing.T) {
		suite := NewBenchmarkSuite()
		suite.AddQuickScenario("x", "", 1, func() error { return nil })
		suite.Run()
		suite.Clear()
		assert.Empty(t, suite.scenarios)
		assert.Empty(t, suite.GetResults())
	})
}

func TestBenchmarkReport(t *testing.T) {
	empty := NewBenchmarkSuite()
	assert.Contains(t, empty.GenerateReport(), "No benchmark results available")

	suite := NewBenchmarkSuite()
	suite.AddScenario(BenchmarkScenario{Name: "filter_by_variable", Timeseries: 1000, Iterations: 2, Operation: func() error { return nil }})
	suite.AddScenario(BenchmarkScenario{Name: "append", Iterations: 1, Operation: func() error { return errors.New("test failure") }})
	suite.Run()

	report := suite.GenerateReport()
	assert.Contains(t, report, "scmframe Benchmark Report")
	assert.Contains(t, report, "filter_by_variable")
	assert.Contains(t, report, "| 1000 |")
	assert.Contains(t, report, "test failure")
	assert.Contains(t, report, "Fastest Operation")
	assert.Contains(t, report, "Success Rate:** 1/2")

	var buf bytes.Buffer
	suite.RenderTable(&buf)
	assert.Contains(t, buf.String(), "SCENARIO")
	assert.Contains(t, buf.String(), "filter_by_variable")
	assert.Contains(t, buf.String(), "failed")
}
