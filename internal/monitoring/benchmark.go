package monitoring

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

const (
	defaultIterations = 10
	bytesToMB         = 1024 * 1024
	percentageBase    = 100
)

// BenchmarkScenario is one timed ensemble operation.
type BenchmarkScenario struct {
	Name        string
	Description string
	Timeseries  int // number of timeseries the operation touches
	Operation   func() error
	Iterations  int
}

// BenchmarkResult contains the results of running a benchmark scenario.
type BenchmarkResult struct {
	Scenario          BenchmarkScenario `json:"scenario"`
	Duration          time.Duration     `json:"duration"`
	AverageDuration   time.Duration     `json:"average_duration"`
	MinDuration       time.Duration     `json:"min_duration"`
	MaxDuration       time.Duration     `json:"max_duration"`
	MemoryAllocated   int64             `json:"memory_allocated"`
	MemoryAllocations int64             `json:"memory_allocations"`
	OperationsPerSec  float64           `json:"operations_per_sec"`
	Success           bool              `json:"success"`
	ErrorMessage      string            `json:"error_message,omitempty"`
}

// BenchmarkSuite manages and executes a collection of benchmark scenarios.
type BenchmarkSuite struct {
	scenarios []BenchmarkScenario
	results   []BenchmarkResult
}

// NewBenchmarkSuite creates a new benchmark suite.
func NewBenchmarkSuite() *BenchmarkSuite {
	return &BenchmarkSuite{
		scenarios: make([]BenchmarkScenario, 0),
		results:   make([]BenchmarkResult, 0),
	}
}

// AddScenario adds a benchmark scenario to the suite.
func (bs *BenchmarkSuite) AddScenario(scenario BenchmarkScenario) {
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddQuickScenario adds a scenario with the default iteration count.
func (bs *BenchmarkSuite) AddQuickScenario(name, description string, timeseries int, operation func() error) {
	bs.AddScenario(BenchmarkScenario{
		Name:        name,
		Description: description,
		Timeseries:  timeseries,
		Operation:   operation,
		Iterations:  defaultIterations,
	})
}

// Run executes all benchmark scenarios and returns the results.
func (bs *BenchmarkSuite) Run() []BenchmarkResult {
	bs.results = make([]BenchmarkResult, 0, len(bs.scenarios))

	for _, scenario := range bs.scenarios {
		bs.results = append(bs.results, bs.runScenario(scenario))
	}

	return bs.results
}

// runScenario executes a single benchmark scenario.
func (bs *BenchmarkSuite) runScenario(scenario BenchmarkScenario) BenchmarkResult {
	if scenario.Iterations <= 0 {
		scenario.Iterations = 1
	}

	durations := make([]time.Duration, 0, scenario.Iterations)
	var totalDuration time.Duration
	var memBefore, memAfter runtime.MemStats
	success := true
	errorMessage := ""

	runtime.GC()
	runtime.ReadMemStats(&memBefore)

	for i := range scenario.Iterations {
		start := time.Now()

		if err := scenario.Operation(); err != nil {
			success = false
			errorMessage = fmt.Sprintf("Iteration %d failed: %v", i+1, err)
			break
		}

		duration := time.Since(start)
		durations = append(durations, duration)
		totalDuration += duration
	}

	runtime.GC()
	runtime.ReadMemStats(&memAfter)

	var avgDuration, minDuration, maxDuration time.Duration
	if len(durations) > 0 {
		avgDuration = totalDuration / time.Duration(len(durations))
		minDuration, maxDuration = durations[0], durations[0]
		for _, d := range durations {
			minDuration = min(minDuration, d)
			maxDuration = max(maxDuration, d)
		}
	}

	opsPerSec := 0.0
	if avgDuration > 0 {
		opsPerSec = 1.0 / avgDuration.Seconds()
	}

	return BenchmarkResult{
		Scenario:          scenario,
		Duration:          totalDuration,
		AverageDuration:   avgDuration,
		MinDuration:       minDuration,
		MaxDuration:       maxDuration,
		MemoryAllocated:   int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // Safe memory calculation
		MemoryAllocations: int64(memAfter.Mallocs - memBefore.Mallocs),       //nolint:gosec // Safe memory calculation
		OperationsPerSec:  opsPerSec,
		Success:           success,
		ErrorMessage:      errorMessage,
	}
}

// GetResults returns the benchmark results.
func (bs *BenchmarkSuite) GetResults() []BenchmarkResult {
	return bs.results
}

// RenderTable writes the results as a terminal table.
func (bs *BenchmarkSuite) RenderTable(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"SCENARIO", "TIMESERIES", "ITERATIONS", "AVG", "MIN", "MAX", "MB", "STATUS"})
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	for _, result := range bs.results {
		tw.Append([]string{
			result.Scenario.Name,
			fmt.Sprintf("%d", result.Scenario.Timeseries),
			fmt.Sprintf("%d", result.Scenario.Iterations),
			result.AverageDuration.String(),
			result.MinDuration.String(),
			result.MaxDuration.String(),
			fmt.Sprintf("%.2f", float64(result.MemoryAllocated)/bytesToMB),
			status(result),
		})
	}
	tw.Render()
}

func status(result BenchmarkResult) string {
	if result.Success {
		return "ok"
	}
	return "failed: " + result.ErrorMessage
}

// GenerateReport generates a markdown report of the benchmark results.
func (bs *BenchmarkSuite) GenerateReport() string {
	if len(bs.results) == 0 {
		return "# Benchmark Report\n\nNo benchmark results available.\n"
	}

	var report strings.Builder

	report.WriteString("# scmframe Benchmark Report\n\n")
	fmt.Fprintf(&report, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	report.WriteString("## Summary\n\n")
	report.WriteString("| Scenario | Timeseries | Iterations | Avg Duration | Ops/Sec | Memory (MB) | Status |\n")
	report.WriteString("|----------|------------|------------|--------------|---------|-------------|--------|\n")
	for _, result := range bs.results {
		fmt.Fprintf(&report, "| %s | %d | %d | %v | %.2f | %.2f | %s |\n",
			result.Scenario.Name,
			result.Scenario.Timeseries,
			result.Scenario.Iterations,
			result.AverageDuration,
			result.OperationsPerSec,
			float64(result.MemoryAllocated)/bytesToMB,
			status(result))
	}
	report.WriteString("\n")

	bs.generatePerformanceInsights(&report)

	return report.String()
}

// generatePerformanceInsights generates the performance insights section of the report.
func (bs *BenchmarkSuite) generatePerformanceInsights(report *strings.Builder) {
	report.WriteString("## Performance Insights\n\n")

	if len(bs.results) > 1 {
		fastest, slowest := bs.findFastestAndSlowest()

		fmt.Fprintf(report, "- **Fastest Operation:** %s (%v average)\n",
			fastest.Scenario.Name, fastest.AverageDuration)
		fmt.Fprintf(report, "- **Slowest Operation:** %s (%v average)\n",
			slowest.Scenario.Name, slowest.AverageDuration)
	}

	successful := 0
	for _, result := range bs.results {
		if result.Success {
			successful++
		}
	}

	fmt.Fprintf(report, "- **Success Rate:** %d/%d (%.1f%%)\n",
		successful, len(bs.results), float64(successful)/float64(len(bs.results))*percentageBase)
}

// findFastestAndSlowest finds the fastest and slowest benchmark results.
func (bs *BenchmarkSuite) findFastestAndSlowest() (BenchmarkResult, BenchmarkResult) {
	fastest := bs.results[0]
	slowest := bs.results[0]

	for _, result := range bs.results[1:] {
		if result.Success && result.AverageDuration < fastest.AverageDuration {
			fastest = result
		}
		if result.Success && result.AverageDuration > slowest.AverageDuration {
			slowest = result
		}
	}

	return fastest, slowest
}

// Clear removes all scenarios and results from the suite.
func (bs *BenchmarkSuite) Clear() {
	bs.scenarios = bs.scenarios[:0]
	bs.results = bs.results[:0]
}
