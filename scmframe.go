// Package scmframe handles ensembles of simple-climate-model output:
// timeseries sharing categorical metadata, filtered by metadata patterns
// and time components, aligned across calendars by interpolation, converted
// between units, grouped and reduced into summary statistics.
//
// This package is the sole public API for the library.
package scmframe

import (
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/calendar"
	"github.com/paveg/scmframe/internal/config"
	"github.com/paveg/scmframe/internal/filters"
	"github.com/paveg/scmframe/internal/interpolate"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/monitoring"
	"github.com/paveg/scmframe/internal/offsets"
	"github.com/paveg/scmframe/internal/processing"
	"github.com/paveg/scmframe/internal/run"
	"github.com/paveg/scmframe/internal/timeaxis"
	"github.com/paveg/scmframe/internal/timeseries"
	"github.com/paveg/scmframe/internal/units"
)

type (
	// Run is a set of timeseries on one time axis with a metadata row each
	Run = run.Run
	// Record is one timeseries with its metadata, the input of FromRecords
	Record = run.Record
	// Filter selects timeseries by metadata and time points by component
	Filter = run.Filter
	// Groups partitions a run by metadata values
	Groups = run.Groups
	// Reducer collapses values along the run axis
	Reducer = run.Reducer
	// RunOption configures a Run
	RunOption = run.Option

	// TimeAxis is an ordered set of unique timestamps
	TimeAxis = timeaxis.TimeAxis
	// TimeInput is one of the accepted time axis inputs
	TimeInput = timeaxis.Input
	// TimeSeries is a single series with unit-aware arithmetic
	TimeSeries = timeseries.TimeSeries
	// TimeSeriesOption configures a TimeSeries
	TimeSeriesOption = timeseries.Option

	// Calendar identifies a calendar system
	Calendar = calendar.Calendar
	// DateTime is a timestamp in a calendar
	DateTime = calendar.DateTime
	// Offset is a calendar-aware frequency
	Offset = offsets.Offset

	// Value is a metadata value: string, number or missing
	Value = meta.Value
	// Column is a categorical metadata column
	Column = meta.Column

	// InterpolationType selects the rule between source points
	InterpolationType = interpolate.InterpolationType
	// ExtrapolationType selects the rule outside the source range
	ExtrapolationType = interpolate.ExtrapolationType

	// UnitConverter resolves unit conversion factors
	UnitConverter = units.Converter
	// Quantity is a magnitude with a unit
	Quantity = units.Quantity

	// Series is one statistic per index key
	Series = processing.Series
	// Summary is the long table returned by CalculateSummaryStats
	Summary = processing.Summary
	// SummaryOptions configures CalculateSummaryStats
	SummaryOptions = processing.SummaryOptions

	// Config holds library-wide settings
	Config = config.Config
	// MetricsCollector records operation timings
	MetricsCollector = monitoring.MetricsCollector
)

// Calendars
const (
	Standard           = calendar.Standard
	ProlepticGregorian = calendar.ProlepticGregorian
	NoLeap             = calendar.NoLeap
	AllLeap            = calendar.AllLeap
	Day360             = calendar.Day360
	Julian             = calendar.Julian
)

// Interpolation and extrapolation rules
const (
	Linear  = interpolate.Linear
	Nearest = interpolate.Nearest
	Cubic   = interpolate.Cubic
	Akima   = interpolate.Akima

	ExtrapolateNone     = interpolate.ExtrapolateNone
	ExtrapolateLinear   = interpolate.ExtrapolateLinear
	ExtrapolateConstant = interpolate.ExtrapolateConstant
)

// Reducers along the run axis; missing values are skipped
var (
	Mean   Reducer = run.Mean
	Median Reducer = run.Median
	Sum    Reducer = run.Sum
	Min    Reducer = run.Min
	Max    Reducer = run.Max
	StdDev Reducer = run.StdDev
)

// Quantile returns the reducer of the q-th quantile, linearly interpolated
func Quantile(q float64) Reducer { return run.Quantile(q) }

// NewRun creates a run from metadata columns, one row of values per
// timeseries and their time axis
func NewRun(cols []*Column, values [][]float64, axis *TimeAxis, opts ...RunOption) (*Run, error) {
	return run.New(cols, values, axis, opts...)
}

// FromRecords creates a run from per-timeseries records sharing times
func FromRecords(records []Record, times TimeInput, opts ...RunOption) (*Run, error) {
	return run.FromRecords(records, times, opts...)
}

// Append combines runs over the union of their time axes and metadata
func Append(runs ...*Run) (*Run, error) { return run.Append(runs...) }

// WithLogger sets the logger of a run and everything derived from it
func WithLogger(l *slog.Logger) RunOption { return run.WithLogger(l) }

// WithMetrics records the run's operations in mc
func WithMetrics(mc *MetricsCollector) RunOption { return run.WithMetrics(mc) }

// WithConfig overrides the global configuration for a run
func WithConfig(cfg Config) RunOption { return run.WithConfig(cfg) }

// WithAllocator sets the allocator of the run's metadata arrays
func WithAllocator(mem memory.Allocator) RunOption { return run.WithAllocator(mem) }

// NewMetricsCollector creates a collector, recording only when enabled
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return monitoring.NewMetricsCollector(enabled)
}

// NewTimeAxis creates a time axis from one input kind
func NewTimeAxis(input TimeInput) (*TimeAxis, error) { return timeaxis.New(input) }

// Time axis inputs
var (
	Years         = timeaxis.Years
	YearFractions = timeaxis.YearFractions
	Times         = timeaxis.Times
	DateTimes     = timeaxis.DateTimes
	Datetime64    = timeaxis.Datetime64
	Strings       = timeaxis.Strings
)

// NewTimeSeries creates a series over times
func NewTimeSeries(values []float64, times TimeInput, opts ...TimeSeriesOption) (*TimeSeries, error) {
	return timeseries.New(values, times, opts...)
}

// Time series options
var (
	WithName      = timeseries.WithName
	WithAttrs     = timeseries.WithAttrs
	WithConverter = timeseries.WithConverter
)

// ParseCalendar resolves a calendar name such as "noleap" or "360_day"
func ParseCalendar(name string) (Calendar, error) { return calendar.ParseCalendar(name) }

// NewDateTime creates a validated timestamp in cal
func NewDateTime(cal Calendar, year, month, day, hour, minute, second int) (DateTime, error) {
	return calendar.New(cal, year, month, day, hour, minute, second)
}

// ParseOffset parses a frequency string such as "AS", "2MS" or "6H"
func ParseOffset(freq string) (Offset, error) { return offsets.ParseOffset(freq) }

// GenerateRange returns every offset-aligned timestamp from start to end
func GenerateRange(start, end DateTime, offset Offset) ([]DateTime, error) {
	return offsets.GenerateRange(start, end, offset)
}

// ParseInterpolationType resolves "linear", "nearest", "cubic" or "akima"
func ParseInterpolationType(s string) (InterpolationType, error) {
	return interpolate.ParseInterpolationType(s)
}

// ParseExtrapolationType resolves "none", "linear" or "constant"
func ParseExtrapolationType(s string) (ExtrapolationType, error) {
	return interpolate.ParseExtrapolationType(s)
}

// NewUnitRegistry returns the default unit converter
func NewUnitRegistry() UnitConverter { return units.NewRegistry() }

// Q creates a quantity
func Q(m float64, unit string) Quantity { return units.Q(m, unit) }

// MatchPatterns reports which labels match any of the glob patterns, the
// way metadata filters do. level restricts variable depth ("" for any).
func MatchPatterns(labels []string, patterns []string, level string, regexp bool) ([]bool, error) {
	col := meta.NewStringColumn("variable", labels, memory.DefaultAllocator)
	defer col.Release()

	opts := filters.PatternOptions{Regexp: regexp, Separator: config.GetGlobalConfig().HierarchySeparator}
	if level != "" {
		l, err := filters.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		opts.Level = l
	}
	return filters.PatternMatch(col, meta.Strings(patterns...), opts)
}

// CalculateCrossingTimes returns the first time each timeseries exceeds
// threshold
func CalculateCrossingTimes(r *Run, threshold float64, returnYear bool) (*Series, error) {
	return processing.CalculateCrossingTimes(r, threshold, returnYear)
}

// CalculateExceedanceProbabilities returns the fraction of timeseries per
// group exceeding threshold at any time
func CalculateExceedanceProbabilities(r *Run, threshold float64, processOverCols []string,
	outputName string) (*Series, error) {
	return processing.CalculateExceedanceProbabilities(r, threshold, processOverCols, outputName)
}

// CalculateExceedanceProbabilitiesOverTime returns the fraction of
// timeseries per group exceeding threshold at each time
func CalculateExceedanceProbabilitiesOverTime(r *Run, threshold float64, processOverCols []string,
	outputName string) (*Run, error) {
	return processing.CalculateExceedanceProbabilitiesOverTime(r, threshold, processOverCols, outputName)
}

// CalculatePeak returns the maximum of every timeseries
func CalculatePeak(r *Run, outputName string) (*Series, error) {
	return processing.CalculatePeak(r, outputName)
}

// CalculatePeakTime returns the time of the maximum of every timeseries
func CalculatePeakTime(r *Run, outputName string, returnYear bool) (*Series, error) {
	return processing.CalculatePeakTime(r, outputName, returnYear)
}

// CategorisationSR15 classifies quantile warming into the SR1.5 categories
func CategorisationSR15(r *Run, index []string) (*Series, error) {
	return processing.CategorisationSR15(r, index)
}

// DefaultSummaryOptions returns the standard warming summary configuration
func DefaultSummaryOptions() SummaryOptions { return processing.DefaultSummaryOptions() }

// CalculateSummaryStats computes the standard warming summary per index key
func CalculateSummaryStats(r *Run, index []string, opts SummaryOptions) (*Summary, error) {
	return processing.CalculateSummaryStats(r, index, opts)
}

// WriteSummary renders a summary table to w
func WriteSummary(w io.Writer, s *Summary) { s.WriteTable(w) }

// LoadConfig reads a YAML or JSON configuration file
func LoadConfig(path string) (Config, error) { return config.LoadFromFile(path) }

// SetConfig replaces the global configuration
func SetConfig(cfg Config) { config.SetGlobalConfig(cfg) }

// GetConfig returns the global configuration
func GetConfig() Config { return config.GetGlobalConfig() }
