// Package run holds an ensemble of timeseries sharing one time axis, each
// described by a row of categorical metadata.
//
// A Run is what the metadata filters, the time-component matchers, the
// interpolator and the summary statistics operate on. Values are stored as a
// timeseries x time matrix; metadata columns are Arrow dictionary arrays that
// are shared between derived runs and never mutated.
package run

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/config"
	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/monitoring"
	"github.com/paveg/scmframe/internal/timeaxis"
	"github.com/paveg/scmframe/internal/timeseries"
	"github.com/paveg/scmframe/internal/validation"
)

// Common metadata column names
const (
	VariableColumn = "variable"
	UnitColumn     = "unit"
	QuantileColumn = "quantile"
)

// Run is an ensemble of timeseries on a shared time axis
type Run struct {
	meta   []*meta.Column
	values [][]float64
	axis   *timeaxis.TimeAxis
	settings
}

type settings struct {
	logger  *slog.Logger
	metrics *monitoring.MetricsCollector
	cfg     config.Config
	mem     memory.Allocator
}

// Option configures a Run
type Option func(*settings)

// WithLogger sets the logger used for empty-filter warnings and verbose output
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records operation timings in mc
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(s *settings) { s.metrics = mc }
}

// WithConfig overrides the global configuration
func WithConfig(cfg config.Config) Option {
	return func(s *settings) { s.cfg = cfg.WithDefaults() }
}

// WithAllocator sets the allocator for metadata columns built by the run
func WithAllocator(mem memory.Allocator) Option {
	return func(s *settings) { s.mem = mem }
}

func newSettings(opts []Option) settings {
	s := settings{cfg: config.GetGlobalConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.mem == nil {
		s.mem = memory.NewGoAllocator()
	}
	return s
}

// New builds a run from metadata columns (all of length len(values)), the
// value rows (each of length axis.Len()) and the shared axis. Rows are copied.
func New(cols []*meta.Column, values [][]float64, axis *timeaxis.TimeAxis, opts ...Option) (*Run, error) {
	return newRun(cols, values, axis, newSettings(opts))
}

func newRun(cols []*meta.Column, values [][]float64, axis *timeaxis.TimeAxis, s settings) (*Run, error) {
	if axis == nil {
		return nil, errors.NewConstructionError("New", "time axis is required")
	}

	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if col == nil {
			return nil, errors.NewConstructionError("New", "nil metadata column")
		}
		if _, dup := seen[col.Name()]; dup {
			return nil, errors.NewConstructionError("New", fmt.Sprintf("duplicate metadata column %q", col.Name()))
		}
		seen[col.Name()] = struct{}{}
		if err := validation.ValidateLength(len(values), col.Len(), "New",
			fmt.Sprintf("metadata column %q", col.Name())); err != nil {
			return nil, err
		}
	}

	rows := make([][]float64, len(values))
	for i, row := range values {
		if err := validation.ValidateLength(axis.Len(), len(row), "New",
			fmt.Sprintf("timeseries %d", i)); err != nil {
			return nil, err
		}
		rows[i] = slices.Clone(row)
	}

	return &Run{meta: slices.Clone(cols), values: rows, axis: axis, settings: s}, nil
}

// derive builds a run sharing r's settings without copying rows
func (r *Run) derive(cols []*meta.Column, values [][]float64, axis *timeaxis.TimeAxis) *Run {
	return &Run{meta: cols, values: values, axis: axis, settings: r.settings}
}

// Record is one timeseries with its metadata, used by FromRecords
type Record struct {
	Meta   map[string]any
	Values []float64
}

// FromRecords builds a run from per-timeseries metadata maps. Metadata
// columns are sorted by name; keys absent from a record are missing.
func FromRecords(records []Record, times timeaxis.Input, opts ...Option) (*Run, error) {
	axis, err := timeaxis.New(times)
	if err != nil {
		return nil, err
	}
	s := newSettings(opts)

	var names []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec.Meta {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	cols := make([]*meta.Column, len(names))
	for j, name := range names {
		vals := make([]meta.Value, len(records))
		for i, rec := range records {
			v, err := meta.ParseValue(rec.Meta[name])
			if err != nil {
				return nil, fmt.Errorf("metadata %q of record %d: %w", name, i, err)
			}
			vals[i] = v
		}
		col, err := meta.NewColumn(name, vals, s.mem)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}

	values := make([][]float64, len(records))
	for i, rec := range records {
		values[i] = rec.Values
	}
	return newRun(cols, values, axis, s)
}

// Len returns the number of timeseries
func (r *Run) Len() int { return len(r.values) }

// Empty reports whether the run holds no timeseries
func (r *Run) Empty() bool { return len(r.values) == 0 }

// TimeAxis returns the shared axis
func (r *Run) TimeAxis() *timeaxis.TimeAxis { return r.axis }

// MetaColumns returns the metadata column names in order
func (r *Run) MetaColumns() []string {
	names := make([]string, len(r.meta))
	for i, col := range r.meta {
		names[i] = col.Name()
	}
	return names
}

// HasColumn reports whether a metadata column exists
func (r *Run) HasColumn(name string) bool { return r.columnIndex(name) >= 0 }

func (r *Run) columnIndex(name string) int {
	for i, col := range r.meta {
		if col.Name() == name {
			return i
		}
	}
	return -1
}

// Column returns a metadata column
func (r *Run) Column(name string) (*meta.Column, error) {
	i := r.columnIndex(name)
	if i < 0 {
		return nil, errors.NewColumnNotFoundError("Column", name)
	}
	return r.meta[i], nil
}

// GetMetaColumnsExcept returns the metadata column names not in cols
func (r *Run) GetMetaColumnsExcept(cols ...string) []string {
	var out []string
	for _, name := range r.MetaColumns() {
		if !slices.Contains(cols, name) {
			out = append(out, name)
		}
	}
	return out
}

// Values returns a copy of the value matrix
func (r *Run) Values() [][]float64 {
	out := make([][]float64, len(r.values))
	for i, row := range r.values {
		out[i] = slices.Clone(row)
	}
	return out
}

// Row returns a copy of timeseries i
func (r *Run) Row(i int) ([]float64, error) {
	if err := validation.ValidateIndex(i, r.Len(), "Row"); err != nil {
		return nil, err
	}
	return slices.Clone(r.values[i]), nil
}

// UniqueMeta returns the distinct values of a metadata column in order of
// first appearance, missing included.
func (r *Run) UniqueMeta(name string) ([]meta.Value, error) {
	col, err := r.Column(name)
	if err != nil {
		return nil, err
	}
	seen := make([]bool, col.NumCategories())
	seenMissing := false
	var out []meta.Value
	for i := 0; i < col.Len(); i++ {
		code := col.Code(i)
		if code < 0 {
			if !seenMissing {
				seenMissing = true
				out = append(out, meta.Missing())
			}
			continue
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, col.Category(code))
		}
	}
	return out, nil
}

// SingleMeta returns the only value of a metadata column, or an error when
// the run holds more than one.
func (r *Run) SingleMeta(name string) (meta.Value, error) {
	vals, err := r.UniqueMeta(name)
	if err != nil {
		return meta.Missing(), err
	}
	switch len(vals) {
	case 0:
		return meta.Missing(), errors.NewValidationError("SingleMeta", name, "run is empty")
	case 1:
		return vals[0], nil
	default:
		return meta.Missing(), errors.NewValidationError("SingleMeta", name, fmt.Sprintf(
			"more than one value for %s (%d values), this is unlikely to be what you want", name, len(vals)))
	}
}

// TimeSeries projects timeseries i. Metadata labels become attributes, the
// variable names the series.
func (r *Run) TimeSeries(i int) (*timeseries.TimeSeries, error) {
	if err := validation.ValidateIndex(i, r.Len(), "TimeSeries"); err != nil {
		return nil, err
	}
	attrs := make(map[string]string, len(r.meta))
	for _, col := range r.meta {
		if v := col.Value(i); !v.IsMissing() {
			attrs[col.Name()] = v.Str()
		}
	}
	return timeseries.NewWithAxis(r.values[i], r.axis,
		timeseries.WithAttrs(attrs), timeseries.WithName(attrs[VariableColumn]))
}

// SetRow writes the values of ts back into timeseries i. The unit column
// follows the series unit.
func (r *Run) SetRow(i int, ts *timeseries.TimeSeries) error {
	if err := validation.ValidateIndex(i, r.Len(), "SetRow"); err != nil {
		return err
	}
	if !ts.TimeAxis().Equal(r.axis) {
		return errors.NewValidationError("SetRow", "", "timeseries time axis differs from the run's")
	}
	copy(r.values[i], ts.Buffer())

	if j := r.columnIndex(UnitColumn); j >= 0 && r.meta[j].Value(i).Str() != ts.Unit() {
		vals := r.meta[j].Values()
		vals[i] = meta.String(ts.Unit())
		col, err := meta.NewColumn(UnitColumn, vals, r.mem)
		if err != nil {
			return err
		}
		r.meta[j] = col
	}
	return nil
}

// WithValues returns a run with r's metadata and axis holding values
func (r *Run) WithValues(values [][]float64) (*Run, error) {
	return newRun(slices.Clone(r.meta), values, r.axis, r.settings)
}

// Copy returns a run with independent values. Metadata columns are shared.
func (r *Run) Copy() *Run {
	return r.derive(slices.Clone(r.meta), r.Values(), r.axis)
}

// SetMeta sets a metadata column from one value (broadcast) or one value per
// timeseries, replacing an existing column of the same name.
func (r *Run) SetMeta(name string, values ...any) error {
	n := r.Len()
	if len(values) != 1 && len(values) != n {
		return errors.NewValidationError("SetMeta", name, fmt.Sprintf(
			"expected 1 or %d values, got %d", n, len(values)))
	}
	vals := make([]meta.Value, n)
	for i := range vals {
		raw := values[0]
		if len(values) == n {
			raw = values[i]
		}
		v, err := meta.ParseValue(raw)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	col, err := meta.NewColumn(name, vals, r.mem)
	if err != nil {
		return err
	}
	if j := r.columnIndex(name); j >= 0 {
		r.meta[j] = col
	} else {
		r.meta = append(r.meta, col)
	}
	return nil
}

// DropMeta returns a run without the named metadata columns
func (r *Run) DropMeta(names ...string) (*Run, error) {
	if err := validation.ValidateColumns(r, "DropMeta", names...); err != nil {
		return nil, err
	}
	cols := make([]*meta.Column, 0, len(r.meta))
	for _, col := range r.meta {
		if !slices.Contains(names, col.Name()) {
			cols = append(cols, col)
		}
	}
	return r.derive(cols, r.Values(), r.axis), nil
}

// take selects timeseries and time points by position
func (r *Run) take(rows, times []int) (*Run, error) {
	cols := make([]*meta.Column, len(r.meta))
	for j, col := range r.meta {
		c, err := col.Take(rows, r.mem)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}

	axis := r.axis
	if len(times) != r.axis.Len() {
		ts := make([]time.Time, len(times))
		for k, t := range times {
			ts[k] = r.axis.At(t)
		}
		var err error
		if axis, err = timeaxis.New(timeaxis.Times(ts...)); err != nil {
			return nil, err
		}
	}

	values := make([][]float64, len(rows))
	for k, i := range rows {
		row := make([]float64, len(times))
		for m, t := range times {
			row[m] = r.values[i][t]
		}
		values[k] = row
	}
	return r.derive(cols, values, axis), nil
}

// MetaRecord exports the metadata as an Arrow record of dictionary columns.
// The caller must Release the result.
func (r *Run) MetaRecord() arrow.Record {
	fields := make([]arrow.Field, len(r.meta))
	arrs := make([]arrow.Array, len(r.meta))
	for j, col := range r.meta {
		fields[j] = arrow.Field{Name: col.Name(), Type: col.Array().DataType(), Nullable: true}
		arrs[j] = col.Array()
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), arrs, int64(r.Len()))
}

func (r *Run) record(op string, parallel bool, fn func() error) error {
	return monitoring.Record(r.metrics, op, r.Len(), parallel, fn)
}

func (r *Run) debug(msg string, args ...any) {
	if r.cfg.VerboseLogging {
		r.logger.Debug(msg, args...)
	}
}

func (r *Run) String() string {
	return fmt.Sprintf("<Run timeseries=%d times=%d meta=[%s]>",
		r.Len(), r.axis.Len(), strings.Join(r.MetaColumns(), ", "))
}
