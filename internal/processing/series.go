package processing

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/olekukonko/tablewriter"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
)

// Series is one value per index row, the index being metadata columns.
// Values are numbers, strings (categories and timestamps) or missing.
type Series struct {
	Name   string
	index  []*meta.Column
	values []meta.Value
}

func newSeries(name string, index []*meta.Column, values []meta.Value) *Series {
	return &Series{Name: name, index: index, values: values}
}

// Len returns the number of rows
func (s *Series) Len() int { return len(s.values) }

// IndexColumns returns the index column names
func (s *Series) IndexColumns() []string {
	out := make([]string, len(s.index))
	for j, col := range s.index {
		out[j] = col.Name()
	}
	return out
}

// Key returns the index values of row i
func (s *Series) Key(i int) map[string]meta.Value {
	out := make(map[string]meta.Value, len(s.index))
	for _, col := range s.index {
		out[col.Name()] = col.Value(i)
	}
	return out
}

// Value returns the value of row i
func (s *Series) Value(i int) meta.Value { return s.values[i] }

// Values returns every value
func (s *Series) Values() []meta.Value { return append([]meta.Value(nil), s.values...) }

// Lookup returns the value of the first row whose index matches key on
// every given column
func (s *Series) Lookup(key map[string]any) (meta.Value, bool) {
	want := make(map[int]meta.Value, len(key))
	for name, raw := range key {
		j := s.columnIndex(name)
		if j < 0 {
			return meta.Missing(), false
		}
		v, err := meta.ParseValue(raw)
		if err != nil {
			return meta.Missing(), false
		}
		want[j] = v
	}
	for i := range s.values {
		ok := true
		for j, v := range want {
			if !s.index[j].Value(i).Equal(v) {
				ok = false
				break
			}
		}
		if ok {
			return s.values[i], true
		}
	}
	return meta.Missing(), false
}

func (s *Series) columnIndex(name string) int {
	for j, col := range s.index {
		if col.Name() == name {
			return j
		}
	}
	return -1
}

// keyOf is a comparable key for the index values of row i over cols
func (s *Series) keyOf(i int, cols []int) string {
	var b strings.Builder
	for _, j := range cols {
		b.WriteString(s.index[j].Value(i).String())
		b.WriteByte(0)
	}
	return b.String()
}

// Record exports the series as an Arrow record: the index as dictionary
// columns and the values as a float64 column, or a string column when any
// value is a string. The caller must Release it.
func (s *Series) Record(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	numeric := true
	for _, v := range s.values {
		if v.Kind() == meta.KindString {
			numeric = false
			break
		}
	}

	var values arrow.Array
	if numeric {
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range s.values {
			f, ok := v.Float()
			if !ok {
				b.AppendNull()
				continue
			}
			b.Append(f)
		}
		values = b.NewFloat64Array()
	} else {
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range s.values {
			if v.IsMissing() {
				b.AppendNull()
				continue
			}
			b.Append(v.Str())
		}
		values = b.NewStringArray()
	}
	defer values.Release()

	name := s.Name
	if name == "" {
		name = "value"
	}
	if s.columnIndex(name) >= 0 {
		return nil, errors.NewValidationError("Record", name, "series name collides with an index column")
	}

	fields := make([]arrow.Field, 0, len(s.index)+1)
	cols := make([]arrow.Array, 0, len(s.index)+1)
	for _, col := range s.index {
		fields = append(fields, arrow.Field{Name: col.Name(), Type: col.Array().DataType(), Nullable: true})
		cols = append(cols, col.Array())
	}
	fields = append(fields, arrow.Field{Name: name, Type: values.DataType(), Nullable: true})
	cols = append(cols, values)

	return array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(s.Len())), nil
}

// WriteTable renders the series as a text table
func (s *Series) WriteTable(w io.Writer) {
	header := append(s.IndexColumns(), s.Name)
	rows := make([][]string, s.Len())
	for i := range rows {
		row := make([]string, 0, len(header))
		for _, col := range s.index {
			row = append(row, col.Value(i).Label(""))
		}
		rows[i] = append(row, formatValue(s.values[i]))
	}
	renderTable(w, header, rows)
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	for _, row := range rows {
		tw.Append(row)
	}
	tw.Render()
}

func formatValue(v meta.Value) string {
	if f, ok := v.Float(); ok && v.Kind() == meta.KindNumber {
		return strconv.FormatFloat(f, 'g', 6, 64)
	}
	return v.Label("NaN")
}

// formatThreshold prints a threshold the way the default output names
// expect: integral values keep one decimal ("2.0")
func formatThreshold(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func nameFrom(base string, x float64) string {
	return fmt.Sprintf(base, formatThreshold(x))
}
