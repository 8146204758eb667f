// Package meta holds the categorical metadata columns of an ensemble.
//
// A Column is an Arrow dictionary array: int32 indices into a dictionary of
// distinct labels (strings or float64). Missing rows are null indices, so
// "no category" is never represented by a magic label.
package meta

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/scmframe/internal/errors"
)

// Column is an immutable categorical metadata column
type Column struct {
	name string
	kind ValueKind
	arr  *array.Dictionary
}

// NewColumn builds a column from per-row values. Labels must be all strings
// or all numbers (missing rows are allowed in either). Categories keep their
// order of first appearance.
func NewColumn(name string, values []Value, mem memory.Allocator) (*Column, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	kind := KindMissing
	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		if kind == KindMissing {
			kind = v.Kind()
			continue
		}
		if v.Kind() != kind {
			return nil, errors.NewConstructionError("NewColumn",
				fmt.Sprintf("column %q mixes %s and %s labels", name, kind, v.Kind()))
		}
	}
	if kind == KindMissing {
		kind = KindString
	}

	indices := array.NewInt32Builder(mem)
	defer indices.Release()

	var (
		dict       arrow.Array
		valueType  arrow.DataType
		categories = make(map[Value]int32)
	)

	switch kind {
	case KindNumber:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range values {
			if v.IsMissing() {
				indices.AppendNull()
				continue
			}
			code, ok := categories[v]
			if !ok {
				code = int32(len(categories))
				categories[v] = code
				b.Append(v.num)
			}
			indices.Append(code)
		}
		dict = b.NewFloat64Array()
		valueType = arrow.PrimitiveTypes.Float64
	default:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range values {
			if v.IsMissing() {
				indices.AppendNull()
				continue
			}
			code, ok := categories[v]
			if !ok {
				code = int32(len(categories))
				categories[v] = code
				b.Append(v.str)
			}
			indices.Append(code)
		}
		dict = b.NewStringArray()
		valueType = arrow.BinaryTypes.String
	}
	defer dict.Release()

	idx := indices.NewInt32Array()
	defer idx.Release()

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: valueType}
	return &Column{
		name: name,
		kind: kind,
		arr:  array.NewDictionaryArray(dt, idx, dict),
	}, nil
}

// NewStringColumn builds a string column without missing rows
func NewStringColumn(name string, labels []string, mem memory.Allocator) *Column {
	c, err := NewColumn(name, Strings(labels...), mem)
	if err != nil {
		// all values share one kind
		panic(err)
	}
	return c
}

// NewNumberColumn builds a numeric column; NaN rows are missing
func NewNumberColumn(name string, values []float64, mem memory.Allocator) *Column {
	c, err := NewColumn(name, Numbers(values...), mem)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Kind returns KindString or KindNumber
func (c *Column) Kind() ValueKind { return c.kind }

// Len returns the number of rows
func (c *Column) Len() int { return c.arr.Len() }

// HasMissing reports whether any row is missing
func (c *Column) HasMissing() bool { return c.arr.NullN() > 0 }

// NumCategories returns the number of distinct labels
func (c *Column) NumCategories() int { return c.arr.Dictionary().Len() }

// Category returns the j-th distinct label
func (c *Column) Category(j int) Value {
	switch d := c.arr.Dictionary().(type) {
	case *array.Float64:
		return Number(d.Value(j))
	case *array.String:
		return String(d.Value(j))
	default:
		return Missing()
	}
}

// Categories returns the distinct labels in dictionary order
func (c *Column) Categories() []Value {
	out := make([]Value, c.NumCategories())
	for j := range out {
		out[j] = c.Category(j)
	}
	return out
}

// Code returns the category index of row i, or -1 when missing
func (c *Column) Code(i int) int {
	if c.arr.IsNull(i) {
		return -1
	}
	return c.arr.GetValueIndex(i)
}

// Codes returns the category index of every row (-1 for missing)
func (c *Column) Codes() []int {
	out := make([]int, c.Len())
	for i := range out {
		out[i] = c.Code(i)
	}
	return out
}

// Value returns the label of row i
func (c *Column) Value(i int) Value {
	code := c.Code(i)
	if code < 0 {
		return Missing()
	}
	return c.Category(code)
}

// Values returns the label of every row
func (c *Column) Values() []Value {
	out := make([]Value, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Array returns the underlying dictionary array. It remains owned by the column.
func (c *Column) Array() *array.Dictionary { return c.arr }

// Rename returns the same data under a new name
func (c *Column) Rename(name string) *Column {
	c.arr.Retain()
	return &Column{name: name, kind: c.kind, arr: c.arr}
}

// Take returns the rows at the given positions, in order
func (c *Column) Take(rows []int, mem memory.Allocator) (*Column, error) {
	values := make([]Value, len(rows))
	for k, i := range rows {
		if i < 0 || i >= c.Len() {
			return nil, errors.ErrInvalidIndex
		}
		values[k] = c.Value(i)
	}
	return NewColumn(c.name, values, mem)
}

// Concat appends the rows of others to c
func (c *Column) Concat(mem memory.Allocator, others ...*Column) (*Column, error) {
	values := c.Values()
	for _, o := range others {
		values = append(values, o.Values()...)
	}
	return NewColumn(c.name, values, mem)
}

// Filled replaces missing rows by fill
func (c *Column) Filled(fill Value, mem memory.Allocator) (*Column, error) {
	values := c.Values()
	for i, v := range values {
		if v.IsMissing() {
			values[i] = fill
		}
	}
	return NewColumn(c.name, values, mem)
}

// Constant builds a column of n copies of v
func Constant(name string, v Value, n int, mem memory.Allocator) (*Column, error) {
	values := make([]Value, n)
	for i := range values {
		values[i] = v
	}
	return NewColumn(name, values, mem)
}

// Release frees the Arrow memory held by the column
func (c *Column) Release() {
	if c.arr != nil {
		c.arr.Release()
	}
}
