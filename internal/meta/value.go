package meta

import (
	"math"
	"strconv"
	"strings"

	"github.com/paveg/scmframe/internal/common"
	"github.com/paveg/scmframe/internal/errors"
)

// ValueKind identifies the kind of a metadata Value
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindString
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a metadata label or match specification: a string, a number or
// missing. The zero value is missing.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// String returns a string value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value. NaN is missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{kind: KindNumber, num: f}
}

// Missing returns the missing value
func Missing() Value { return Value{} }

// Strings converts labels to string values
func Strings(labels ...string) []Value {
	out := make([]Value, len(labels))
	for i, l := range labels {
		out[i] = String(l)
	}
	return out
}

// Numbers converts floats to number values; NaN becomes missing
func Numbers(fs ...float64) []Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Number(f)
	}
	return out
}

// Kind returns the value kind
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether v is missing
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Str returns the string content; numbers are formatted, missing is ""
func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric content. Strings are parsed; anything that is
// not a number reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal compares kind and content. Missing equals missing.
func (v Value) Equal(o Value) bool {
	return v == o
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return v.Str()
	default:
		return "<missing>"
	}
}

// Label formats v for display; missing shows as fill
func (v Value) Label(fill string) string {
	if v.IsMissing() {
		return fill
	}
	return v.Str()
}

// ParseValue converts a raw input such as a string, int or float to a Value.
// nil is missing.
func ParseValue(raw any) (Value, error) {
	switch r := raw.(type) {
	case nil:
		return Missing(), nil
	case Value:
		return r, nil
	case string:
		return String(r), nil
	default:
		if common.IsNumericType(raw) {
			f, err := common.ToFloat64(raw)
			if err == nil {
				return Number(f), nil
			}
		}
		return Missing(), errors.NewUnsupportedTypeError("ParseValue", common.GetTypeName(raw))
	}
}
