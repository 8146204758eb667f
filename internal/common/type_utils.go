// Package common holds small helpers for coercing loosely typed filter and
// metadata inputs.
package common

import (
	"fmt"
	"math"
)

// ToInt64 converts an integer-typed value to int64. Floats, strings and
// bools are rejected so that `year=2010.0` is not silently accepted.
func ToInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("uint value %d overflows int64 range", v)
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64 range", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

// ToFloat64 converts any numeric value to float64.
func ToFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	}
	i, err := ToInt64(value)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
	return float64(i), nil
}

// IsNumericType checks if a value is of a numeric type.
func IsNumericType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// IsIntegerType checks if a value is of an integer type.
func IsIntegerType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// GetTypeName returns the type name of a value.
func GetTypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
