// Package errors provides standardized error types for scmframe operations.
// Every error carries the operation that failed and a Kind, so callers can
// tell construction problems from range, specification, type and
// dimensional failures with errors.Is against the Err* sentinels.
package errors

import (
	"fmt"
)

// Kind classifies an Error
type Kind int

const (
	KindUnknown Kind = iota
	KindConstruction
	KindDimensionality
	KindRange
	KindSpecification
	KindType
	KindValidation
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindConstruction:   "construction",
	KindDimensionality: "dimensionality",
	KindRange:          "range",
	KindSpecification:  "specification",
	KindType:           "type",
	KindValidation:     "validation",
	KindInternal:       "internal",
}

// String returns the lowercase kind name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Error represents standardized errors across all operations
type Error struct {
	Kind    Kind   // Error class
	Op      string // Operation name (e.g., "Filter", "Interpolate", "TimeAxis")
	Column  string // Metadata column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// A target carrying only a Kind (the Err* sentinels) matches any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Column == "" && t.Message == "" {
		return t.Kind == e.Kind
	}
	return e.Op == t.Op && e.Column == t.Column && e.Message == t.Message
}

// Sentinels for errors.Is checks by kind
var (
	ErrConstruction   = &Error{Kind: KindConstruction}
	ErrDimensionality = &Error{Kind: KindDimensionality}
	ErrRange          = &Error{Kind: KindRange}
	ErrSpecification  = &Error{Kind: KindSpecification}
	ErrType           = &Error{Kind: KindType}
	ErrValidation     = &Error{Kind: KindValidation}
)

// NewConstructionError creates an error for shape/type problems found while building a value
func NewConstructionError(op, message string) *Error {
	return &Error{Kind: KindConstruction, Op: op, Message: message}
}

// NewRangeError creates an error for values that fall outside an allowed range
func NewRangeError(op, message string) *Error {
	return &Error{Kind: KindRange, Op: op, Message: message}
}

// NewSpecificationError creates an error for malformed user specifications
// (level syntax, offset strings, decreasing string ranges)
func NewSpecificationError(op, message string) *Error {
	return &Error{Kind: KindSpecification, Op: op, Message: message}
}

// NewTypeError creates an error for a value of the wrong kind
func NewTypeError(op, message string) *Error {
	return &Error{Kind: KindType, Op: op, Message: message}
}

// NewDimensionalityError creates an error for incompatible physical units
func NewDimensionalityError(op, message string, cause error) *Error {
	return &Error{Kind: KindDimensionality, Op: op, Message: message, Cause: cause}
}

// NewColumnNotFoundError creates an error for operations on non-existent metadata columns
func NewColumnNotFoundError(op, column string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported input types
func NewUnsupportedTypeError(op, typeName string) *Error {
	return &Error{
		Kind:    KindType,
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyRun indicates operations that need at least one timeseries
	ErrEmptyRun = &Error{
		Kind:    KindValidation,
		Op:      "validation",
		Message: "operation not supported on empty run",
	}

	// ErrMismatchedLength indicates length mismatches in operations
	ErrMismatchedLength = &Error{
		Kind:    KindValidation,
		Op:      "validation",
		Message: "arrays must have the same length",
	}

	// ErrInvalidIndex indicates out-of-bounds index access
	ErrInvalidIndex = &Error{
		Kind:    KindValidation,
		Op:      "indexing",
		Message: "index out of bounds",
	}
)
