// Package validation provides reusable input validators for run and
// timeseries operations: metadata column existence, length consistency,
// index bounds and non-empty runs.
package validation

import (
	"fmt"

	"github.com/paveg/scmframe/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider is implemented by containers with named metadata columns
type ColumnProvider interface {
	HasColumn(name string) bool
	Len() int
}

// ColumnValidator validates metadata column existence
type ColumnValidator struct {
	run     ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(run ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		run:     run,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.run.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewValidationError(v.op, "", message)
	}
	return nil
}

// IndexValidator validates index bounds
type IndexValidator struct {
	index int
	max   int
	op    string
}

// NewIndexValidator creates a validator for index operations
func NewIndexValidator(index, maxIndex int, op string) *IndexValidator {
	return &IndexValidator{
		index: index,
		max:   maxIndex,
		op:    op,
	}
}

// Validate checks if index is within bounds
func (v *IndexValidator) Validate() error {
	if v.index < 0 || v.index >= v.max {
		message := fmt.Sprintf("index %d out of bounds [0, %d)", v.index, v.max)
		return errors.NewValidationError(v.op, "", message)
	}
	return nil
}

// EmptyRunValidator rejects runs without timeseries
type EmptyRunValidator struct {
	run ColumnProvider
	op  string
}

// NewEmptyRunValidator creates a validator for empty run checks
func NewEmptyRunValidator(run ColumnProvider, op string) *EmptyRunValidator {
	return &EmptyRunValidator{
		run: run,
		op:  op,
	}
}

// Validate checks if the run is empty when the operation requires data
func (v *EmptyRunValidator) Validate() error {
	if v.run.Len() == 0 {
		return &errors.Error{
			Kind:    errors.KindValidation,
			Op:      v.op,
			Message: "operation not supported on empty run",
		}
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumns is a convenience function for column validation
func ValidateColumns(run ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(run, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateIndex is a convenience function for index validation
func ValidateIndex(index, maxIndex int, op string) error {
	return NewIndexValidator(index, maxIndex, op).Validate()
}

// ValidateNotEmpty is a convenience function for empty run validation
func ValidateNotEmpty(run ColumnProvider, op string) error {
	return NewEmptyRunValidator(run, op).Validate()
}
