package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.Error
		expected string
	}{
		{
			name: "Error with column",
			err: &errors.Error{
				Op:      "Filter",
				Column:  "variable",
				Message: "column does not exist",
			},
			expected: "Filter operation failed on column 'variable': column does not exist",
		},
		{
			name: "Error without column",
			err: &errors.Error{
				Op:      "Interpolate",
				Message: "target outside source range",
			},
			expected: "Interpolate operation failed: target outside source range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("underlying error")
	err := &errors.Error{
		Op:      "Filter",
		Message: "evaluation failed",
		Cause:   cause,
	}

	assert.Equal(t, cause, err.Unwrap())
}

func TestError_Is(t *testing.T) {
	err1 := &errors.Error{Op: "Filter", Column: "region", Message: "column does not exist"}
	err2 := &errors.Error{Op: "Filter", Column: "region", Message: "column does not exist"}
	err3 := &errors.Error{Op: "GroupBy", Column: "region", Message: "column does not exist"}

	assert.True(t, err1.Is(err2))
	assert.False(t, err1.Is(err3))
	assert.False(t, err1.Is(stderrors.New("different error")))
}

func TestError_IsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"construction", errors.NewConstructionError("TimeAxis", "empty"), errors.ErrConstruction},
		{"range", errors.NewRangeError("Interpolate", "out of range"), errors.ErrRange},
		{"specification", errors.NewSpecificationError("ParseLevel", "bad suffix"), errors.ErrSpecification},
		{"type", errors.NewTypeError("YearsMatch", "ints only"), errors.ErrType},
		{"dimensionality", errors.NewDimensionalityError("Add", "K vs m", nil), errors.ErrDimensionality},
		{"validation", errors.NewColumnNotFoundError("Filter", "x"), errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}

	assert.NotErrorIs(t, errors.NewRangeError("x", "y"), errors.ErrType)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "range", errors.KindRange.String())
	assert.Equal(t, "unknown(99)", errors.Kind(99).String())
}

func TestNewColumnNotFoundError(t *testing.T) {
	err := errors.NewColumnNotFoundError("Filter", "missing_column")

	assert.Equal(t, "Filter", err.Op)
	assert.Equal(t, "missing_column", err.Column)
	assert.Equal(t, "column does not exist", err.Message)
	assert.Equal(t, "Filter operation failed on column 'missing_column': column does not exist", err.Error())
}

func TestNewUnsupportedTypeError(t *testing.T) {
	err := errors.NewUnsupportedTypeError("TimeAxis", "[]complex128")

	assert.Equal(t, "TimeAxis", err.Op)
	assert.Equal(t, "unsupported type: []complex128", err.Message)
	assert.Equal(t, errors.KindType, err.Kind)
}

func TestNewInternalError(t *testing.T) {
	cause := stderrors.New("allocation failed")
	err := errors.NewInternalError("GroupBy", cause)

	assert.Equal(t, "GroupBy", err.Op)
	assert.Equal(t, "internal error occurred", err.Message)
	assert.Equal(t, cause, err.Unwrap())
}

func TestPredefinedErrors(t *testing.T) {
	assert.Equal(t, "validation", errors.ErrEmptyRun.Op)
	assert.Equal(t, "operation not supported on empty run", errors.ErrEmptyRun.Message)

	assert.Equal(t, "validation", errors.ErrMismatchedLength.Op)
	assert.Equal(t, "indexing", errors.ErrInvalidIndex.Op)
}
