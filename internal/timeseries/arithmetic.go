package timeseries

import (
	"fmt"

	"github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/units"
)

// Operand is the right-hand side of series arithmetic: a Scalar (or plain
// float64/int), a units.Quantity or another *TimeSeries on the same axis
type Operand any

// Scalar is a dimensionless number applied in the series' own unit
type Scalar float64

type opKind int

const (
	opAdd opKind = iota
	opSub
	opMul
	opDiv
)

func (k opKind) String() string {
	return [...]string{"Add", "Sub", "Mul", "Div"}[k]
}

func (k opKind) apply(a, b float64) float64 {
	switch k {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	default:
		return a / b
	}
}

// Add returns s + other
func (s *TimeSeries) Add(other Operand) (*TimeSeries, error) { return s.binary(opAdd, other) }

// Sub returns s - other
func (s *TimeSeries) Sub(other Operand) (*TimeSeries, error) { return s.binary(opSub, other) }

// Mul returns s * other
func (s *TimeSeries) Mul(other Operand) (*TimeSeries, error) { return s.binary(opMul, other) }

// Div returns s / other
func (s *TimeSeries) Div(other Operand) (*TimeSeries, error) { return s.binary(opDiv, other) }

// AddInPlace adds other to s. On error s is unchanged.
func (s *TimeSeries) AddInPlace(other Operand) error { return s.inPlace(opAdd, other) }

// SubInPlace subtracts other from s. On error s is unchanged.
func (s *TimeSeries) SubInPlace(other Operand) error { return s.inPlace(opSub, other) }

// MulInPlace multiplies s by other. On error s is unchanged.
func (s *TimeSeries) MulInPlace(other Operand) error { return s.inPlace(opMul, other) }

// DivInPlace divides s by other. On error s is unchanged.
func (s *TimeSeries) DivInPlace(other Operand) error { return s.inPlace(opDiv, other) }

func (s *TimeSeries) binary(op opKind, other Operand) (*TimeSeries, error) {
	values, unit, err := s.compute(op, other)
	if err != nil {
		return nil, err
	}
	out := s.Copy()
	out.values = values
	if unit != s.Unit() {
		out.setUnit(unit)
	}
	return out, nil
}

func (s *TimeSeries) inPlace(op opKind, other Operand) error {
	values, unit, err := s.compute(op, other)
	if err != nil {
		return err
	}
	copy(s.values, values)
	if unit != s.Unit() {
		s.setUnit(unit)
	}
	return nil
}

func (s *TimeSeries) setUnit(unit string) {
	if unit == "" {
		delete(s.attrs, UnitAttr)
		return
	}
	s.attrs[UnitAttr] = unit
}

// compute evaluates s op other into a fresh buffer and returns the unit of
// the result
func (s *TimeSeries) compute(op opKind, other Operand) ([]float64, string, error) {
	var (
		rhs      []float64
		scalar   float64
		isScalar bool
		rhsUnit  string
		hasUnit  bool
	)

	switch o := other.(type) {
	case Scalar:
		scalar, isScalar = float64(o), true
	case float64:
		scalar, isScalar = o, true
	case int:
		scalar, isScalar = float64(o), true
	case units.Quantity:
		scalar, isScalar = o.Magnitude, true
		rhsUnit, hasUnit = o.Unit, true
	case *TimeSeries:
		if o == nil {
			return nil, "", errors.NewTypeError(op.String(), "nil series operand")
		}
		if !s.axis.Equal(o.axis) {
			return nil, "", errors.NewValidationError(op.String(), "", "series operands must share the same time axis")
		}
		rhs = o.values
		rhsUnit, hasUnit = o.Unit(), true
	default:
		return nil, "", errors.NewUnsupportedTypeError(op.String(), fmt.Sprintf("%T", other))
	}

	unit := s.Unit()
	factor := 1.0
	if hasUnit {
		switch op {
		case opAdd, opSub:
			if rhsUnit != unit {
				f, err := s.units().ConversionFactor(unit, rhsUnit)
				if err != nil {
					return nil, "", err
				}
				// f converts s into rhs units, so rhs needs 1/f to be in s units
				factor = 1 / f
			}
		case opMul:
			unit = units.Product(unit, rhsUnit)
		case opDiv:
			unit = units.Quotient(unit, rhsUnit)
		}
	}

	out := make([]float64, len(s.values))
	for i, v := range s.values {
		b := scalar
		if !isScalar {
			b = rhs[i]
		}
		out[i] = op.apply(v, b*factor)
	}
	return out, unit, nil
}
