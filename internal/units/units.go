// Package units converts between physical units of climate quantities.
//
// A Registry holds multiplicative unit definitions over a small set of base
// dimensions, including the emission species (carbon, methane, nitrous
// oxide) needed for emissions bookkeeping: "GtC / yr" and "MtCO2 / yr" are
// both carbon mass fluxes and convert into each other. Offset units such as
// degC are not supported; use K or delta_degC.
package units

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/paveg/scmframe/internal/errors"
)

// Dimension is a base dimension
type Dimension int

const (
	Mass Dimension = iota
	Length
	Time
	Temperature
	Carbon
	Methane
	NitrousOxide
	numDimensions
)

var dimensionNames = [numDimensions]string{
	Mass:         "mass",
	Length:       "length",
	Time:         "time",
	Temperature:  "temperature",
	Carbon:       "carbon",
	Methane:      "methane",
	NitrousOxide: "nitrous_oxide",
}

// Dimensions holds the exponent of each base dimension
type Dimensions [numDimensions]int8

// Dimensionless reports whether all exponents are zero
func (d Dimensions) Dimensionless() bool {
	return d == (Dimensions{})
}

// String formats d like "[carbon] * [mass] / [time] ** 2"
func (d Dimensions) String() string {
	if d.Dimensionless() {
		return "dimensionless"
	}
	order := make([]Dimension, 0, numDimensions)
	for i := Dimension(0); i < numDimensions; i++ {
		order = append(order, i)
	}
	sort.Slice(order, func(i, j int) bool { return dimensionNames[order[i]] < dimensionNames[order[j]] })

	var num, den []string
	for _, dim := range order {
		exp := d[dim]
		term := "[" + dimensionNames[dim] + "]"
		switch {
		case exp == 1 || exp == -1:
		case exp > 1:
			term = fmt.Sprintf("%s ** %d", term, exp)
		case exp < -1:
			term = fmt.Sprintf("%s ** %d", term, -exp)
		}
		if exp > 0 {
			num = append(num, term)
		} else if exp < 0 {
			den = append(den, term)
		}
	}
	out := strings.Join(num, " * ")
	if out == "" {
		out = "1"
	}
	for _, term := range den {
		out += " / " + term
	}
	return out
}

// Unit is a scale factor relative to the base units of its dimensions
type Unit struct {
	Scale float64
	Dims  Dimensions
}

func (u Unit) mul(o Unit) Unit {
	r := Unit{Scale: u.Scale * o.Scale}
	for i := range r.Dims {
		r.Dims[i] = u.Dims[i] + o.Dims[i]
	}
	return r
}

func (u Unit) pow(n int) Unit {
	r := Unit{Scale: math.Pow(u.Scale, float64(n))}
	for i := range r.Dims {
		r.Dims[i] = u.Dims[i] * int8(n)
	}
	return r
}

func base(dim Dimension, scale float64) Unit {
	u := Unit{Scale: scale}
	u.Dims[dim] = 1
	return u
}

// Quantity is a magnitude tagged with a unit expression
type Quantity struct {
	Magnitude float64
	Unit      string
}

// Q is shorthand for Quantity{Magnitude: m, Unit: unit}
func Q(m float64, unit string) Quantity {
	return Quantity{Magnitude: m, Unit: unit}
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Magnitude, displayUnit(q.Unit))
}

func displayUnit(expr string) string {
	if strings.TrimSpace(expr) == "" {
		return "dimensionless"
	}
	return expr
}

// DimensionalityError reports a conversion between incompatible units
type DimensionalityError struct {
	From     string
	To       string
	FromDims Dimensions
	ToDims   Dimensions
}

func (e *DimensionalityError) Error() string {
	return fmt.Sprintf("Cannot convert from '%s' (%s) to '%s' (%s)",
		displayUnit(e.From), e.FromDims, displayUnit(e.To), e.ToDims)
}

// Unwrap exposes the error as a dimensionality-kind error
func (e *DimensionalityError) Unwrap() error {
	return errors.NewDimensionalityError("Convert", fmt.Sprintf("%s to %s", displayUnit(e.From), displayUnit(e.To)), nil)
}

// Converter resolves unit expressions and conversion factors
type Converter interface {
	Parse(expr string) (Unit, error)
	ConversionFactor(from, to string) (float64, error)
}

// Registry is a Converter backed by named unit definitions
type Registry struct {
	mu      sync.RWMutex
	units   map[string]Unit
	species []string
}

var prefixes = []struct {
	symbol string
	factor float64
}{
	{"da", 1e1},
	{"Y", 1e24}, {"Z", 1e21}, {"E", 1e18}, {"P", 1e15}, {"T", 1e12},
	{"G", 1e9}, {"M", 1e6}, {"k", 1e3}, {"h", 1e2},
	{"d", 1e-1}, {"c", 1e-2}, {"m", 1e-3}, {"u", 1e-6}, {"µ", 1e-6},
	{"n", 1e-9}, {"p", 1e-12}, {"f", 1e-15},
}

// NewRegistry returns a registry with the SI and climate units predefined
func NewRegistry() *Registry {
	r := &Registry{units: make(map[string]Unit)}

	kg := base(Mass, 1)
	m := base(Length, 1)
	s := base(Time, 1)

	r.units["g"] = base(Mass, 1e-3)
	r.units["t"] = base(Mass, 1e3)
	r.units["tonne"] = base(Mass, 1e3)
	r.units["m"] = m
	r.units["s"] = s
	r.units["min"] = base(Time, 60)
	r.units["h"] = base(Time, 3600)
	r.units["hr"] = base(Time, 3600)
	r.units["day"] = base(Time, 86400)
	year := base(Time, 365.25*86400)
	r.units["yr"] = year
	r.units["year"] = year
	r.units["a"] = year
	r.units["K"] = base(Temperature, 1)
	r.units["delta_degC"] = base(Temperature, 1)
	r.units["N"] = kg.mul(m).mul(s.pow(-2))
	r.units["J"] = kg.mul(m.pow(2)).mul(s.pow(-2))
	r.units["W"] = kg.mul(m.pow(2)).mul(s.pow(-3))
	r.units["Pa"] = kg.mul(m.pow(-1)).mul(s.pow(-2))

	r.units["dimensionless"] = Unit{Scale: 1}
	r.units["percent"] = Unit{Scale: 1e-2}
	r.units["%"] = Unit{Scale: 1e-2}
	r.units["ppm"] = Unit{Scale: 1e-6}
	r.units["ppb"] = Unit{Scale: 1e-9}
	r.units["ppt"] = Unit{Scale: 1e-12}

	r.units["C"] = base(Carbon, 1)
	r.units["CO2"] = base(Carbon, 12.0/44.0)
	r.units["CH4"] = base(Methane, 1)
	r.units["N2O"] = base(NitrousOxide, 1)
	r.species = []string{"CO2", "CH4", "N2O", "C"}

	return r
}

// DefineUnit registers name as u
func (r *Registry) DefineUnit(name string, u Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[name] = u
}

// Define registers name as the unit expression expr, e.g. Define("Mt", "1e6 t")
func (r *Registry) Define(name, expr string) error {
	u, err := r.Parse(expr)
	if err != nil {
		return err
	}
	r.DefineUnit(name, u)
	return nil
}

// lookup resolves a single unit symbol: exact names, then SI prefixes, then
// a mass unit followed by an emission species ("GtCO2")
func (r *Registry) lookup(name string) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name, true)
}

func (r *Registry) lookupLocked(name string, allowSpecies bool) (Unit, bool) {
	if u, ok := r.units[name]; ok {
		return u, true
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(name, p.symbol); ok && rest != "" {
			if u, ok := r.units[rest]; ok {
				u.Scale *= p.factor
				return u, true
			}
		}
	}
	if allowSpecies {
		for _, sp := range r.species {
			if rest, ok := strings.CutSuffix(name, sp); ok && rest != "" {
				mass, ok := r.lookupLocked(rest, false)
				if ok {
					return mass.mul(r.units[sp]), true
				}
			}
		}
	}
	return Unit{}, false
}

// Parse resolves a unit expression such as "GtC / yr" or "W/m^2". The empty
// expression is dimensionless.
func (r *Registry) Parse(expr string) (Unit, error) {
	if strings.TrimSpace(expr) == "" {
		return Unit{Scale: 1}, nil
	}
	p := &parser{expr: expr, lookup: r.lookup}
	return p.parse()
}

// ConversionFactor returns f such that a value in from times f is in to
func (r *Registry) ConversionFactor(from, to string) (float64, error) {
	fu, err := r.Parse(from)
	if err != nil {
		return 0, err
	}
	tu, err := r.Parse(to)
	if err != nil {
		return 0, err
	}
	if fu.Dims != tu.Dims {
		return 0, &DimensionalityError{From: from, To: to, FromDims: fu.Dims, ToDims: tu.Dims}
	}
	return fu.Scale / tu.Scale, nil
}

// Convert expresses q in unit to using c
func Convert(c Converter, q Quantity, to string) (Quantity, error) {
	f, err := c.ConversionFactor(q.Unit, to)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: q.Magnitude * f, Unit: to}, nil
}

// Product returns the unit expression a * b
func Product(a, b string) string {
	return combine(a, "*", b)
}

// Quotient returns the unit expression a / b
func Quotient(a, b string) string {
	return combine(a, "/", b)
}

func combine(a, op, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case b == "":
		return a
	case a == "" && op == "*":
		return b
	case a == "":
		return "1 / " + group(b)
	}
	return group(a) + " " + op + " " + group(b)
}

func group(expr string) string {
	if strings.ContainsAny(expr, "*/ ") {
		return "(" + expr + ")"
	}
	return expr
}
