// Package measure derives circumferences from high-precision π expansions.
//
// All arithmetic is exact rational arithmetic. Values are rounded once, when
// they are formatted for display.
package measure

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// DisplayPlaces is the number of fractional digits shown for results.
const DisplayPlaces = 2

// ErrInvalidRadius indicates a radius is missing, malformed, or not positive.
var ErrInvalidRadius = errors.New("radius must be a positive decimal number")

// ErrMalformedPiValue indicates a π expansion contains anything but digits and
// a single decimal point.
var ErrMalformedPiValue = errors.New("pi value must contain only digits and a decimal point")

// ErrInvalidUnit indicates an unknown unit name.
var ErrInvalidUnit = errors.New("unit must be km or miles")

// Unit identifies a length unit.
type Unit int

const (
	UnitUnspecified Unit = iota
	UnitKilometers
	UnitMiles
)

// milesPerKilometer is the exact conversion factor 0.621371.
var milesPerKilometer = big.NewRat(621371, 1000000)

func (u Unit) String() string {
	switch u {
	case UnitKilometers:
		return "kilometers"
	case UnitMiles:
		return "miles"
	default:
		return "unspecified"
	}
}

// Symbol returns the short label used on the wire, "km" or "miles".
func (u Unit) Symbol() string {
	switch u {
	case UnitKilometers:
		return "km"
	case UnitMiles:
		return "miles"
	default:
		return ""
	}
}

// ParseUnit maps a unit label to a Unit. Empty input selects kilometers.
func ParseUnit(label string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "km", "kilometer", "kilometers":
		return UnitKilometers, nil
	case "mi", "mile", "miles":
		return UnitMiles, nil
	default:
		return UnitUnspecified, fmt.Errorf("%w: %q", ErrInvalidUnit, label)
	}
}

// Quantity is an exact length in a unit.
type Quantity struct {
	value *big.Rat
	unit  Unit
}

// Unit returns the quantity's unit.
func (q Quantity) Unit() Unit {
	return q.unit
}

// Rat returns a copy of the exact value.
func (q Quantity) Rat() *big.Rat {
	if q.value == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(q.value)
}

// Convert expresses q in unit without rounding.
func (q Quantity) Convert(unit Unit) (Quantity, error) {
	if unit != UnitKilometers && unit != UnitMiles {
		return Quantity{}, fmt.Errorf("%w: %s", ErrInvalidUnit, unit)
	}
	if q.unit == unit {
		return q, nil
	}
	value := q.Rat()
	switch {
	case q.unit == UnitKilometers && unit == UnitMiles:
		value.Mul(value, milesPerKilometer)
	case q.unit == UnitMiles && unit == UnitKilometers:
		value.Quo(value, milesPerKilometer)
	default:
		return Quantity{}, fmt.Errorf("%w: cannot convert from %s", ErrInvalidUnit, q.unit)
	}
	return Quantity{value: value, unit: unit}, nil
}

// Cmp compares two quantities expressed in the same unit.
func (q Quantity) Cmp(other Quantity) (int, error) {
	if q.unit != other.unit {
		return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrInvalidUnit, q.unit, other.unit)
	}
	return q.Rat().Cmp(other.Rat()), nil
}

// Format renders q with places fractional digits, rounding half away from zero.
func (q Quantity) Format(places int) string {
	return formatRat(q.Rat(), places)
}

// String renders q to DisplayPlaces with its unit symbol.
func (q Quantity) String() string {
	return q.Format(DisplayPlaces) + " " + q.unit.Symbol()
}

// Radius is a strictly positive length in kilometers.
type Radius struct {
	value *big.Rat
	text  string
}

// NewRadius parses a decimal kilometer count such as "695700" or "1.5".
func NewRadius(km string) (Radius, error) {
	text := strings.TrimSpace(km)
	value, err := parseDecimal(text)
	if err != nil {
		return Radius{}, fmt.Errorf("%w: %q", ErrInvalidRadius, km)
	}
	if value.Sign() <= 0 {
		return Radius{}, fmt.Errorf("%w: %q", ErrInvalidRadius, km)
	}
	return Radius{value: value, text: text}, nil
}

// MustRadius is NewRadius for compile-time constants; it panics on error.
func MustRadius(km string) Radius {
	r, err := NewRadius(km)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the radius as it was configured.
func (r Radius) String() string {
	return r.text
}

// Kilometers returns the radius as a quantity.
func (r Radius) Kilometers() Quantity {
	if r.value == nil {
		return Quantity{value: new(big.Rat), unit: UnitKilometers}
	}
	return Quantity{value: new(big.Rat).Set(r.value), unit: UnitKilometers}
}

// Valid reports whether r holds a positive length.
func (r Radius) Valid() bool {
	return r.value != nil && r.value.Sign() > 0
}

// Result is a circumference expressed in the requested unit.
type Result struct {
	Quantity Quantity
	// Display is Quantity rounded to DisplayPlaces.
	Display string
	// PiDigits is the number of fractional π digits used.
	PiDigits int
}

// Circumference computes 2·π·r in unit.
//
// pi is a decimal expansion such as "3.14159265". It is parsed into an exact
// rational, so every digit supplied takes part in the result.
func Circumference(pi string, r Radius, unit Unit) (Result, error) {
	if !r.Valid() {
		return Result{}, ErrInvalidRadius
	}
	piValue, err := parseDecimal(pi)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedPiValue, err)
	}

	value := new(big.Rat).Mul(piValue, r.value)
	value.Mul(value, big.NewRat(2, 1))
	km := Quantity{value: value, unit: UnitKilometers}

	converted, err := km.Convert(unit)
	if err != nil {
		return Result{}, err
	}
	_, fraction, _ := strings.Cut(pi, ".")
	return Result{
		Quantity: converted,
		Display:  converted.Format(DisplayPlaces),
		PiDigits: len(fraction),
	}, nil
}

// parseDecimal accepts "D" or "D.D" with ASCII digits only. big.Rat.SetString
// alone would also accept signs, exponents and fractions like "1/3".
func parseDecimal(text string) (*big.Rat, error) {
	integer, fraction, hasPoint := strings.Cut(text, ".")
	if !isDigits(integer) || (hasPoint && !isDigits(fraction)) {
		return nil, fmt.Errorf("not a decimal number: %q", text)
	}
	value, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, fmt.Errorf("not a decimal number: %q", text)
	}
	return value, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// formatRat rounds value half away from zero to places fractional digits.
func formatRat(value *big.Rat, places int) string {
	if places < 0 {
		places = 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	num := new(big.Int).Mul(value.Num(), scale)
	den := value.Denom()

	negative := num.Sign() < 0
	num.Abs(num)
	quotient, remainder := new(big.Int).QuoRem(num, den, new(big.Int))
	if remainder.Lsh(remainder, 1).Cmp(den) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}

	digits := quotient.String()
	if places > 0 {
		if len(digits) <= places {
			digits = strings.Repeat("0", places-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-places] + "." + digits[len(digits)-places:]
	}
	if negative && strings.Trim(digits, "0.") != "" {
		digits = "-" + digits
	}
	return digits
}
