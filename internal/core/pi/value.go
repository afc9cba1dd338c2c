// Package pi produces π as exact decimal digit strings.
//
// Digits are computed on arbitrary-precision integers and are never derived
// from a floating-point constant. A Value always carries exactly the number of
// fractional digits that was requested: the expansion is truncated, not
// rounded, so a higher-precision Value never disagrees with a lower-precision
// one on their shared leading digits.
package pi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPrecision indicates a requested precision is negative or not a number.
var ErrInvalidPrecision = errors.New("precision must be a non-negative integer")

// ErrPrecisionUnavailable indicates a requested precision exceeds what the
// provider can produce.
var ErrPrecisionUnavailable = errors.New("precision is not available")

// ErrMalformedValue indicates a digit string is not a decimal number.
var ErrMalformedValue = errors.New("malformed pi value")

// Value is an immutable decimal expansion of π.
type Value struct {
	text   string
	digits int
}

// Parse validates text as a decimal expansion and returns it as a Value.
// The integer part must be "3" and the fractional part, when present, must be
// made only of ASCII digits.
func Parse(text string) (Value, error) {
	if err := Validate(text); err != nil {
		return Value{}, err
	}
	integer, fraction, _ := strings.Cut(text, ".")
	if integer != "3" {
		return Value{}, fmt.Errorf("%w: integer part %q", ErrMalformedValue, integer)
	}
	return Value{text: text, digits: len(fraction)}, nil
}

// Validate reports whether text is an unsigned decimal number of the form
// "D" or "D.D" where D is one or more ASCII digits.
func Validate(text string) error {
	integer, fraction, hasPoint := strings.Cut(text, ".")
	if !allDigits(integer) {
		return fmt.Errorf("%w: %q", ErrMalformedValue, text)
	}
	if hasPoint && !allDigits(fraction) {
		return fmt.Errorf("%w: %q", ErrMalformedValue, text)
	}
	return nil
}

func allDigits(s string) bool {
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

// String returns the expansion, e.g. "3.1415926535". A zero-digit Value is "3".
func (v Value) String() string {
	return v.text
}

// Digits returns the number of fractional digits.
func (v Value) Digits() int {
	return v.digits
}

// IsZero reports whether v is the zero Value.
func (v Value) IsZero() bool {
	return v.text == ""
}

// Integer returns the integer part.
func (v Value) Integer() string {
	integer, _, _ := strings.Cut(v.text, ".")
	return integer
}

// Fraction returns the fractional digits without the decimal point.
func (v Value) Fraction() string {
	_, fraction, _ := strings.Cut(v.text, ".")
	return fraction
}

// Truncate returns the first digits fractional digits of v.
func (v Value) Truncate(digits int) (Value, error) {
	if digits < 0 {
		return Value{}, ErrInvalidPrecision
	}
	if digits > v.digits {
		return Value{}, fmt.Errorf("%w: have %d digits, want %d", ErrPrecisionUnavailable, v.digits, digits)
	}
	if digits == v.digits {
		return v, nil
	}
	if digits == 0 {
		return Value{text: v.Integer(), digits: 0}, nil
	}
	// "3." prefix plus the requested digits.
	return Value{text: v.text[:len(v.Integer())+1+digits], digits: digits}, nil
}

// ParsePrecision converts a raw request parameter into a digit count.
// An empty parameter yields fallback. Anything else must be a base-10
// non-negative integer; nothing is clamped.
func ParsePrecision(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if fallback < 0 {
			return 0, ErrInvalidPrecision
		}
		return fallback, nil
	}
	digits, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrecision, raw)
	}
	if digits < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPrecision, digits)
	}
	return digits, nil
}

// MatchingDigits counts the leading fractional digits a and b agree on.
// It returns -1 when the integer parts differ.
func MatchingDigits(a, b Value) int {
	if a.Integer() != b.Integer() {
		return -1
	}
	fa, fb := a.Fraction(), b.Fraction()
	n := min(len(fa), len(fb))
	for i := 0; i < n; i++ {
		if fa[i] != fb[i] {
			return i
		}
	}
	return n
}
