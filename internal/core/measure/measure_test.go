package measure

import (
	"errors"
	"testing"
)

const (
	sunRadiusKM = "695700"
	pi50        = "3.14159265358979323846264338327950288419716939937510"
)

func TestCircumferenceKilometersAndMiles(t *testing.T) {
	radius := MustRadius(sunRadiusKM)

	tests := []struct {
		name string
		pi   string
		unit Unit
		want string
	}{
		{name: "eight digits km", pi: "3.14159265", unit: UnitKilometers, want: "4371212.01"},
		{name: "eight digits miles", pi: "3.14159265", unit: UnitMiles, want: "2716144.38"},
		{name: "ten digits km", pi: "3.1415926535", unit: UnitKilometers, want: "4371212.02"},
		{name: "integer pi", pi: "3", unit: UnitKilometers, want: "4174200.00"},
		{name: "integer pi miles", pi: "3", unit: UnitMiles, want: "2593726.83"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Circumference(tt.pi, radius, tt.unit)
			if err != nil {
				t.Fatalf("circumference: %v", err)
			}
			if result.Display != tt.want {
				t.Fatalf("Display = %q, want %q", result.Display, tt.want)
			}
			if result.Quantity.Unit() != tt.unit {
				t.Fatalf("unit = %s, want %s", result.Quantity.Unit(), tt.unit)
			}
		})
	}
}

func TestCircumferenceKeepsDigitsBeyondFloat64(t *testing.T) {
	// float64 keeps ~16 significant digits; this result has 32.
	radius := MustRadius("123456789012345678901234567890")

	km, err := Circumference(pi50, radius, UnitKilometers)
	if err != nil {
		t.Fatalf("circumference km: %v", err)
	}
	if km.Display != "775701882793940581068412555209.63" {
		t.Fatalf("km Display = %q", km.Display)
	}
	if km.PiDigits != 50 {
		t.Fatalf("PiDigits = %d, want 50", km.PiDigits)
	}

	miles, err := Circumference(pi50, radius, UnitMiles)
	if err != nil {
		t.Fatalf("circumference miles: %v", err)
	}
	if miles.Display != "481998654613553652799060577843.16" {
		t.Fatalf("miles Display = %q", miles.Display)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	for _, pi := range []string{"3", "3.14159265", pi50} {
		result, err := Circumference(pi, MustRadius(sunRadiusKM), UnitKilometers)
		if err != nil {
			t.Fatalf("circumference: %v", err)
		}
		miles, err := result.Quantity.Convert(UnitMiles)
		if err != nil {
			t.Fatalf("to miles: %v", err)
		}
		back, err := miles.Convert(UnitKilometers)
		if err != nil {
			t.Fatalf("to km: %v", err)
		}
		if got := back.Format(DisplayPlaces); got != result.Display {
			t.Fatalf("round trip = %q, want %q", got, result.Display)
		}
		if cmp, err := back.Cmp(result.Quantity); err != nil || cmp != 0 {
			t.Fatalf("round trip not exact: cmp=%d err=%v", cmp, err)
		}
	}
}

func TestCircumferenceMonotonicInRadius(t *testing.T) {
	radii := []string{"0.001", "1", "1.5", "695699.99", "695700", "695700.01", "1000000"}

	for _, unit := range []Unit{UnitKilometers, UnitMiles} {
		var previous *Quantity
		for _, r := range radii {
			result, err := Circumference("3.14159265", MustRadius(r), unit)
			if err != nil {
				t.Fatalf("circumference(%s): %v", r, err)
			}
			if previous != nil {
				cmp, err := previous.Cmp(result.Quantity)
				if err != nil {
					t.Fatalf("cmp: %v", err)
				}
				if cmp >= 0 {
					t.Fatalf("%s: circumference not increasing at radius %s", unit, r)
				}
			}
			q := result.Quantity
			previous = &q
		}
	}
}

func TestNewRadiusRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0", "0.000", "-5", "", "abc", "1e3", "1/3", "+4"} {
		if _, err := NewRadius(raw); !errors.Is(err, ErrInvalidRadius) {
			t.Fatalf("NewRadius(%q) error = %v, want ErrInvalidRadius", raw, err)
		}
	}
}

func TestCircumferenceRejectsZeroRadius(t *testing.T) {
	if _, err := Circumference("3.14", Radius{}, UnitKilometers); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("error = %v, want ErrInvalidRadius", err)
	}
}

func TestCircumferenceRejectsMalformedPi(t *testing.T) {
	radius := MustRadius(sunRadiusKM)
	for _, pi := range []string{"", "3.", ".14", "3,14", "3.14x", "-3.14", "3.1e5", "22/7", "NaN"} {
		if _, err := Circumference(pi, radius, UnitKilometers); !errors.Is(err, ErrMalformedPiValue) {
			t.Fatalf("Circumference(%q) error = %v, want ErrMalformedPiValue", pi, err)
		}
	}
}

func TestCircumferenceRejectsUnknownUnit(t *testing.T) {
	if _, err := Circumference("3.14", MustRadius("1"), UnitUnspecified); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("error = %v, want ErrInvalidUnit", err)
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		label string
		want  Unit
		err   bool
	}{
		{label: "", want: UnitKilometers},
		{label: "km", want: UnitKilometers},
		{label: "Kilometers", want: UnitKilometers},
		{label: "mi", want: UnitMiles},
		{label: " MILES ", want: UnitMiles},
		{label: "furlongs", err: true},
	}
	for _, tt := range tests {
		got, err := ParseUnit(tt.label)
		if tt.err {
			if !errors.Is(err, ErrInvalidUnit) {
				t.Fatalf("ParseUnit(%q) error = %v", tt.label, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseUnit(%q) = %v, %v; want %v", tt.label, got, err, tt.want)
		}
	}
}

func TestFormatRoundsHalfUpOnce(t *testing.T) {
	tests := []struct {
		radius string
		places int
		want   string
	}{
		{radius: "0.125", places: 2, want: "0.13"},
		{radius: "0.005", places: 2, want: "0.01"},
		{radius: "0.004999", places: 2, want: "0.00"},
		{radius: "12.5", places: 0, want: "13"},
		{radius: "7", places: 3, want: "7.000"},
	}
	for _, tt := range tests {
		q := MustRadius(tt.radius).Kilometers()
		if got := q.Format(tt.places); got != tt.want {
			t.Fatalf("Format(%s, %d) = %q, want %q", tt.radius, tt.places, got, tt.want)
		}
	}
}

func TestQuantityString(t *testing.T) {
	result, err := Circumference("3.14159265", MustRadius(sunRadiusKM), UnitMiles)
	if err != nil {
		t.Fatalf("circumference: %v", err)
	}
	if got := result.Quantity.String(); got != "2716144.38 miles" {
		t.Fatalf("String() = %q", got)
	}
}
