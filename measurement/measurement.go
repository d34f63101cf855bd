package measurement

import (
	"fmt"
	"math"
	"strings"
)

// Unit is the unit governing every value of a measurement Set.
type Unit string

const (
	Centimeter Unit = "cm"
	Inch       Unit = "inch"
)

// Name is one of the fixed body measurements.
type Name string

const (
	Shoulder Name = "Shoulder"
	Chest    Name = "Chest"
	Waist    Name = "Waist"
	Hips     Name = "Hips"
	Inseam   Name = "Inseam"
	Sleeve   Name = "Sleeve"
)

const cmPerInch = 2.54

// Names lists the measurement set in display order.
var Names = []Name{Shoulder, Chest, Waist, Hips, Inseam, Sleeve}

// Set maps each body measurement to its value in a single unit.
type Set map[Name]float64

// Range is the slider range used for entry in a given unit.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var ranges = map[Unit]Range{
	Centimeter: {Min: 20, Max: 200},
	Inch:       {Min: 8, Max: 80},
}

// DefaultSet is the starting point shown to customers who have not saved measurements yet.
func DefaultSet() Set {
	return Set{Shoulder: 45, Chest: 98, Waist: 82, Hips: 104, Inseam: 78, Sleeve: 62}
}

// ParseUnit accepts "cm", "inch" and the short "in" form.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cm":
		return Centimeter, nil
	case "inch", "in":
		return Inch, nil
	default:
		return "", fmt.Errorf("unknown measurement unit %q", s)
	}
}

// ParseName matches a measurement name case-insensitively.
func ParseName(s string) (Name, bool) {
	for _, n := range Names {
		if strings.EqualFold(string(n), s) {
			return n, true
		}
	}
	return "", false
}

// EntryRange returns the entry range for unit.
func EntryRange(u Unit) (Range, error) {
	r, ok := ranges[u]
	if !ok {
		return Range{}, fmt.Errorf("unknown measurement unit %q", u)
	}
	return r, nil
}

// Convert rescales every value of set from one unit to another and rounds to one decimal.
// Converting to the same unit returns set untouched so that repeated no-op calls never drift.
func Convert(set Set, from, to Unit) (Set, error) {
	if from == to {
		return set, nil
	}

	var factor float64
	switch {
	case from == Centimeter && to == Inch:
		factor = 1 / cmPerInch
	case from == Inch && to == Centimeter:
		factor = cmPerInch
	default:
		return nil, fmt.Errorf("cannot convert from %q to %q", from, to)
	}

	converted := make(Set, len(set))
	for name, value := range set {
		converted[name] = Round1(value * factor)
	}
	return converted, nil
}

// Complete reports whether every measurement is present and positive.
func (s Set) Complete() bool {
	for _, n := range Names {
		if v, ok := s[n]; !ok || v <= 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
