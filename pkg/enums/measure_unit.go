package enums

import "fmt"

// MeasureUnit is the unit a product's stock is counted in.
type MeasureUnit string

const (
	MeasureUnitKilogram MeasureUnit = "KG"
	MeasureUnitLiter    MeasureUnit = "L"
	MeasureUnitPiece    MeasureUnit = "U"
)

var validMeasureUnits = []MeasureUnit{
	MeasureUnitKilogram,
	MeasureUnitLiter,
	MeasureUnitPiece,
}

// String implements fmt.Stringer.
func (u MeasureUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known MeasureUnit.
func (u MeasureUnit) IsValid() bool {
	for _, candidate := range validMeasureUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseMeasureUnit converts raw input into a MeasureUnit.
func ParseMeasureUnit(value string) (MeasureUnit, error) {
	for _, candidate := range validMeasureUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid measure unit %q", value)
}
