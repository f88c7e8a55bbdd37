package enums

import "fmt"

// ContributionType classifies a member contribution (aporte).
type ContributionType string

const (
	ContributionTypeMonetary ContributionType = "ECONOMICO"
	ContributionTypeLabor    ContributionType = "TRABAJO"
	ContributionTypeInKind   ContributionType = "PRODUCTO"
)

var validContributionTypes = []ContributionType{
	ContributionTypeMonetary,
	ContributionTypeLabor,
	ContributionTypeInKind,
}

// String implements fmt.Stringer.
func (c ContributionType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContributionType.
func (c ContributionType) IsValid() bool {
	for _, candidate := range validContributionTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ContributionTypes returns every known contribution type.
func ContributionTypes() []ContributionType {
	out := make([]ContributionType, len(validContributionTypes))
	copy(out, validContributionTypes)
	return out
}

// ParseContributionType converts raw input into a ContributionType.
func ParseContributionType(value string) (ContributionType, error) {
	for _, candidate := range validContributionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contribution type %q", value)
}
