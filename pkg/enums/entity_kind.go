package enums

import "fmt"

// EntityKind names the entity families the audit pipeline can watch.
type EntityKind string

const (
	EntityKindUser         EntityKind = "user"
	EntityKindMember       EntityKind = "member"
	EntityKindContribution EntityKind = "contribution"
	EntityKindProduct      EntityKind = "product"
	EntityKindDocument     EntityKind = "document"
)

var validEntityKinds = []EntityKind{
	EntityKindUser,
	EntityKindMember,
	EntityKindContribution,
	EntityKindProduct,
	EntityKindDocument,
}

// String implements fmt.Stringer.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known EntityKind.
func (k EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}
