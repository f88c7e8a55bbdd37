package enums

import "fmt"

// MemberType classifies a cooperative member (socio).
type MemberType string

const (
	MemberTypeProducer MemberType = "PRODUCTOR"
	MemberTypeConsumer MemberType = "CONSUMIDOR"
	MemberTypeWorker   MemberType = "TRABAJADOR"
)

var validMemberTypes = []MemberType{
	MemberTypeProducer,
	MemberTypeConsumer,
	MemberTypeWorker,
}

// String implements fmt.Stringer.
func (m MemberType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberType.
func (m MemberType) IsValid() bool {
	for _, candidate := range validMemberTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// MemberTypes returns every known member type.
func MemberTypes() []MemberType {
	out := make([]MemberType, len(validMemberTypes))
	copy(out, validMemberTypes)
	return out
}

// ParseMemberType converts raw input into a MemberType.
func ParseMemberType(value string) (MemberType, error) {
	for _, candidate := range validMemberTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member type %q", value)
}
