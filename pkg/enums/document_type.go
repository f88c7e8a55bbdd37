package enums

import "fmt"

// DocumentType represents the identity document kinds accepted by the registry.
// Values keep the legacy wire codes used by the cooperative's records.
type DocumentType string

const (
	DocumentTypeCI        DocumentType = "CI"
	DocumentTypeNIT       DocumentType = "NIT"
	DocumentTypePassport  DocumentType = "PASAPORTE"
	DocumentTypeForeignID DocumentType = "CARNET_EXTRANJERO"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeCI,
	DocumentTypeNIT,
	DocumentTypePassport,
	DocumentTypeForeignID,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// Label returns the human-readable document type name.
func (d DocumentType) Label() string {
	switch d {
	case DocumentTypeCI:
		return "Cédula de Identidad"
	case DocumentTypeNIT:
		return "Número de Identificación Tributaria"
	case DocumentTypePassport:
		return "Pasaporte"
	case DocumentTypeForeignID:
		return "Carnet de Extranjero"
	}
	return string(d)
}

// DocumentTypes returns every known document type.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(validDocumentTypes))
	copy(out, validDocumentTypes)
	return out
}

// ParseDocumentType converts raw input into a DocumentType.
func ParseDocumentType(value string) (DocumentType, error) {
	for _, candidate := range validDocumentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
