package identity

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/db"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

// formatRule describes the per-type shape a normalized number must satisfy.
// Foreign resident cards have no pattern beyond presence.
type formatRule struct {
	pattern *regexp.Regexp
	message string
}

var formatRules = map[enums.DocumentType]formatRule{
	enums.DocumentTypeCI: {
		pattern: regexp.MustCompile(`^\d{7,12}$`),
		message: "el CI debe tener entre 7 y 12 digitos",
	},
	enums.DocumentTypeNIT: {
		pattern: regexp.MustCompile(`^\d{10,13}$`),
		message: "el NIT debe tener entre 10 y 13 digitos",
	},
	enums.DocumentTypePassport: {
		pattern: regexp.MustCompile(`^[A-Z0-9]{6,15}$`),
		message: "el pasaporte debe tener entre 6 y 15 caracteres alfanumericos",
	},
}

// Extension applies to CI only: leading digit 1-9 plus optional uppercase letter.
var extensionRe = regexp.MustCompile(`^[1-9][A-Z]?$`)

// Service owns validation and mutation of identity documents.
type Service interface {
	ValidateAndNormalize(docType enums.DocumentType, rawNumber string, extension *string) (string, *string, error)
	Exists(ctx context.Context, docType enums.DocumentType, number string, extension *string, excludeID *uuid.UUID) (bool, error)
	Create(ctx context.Context, docType enums.DocumentType, rawNumber string, extension *string) (*models.IdentityDocument, error)
	Update(ctx context.Context, id uuid.UUID, docType enums.DocumentType, rawNumber string, extension *string) (*models.IdentityDocument, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	registry *Registry
}

// ServiceParams bundles the dependencies required to build the registry service.
type ServiceParams struct {
	Registry *Registry
}

// NewService constructs the document identity service.
func NewService(params ServiceParams) (Service, error) {
	if params.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	return &service{registry: params.Registry}, nil
}

// ValidateAndNormalize normalizes the raw number, then applies the
// type-specific format rules. It returns the normalized number and extension.
func (s *service) ValidateAndNormalize(docType enums.DocumentType, rawNumber string, extension *string) (string, *string, error) {
	if !docType.IsValid() {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de documento invalido").
			WithDetails(map[string]string{"document_type": fmt.Sprintf("tipo %q no reconocido", docType)})
	}

	number := Normalize(rawNumber)
	if number == "" {
		return "", nil, formatError("document_number", "el numero de documento es requerido")
	}

	if rule, ok := formatRules[docType]; ok && !rule.pattern.MatchString(number) {
		return "", nil, formatError("document_number", rule.message)
	}

	ext := NormalizeExtension(extension)
	if ext != nil {
		if docType != enums.DocumentTypeCI {
			return "", nil, formatError("extension", "la extension solo aplica a documentos CI")
		}
		if !extensionRe.MatchString(*ext) {
			return "", nil, formatError("extension", "extension invalida, se espera un digito 1-9 y una letra opcional")
		}
	}

	return number, ext, nil
}

func (s *service) Exists(ctx context.Context, docType enums.DocumentType, number string, extension *string, excludeID *uuid.UUID) (bool, error) {
	return s.registry.Exists(ctx, docType, number, extension, excludeID)
}

// Create validates, checks uniqueness, and persists in a single step. Any
// violation aborts the whole operation with no partial write.
func (s *service) Create(ctx context.Context, docType enums.DocumentType, rawNumber string, extension *string) (*models.IdentityDocument, error) {
	number, ext, err := s.ValidateAndNormalize(docType, rawNumber, extension)
	if err != nil {
		return nil, err
	}

	taken, err := s.registry.Exists(ctx, docType, number, ext, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking document uniqueness")
	}
	if taken {
		return nil, duplicateError()
	}

	doc := &models.IdentityDocument{
		DocumentType:   docType,
		DocumentNumber: number,
		Extension:      ext,
		IsActive:       true,
	}
	if err := s.registry.Insert(ctx, doc); err != nil {
		// The partial unique index is the final arbiter against a race
		// between the check and the insert.
		if db.IsUniqueViolation(err, "") {
			return nil, duplicateError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting document")
	}
	return doc, nil
}

// Update revalidates and persists new document values, excluding the row
// itself from the uniqueness check.
func (s *service) Update(ctx context.Context, id uuid.UUID, docType enums.DocumentType, rawNumber string, extension *string) (*models.IdentityDocument, error) {
	number, ext, err := s.ValidateAndNormalize(docType, rawNumber, extension)
	if err != nil {
		return nil, err
	}

	doc, err := s.registry.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "document not found")
	}

	taken, err := s.registry.Exists(ctx, docType, number, ext, &id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking document uniqueness")
	}
	if taken {
		return nil, duplicateError()
	}

	doc.DocumentType = docType
	doc.DocumentNumber = number
	doc.Extension = ext
	if err := s.registry.Update(ctx, doc); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, duplicateError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating document")
	}
	return doc, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.registry.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating document")
	}
	return nil
}

func formatError(field, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "documento invalido").
		WithDetails(map[string]string{field: message})
}

func duplicateError() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, "documento duplicado").
		WithDetails(map[string]string{"document_number": "ya existe un documento activo con ese numero"})
}
