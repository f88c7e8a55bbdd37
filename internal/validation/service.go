package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

// CheckRequest holds the optional fields a caller wants verified. Every
// supplied field is checked independently.
type CheckRequest struct {
	Email          *string
	DocumentType   *enums.DocumentType
	DocumentNumber *string
	Extension      *string
	// ExcludeUserID / ExcludeDocumentID skip the caller's own rows during updates.
	ExcludeUserID     *uuid.UUID
	ExcludeDocumentID *uuid.UUID
}

// Result aggregates every violation found, keyed by field name. When Errors is
// empty, Info carries a positive confirmation per checked field.
type Result struct {
	Errors map[string]string `json:"errors,omitempty"`
	Info   map[string]string `json:"info,omitempty"`
}

// OK reports whether no violation was found.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Service runs stateless duplicate checks against the user directory and the
// document registry.
type Service interface {
	CheckDuplicates(ctx context.Context, req CheckRequest) (*Result, error)
}

type userDirectory interface {
	EmailExists(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)
}

type documentChecker interface {
	ValidateAndNormalize(docType enums.DocumentType, rawNumber string, extension *string) (string, *string, error)
	Exists(ctx context.Context, docType enums.DocumentType, number string, extension *string, excludeID *uuid.UUID) (bool, error)
}

type service struct {
	users     userDirectory
	documents documentChecker
}

// ServiceParams bundles the dependencies for the duplicate validation service.
type ServiceParams struct {
	Users     userDirectory
	Documents documentChecker
}

// NewService constructs the duplicate validation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.Documents == nil {
		return nil, fmt.Errorf("document checker is required")
	}
	return &service{users: params.Users, documents: params.Documents}, nil
}

// CheckDuplicates collects every violation across the supplied fields rather
// than failing fast, so registration forms receive all errors in one call.
func (s *service) CheckDuplicates(ctx context.Context, req CheckRequest) (*Result, error) {
	result := &Result{
		Errors: map[string]string{},
		Info:   map[string]string{},
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			result.Errors["email"] = "el email es requerido"
		} else {
			taken, err := s.users.EmailExists(ctx, email, req.ExcludeUserID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
			}
			if taken {
				result.Errors["email"] = "ya existe un usuario con ese email"
			} else {
				result.Info["email"] = "email disponible"
			}
		}
	}

	if req.DocumentNumber != nil && req.DocumentType == nil {
		result.Errors["document_type"] = "el tipo de documento es requerido"
	}

	if req.DocumentNumber != nil && req.DocumentType != nil {
		docType := *req.DocumentType

		number, ext, err := s.documents.ValidateAndNormalize(docType, *req.DocumentNumber, req.Extension)
		if err != nil {
			mergeFieldErrors(result.Errors, err, "document_number")
		} else {
			taken, existsErr := s.documents.Exists(ctx, docType, number, ext, req.ExcludeDocumentID)
			if existsErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, existsErr, "checking document")
			}
			if taken {
				result.Errors["document_number"] = "ya existe un documento activo con ese numero"
			} else {
				result.Info["document_number"] = "documento disponible"
			}
		}
	}

	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	if len(result.Info) == 0 {
		result.Info = nil
	}
	return result, nil
}

// mergeFieldErrors folds a coded validation error's field details into the
// aggregate map, falling back to the error message under the default field.
func mergeFieldErrors(dst map[string]string, err error, fallbackField string) {
	if coded := pkgerrors.As(err); coded != nil {
		if details, ok := coded.Details().(map[string]string); ok && len(details) > 0 {
			for field, message := range details {
				dst[field] = message
			}
			return
		}
		dst[fallbackField] = coded.Message()
		return
	}
	dst[fallbackField] = err.Error()
}
