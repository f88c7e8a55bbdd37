package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/api/responses"
	"github.com/jmamani/cooperativa-backend/api/validators"
	"github.com/jmamani/cooperativa-backend/internal/validation"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

type checkDuplicatesRequest struct {
	Email          *string `json:"email,omitempty"`
	DocumentType   *string `json:"document_type,omitempty"`
	DocumentNumber *string `json:"document_number,omitempty"`
	Extension      *string `json:"extension,omitempty"`

	ExcludeUserID     *uuid.UUID `json:"exclude_user_id,omitempty"`
	ExcludeDocumentID *uuid.UUID `json:"exclude_document_id,omitempty"`
}

// CheckDuplicates runs the cross-entity duplicate and format checks in one
// call, reporting every violation at once.
func CheckDuplicates(svc validation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkDuplicatesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := validation.CheckRequest{
			Email:             payload.Email,
			DocumentNumber:    payload.DocumentNumber,
			Extension:         payload.Extension,
			ExcludeUserID:     payload.ExcludeUserID,
			ExcludeDocumentID: payload.ExcludeDocumentID,
		}
		if payload.DocumentType != nil {
			docType, err := enums.ParseDocumentType(strings.TrimSpace(*payload.DocumentType))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document type"))
				return
			}
			req.DocumentType = &docType
		}

		result, err := svc.CheckDuplicates(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
