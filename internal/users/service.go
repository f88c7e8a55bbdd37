package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/internal/identity"
	"github.com/jmamani/cooperativa-backend/internal/validation"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	"github.com/jmamani/cooperativa-backend/pkg/db"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/security"
)

// Service owns account registration and maintenance.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	List(ctx context.Context) ([]UserResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	client      *db.Client
	repo        *Repository
	registry    *identity.Registry
	documents   identity.Service
	duplicates  validation.Service
	interceptor *audit.Interceptor
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build the users service.
type ServiceParams struct {
	DBClient       *db.Client
	Repo           *Repository
	Registry       *identity.Registry
	Documents      identity.Service
	Duplicates     validation.Service
	Interceptor    *audit.Interceptor
	PasswordConfig config.PasswordConfig
}

// NewService constructs the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("document registry is required")
	}
	if params.Documents == nil {
		return nil, fmt.Errorf("document service is required")
	}
	if params.Duplicates == nil {
		return nil, fmt.Errorf("duplicate validation service is required")
	}
	if params.Interceptor == nil {
		return nil, fmt.Errorf("audit interceptor is required")
	}
	return &service{
		client:      params.DBClient,
		repo:        params.Repo,
		registry:    params.Registry,
		documents:   params.Documents,
		duplicates:  params.Duplicates,
		interceptor: params.Interceptor,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Create registers an account and, when supplied, its identity document in
// one transaction. All duplicate violations surface together before any write.
func (s *service) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	check := validation.CheckRequest{Email: &email}
	if req.Document != nil {
		check.DocumentType = &req.Document.Type
		check.DocumentNumber = &req.Document.Number
		check.Extension = req.Document.Extension
	}
	result, err := s.duplicates.CheckDuplicates(ctx, check)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "datos duplicados").
			WithDetails(result.Errors)
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsActive:     true,
		IsStaff:      req.IsStaff,
	}

	var doc *models.IdentityDocument
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if req.Document != nil {
			number, ext, vErr := s.documents.ValidateAndNormalize(req.Document.Type, req.Document.Number, req.Document.Extension)
			if vErr != nil {
				return vErr
			}
			doc = &models.IdentityDocument{
				DocumentType:   req.Document.Type,
				DocumentNumber: number,
				Extension:      ext,
				IsActive:       true,
			}
			if iErr := s.registry.WithDB(tx).Insert(ctx, doc); iErr != nil {
				return iErr
			}
			user.DocumentID = &doc.ID
		}
		return s.repo.WithDB(tx).Create(ctx, user)
	})
	if err != nil {
		// The storage-level unique constraints are the final backstop
		// against a race between the pre-check and the insert.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "datos duplicados")
		}
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}

	s.interceptor.Begin(enums.EntityKindUser, user.ID, nil).Saved(ctx, true, user)

	return ToResponse(user, doc), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return ToResponse(user, s.loadDocument(ctx, user)), nil
}

func (s *service) List(ctx context.Context) ([]UserResponse, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}
	out := make([]UserResponse, 0, len(records))
	for i := range records {
		out = append(out, *ToResponse(&records[i], s.loadDocument(ctx, &records[i])))
	}
	return out, nil
}

// Update edits account fields and optionally replaces document identity,
// re-running the duplicate checks with the user's own rows excluded.
func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	check := validation.CheckRequest{ExcludeUserID: &id}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		check.Email = &email
	}
	if req.Document != nil {
		check.DocumentType = &req.Document.Type
		check.DocumentNumber = &req.Document.Number
		check.Extension = req.Document.Extension
		check.ExcludeDocumentID = user.DocumentID
	}
	if check.Email != nil || check.DocumentNumber != nil {
		result, cErr := s.duplicates.CheckDuplicates(ctx, check)
		if cErr != nil {
			return nil, cErr
		}
		if !result.OK() {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "datos duplicados").
				WithDetails(result.Errors)
		}
	}

	mutation := s.interceptor.Begin(enums.EntityKindUser, user.ID, user)

	if check.Email != nil {
		user.Email = *check.Email
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		user.IsStaff = *req.IsStaff
	}

	var doc *models.IdentityDocument
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if req.Document != nil {
			registry := s.registry.WithDB(tx)
			number, ext, vErr := s.documents.ValidateAndNormalize(req.Document.Type, req.Document.Number, req.Document.Extension)
			if vErr != nil {
				return vErr
			}
			if user.DocumentID != nil {
				existing, fErr := registry.FindByID(ctx, *user.DocumentID)
				if fErr != nil {
					return fErr
				}
				existing.DocumentType = req.Document.Type
				existing.DocumentNumber = number
				existing.Extension = ext
				if uErr := registry.Update(ctx, existing); uErr != nil {
					return uErr
				}
				doc = existing
			} else {
				doc = &models.IdentityDocument{
					DocumentType:   req.Document.Type,
					DocumentNumber: number,
					Extension:      ext,
					IsActive:       true,
				}
				if iErr := registry.Insert(ctx, doc); iErr != nil {
					return iErr
				}
				user.DocumentID = &doc.ID
			}
		}
		return s.repo.WithDB(tx).Save(ctx, user)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "datos duplicados")
		}
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
	}

	mutation.Saved(ctx, false, user)

	if doc == nil {
		doc = s.loadDocument(ctx, user)
	}
	return ToResponse(user, doc), nil
}

// Delete removes the account. The identity document is retained: ownership is
// by reference, not containment.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	mutation := s.interceptor.Begin(enums.EntityKindUser, user.ID, user)

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting user")
	}

	mutation.Deleted(ctx, user)
	return nil
}

func (s *service) loadDocument(ctx context.Context, user *models.User) *models.IdentityDocument {
	if user.DocumentID == nil {
		return nil
	}
	doc, err := s.registry.FindByID(ctx, *user.DocumentID)
	if err != nil {
		return nil
	}
	return doc
}
