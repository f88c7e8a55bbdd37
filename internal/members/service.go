package members

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

var phoneRe = regexp.MustCompile(`^[0-9]{7,15}$`)

// Service owns the socio directory.
type Service interface {
	Create(ctx context.Context, req CreateMemberRequest) (*MemberResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*MemberResponse, error)
	List(ctx context.Context, activeOnly bool) ([]MemberResponse, error)
	Search(ctx context.Context, term string) ([]MemberResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*MemberResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type documentLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.IdentityDocument, error)
}

type service struct {
	repo        *Repository
	users       userLoader
	documents   documentLoader
	interceptor *audit.Interceptor
}

// ServiceParams bundles the dependencies required to build the members service.
type ServiceParams struct {
	Repo        *Repository
	Users       userLoader
	Documents   documentLoader
	Interceptor *audit.Interceptor
}

// NewService constructs the members service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("members repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user loader is required")
	}
	if params.Documents == nil {
		return nil, fmt.Errorf("document loader is required")
	}
	if params.Interceptor == nil {
		return nil, fmt.Errorf("audit interceptor is required")
	}
	return &service{
		repo:        params.Repo,
		users:       params.Users,
		documents:   params.Documents,
		interceptor: params.Interceptor,
	}, nil
}

// Create registers a socio for an existing account. A user holds at most one
// membership, and at most one active socio may resolve to any given identity
// document.
func (s *service) Create(ctx context.Context, req CreateMemberRequest) (*MemberResponse, error) {
	if !req.MemberType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de socio invalido")
	}
	phone := strings.TrimSpace(req.Phone)
	if !phoneRe.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telefono invalido").
			WithDetails(map[string]string{"phone": "debe tener entre 7 y 15 digitos"})
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	if _, err := s.repo.FindByUserID(ctx, req.UserID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "el usuario ya tiene una membresia")
	} else if !IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing membership")
	}

	if user.DocumentID != nil {
		taken, err := s.repo.ActiveMemberExistsForDocument(ctx, *user.DocumentID, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking document membership")
		}
		if taken {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "ya existe un socio activo con ese documento")
		}
	}

	member := &models.Member{
		UserID:     req.UserID,
		MemberType: req.MemberType,
		Address:    strings.TrimSpace(req.Address),
		Phone:      phone,
		JoinedAt:   req.JoinedAt,
		IsActive:   true,
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating member")
	}

	s.interceptor.Begin(enums.EntityKindMember, member.ID, nil).Saved(ctx, true, member)

	return toResponse(member, user, s.resolveDocumentNumber(ctx, user, member)), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MemberResponse, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "socio no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading member")
	}
	return s.present(ctx, member), nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]MemberResponse, error) {
	records, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing members")
	}
	return s.presentAll(ctx, records), nil
}

func (s *service) Search(ctx context.Context, term string) ([]MemberResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, false)
	}
	records, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "searching members")
	}
	return s.presentAll(ctx, records), nil
}

// Update edits the mutable fields of a socio. The join date never changes
// after registration. Reactivating a membership re-checks the active-document
// invariant, since another socio may have claimed the document meanwhile.
func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*MemberResponse, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "socio no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading member")
	}

	if req.MemberType != nil && !req.MemberType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de socio invalido")
	}
	if req.Phone != nil && !phoneRe.MatchString(strings.TrimSpace(*req.Phone)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telefono invalido").
			WithDetails(map[string]string{"phone": "debe tener entre 7 y 15 digitos"})
	}

	if req.IsActive != nil && *req.IsActive && !member.IsActive {
		user, uErr := s.users.FindByID(ctx, member.UserID)
		if uErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, uErr, "loading user")
		}
		if user.DocumentID != nil {
			taken, dErr := s.repo.ActiveMemberExistsForDocument(ctx, *user.DocumentID, &member.ID)
			if dErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, dErr, "checking document membership")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "ya existe un socio activo con ese documento")
			}
		}
	}

	mutation := s.interceptor.Begin(enums.EntityKindMember, member.ID, member)

	if req.MemberType != nil {
		member.MemberType = *req.MemberType
	}
	if req.Address != nil {
		member.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		member.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		member.Notes = req.Notes
	}

	if err := s.repo.Save(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating member")
	}

	mutation.Saved(ctx, false, member)

	return s.present(ctx, member), nil
}

// Deactivate retires a membership without deleting its history.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "socio no encontrado")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading member")
	}
	if !member.IsActive {
		return nil
	}

	mutation := s.interceptor.Begin(enums.EntityKindMember, member.ID, member)

	member.IsActive = false
	if err := s.repo.Save(ctx, member); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating member")
	}

	mutation.Saved(ctx, false, member)
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.CountByType(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "computing member stats")
	}
	return stats, nil
}

func (s *service) present(ctx context.Context, member *models.Member) *MemberResponse {
	user, err := s.users.FindByID(ctx, member.UserID)
	if err != nil {
		user = nil
	}
	return toResponse(member, user, s.resolveDocumentNumber(ctx, user, member))
}

func (s *service) presentAll(ctx context.Context, records []models.Member) []MemberResponse {
	out := make([]MemberResponse, 0, len(records))
	for i := range records {
		out = append(out, *s.present(ctx, &records[i]))
	}
	return out
}

// resolveDocumentNumber reads through to the owning user's identity document
// and falls back to the raw legacy value for pre-normalization records.
func (s *service) resolveDocumentNumber(ctx context.Context, user *models.User, member *models.Member) string {
	if user != nil && user.DocumentID != nil {
		doc, err := s.documents.FindByID(ctx, *user.DocumentID)
		if err == nil {
			if doc.Extension != nil {
				return doc.DocumentNumber + " " + *doc.Extension
			}
			return doc.DocumentNumber
		}
	}
	return member.LegacyDNI
}
