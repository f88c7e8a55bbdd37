package contributions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

// Service owns aporte registration and reporting.
type Service interface {
	Create(ctx context.Context, req CreateContributionRequest) (*ContributionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*ContributionResponse, error)
	List(ctx context.Context, filter ListFilter) ([]ContributionResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateContributionRequest) (*ContributionResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, memberID *uuid.UUID) (*Stats, error)
}

type memberLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

type service struct {
	repo        *Repository
	members     memberLoader
	interceptor *audit.Interceptor
}

// ServiceParams bundles the dependencies required to build the contributions
// service.
type ServiceParams struct {
	Repo        *Repository
	Members     memberLoader
	Interceptor *audit.Interceptor
}

// NewService constructs the contributions service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("contributions repository is required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member loader is required")
	}
	if params.Interceptor == nil {
		return nil, fmt.Errorf("audit interceptor is required")
	}
	return &service{
		repo:        params.Repo,
		members:     params.Members,
		interceptor: params.Interceptor,
	}, nil
}

// checkAmount enforces the type/amount pairing: monetary aportes carry a
// positive amount, every other type carries none.
func checkAmount(kind enums.ContributionType, amount *decimal.Decimal) error {
	if kind == enums.ContributionTypeMonetary {
		if amount == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "monto requerido para aportes economicos").
				WithDetails(map[string]string{"amount": "requerido"})
		}
		if !amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "el monto debe ser mayor a cero").
				WithDetails(map[string]string{"amount": "debe ser mayor a cero"})
		}
		return nil
	}
	if amount != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "solo los aportes economicos llevan monto").
			WithDetails(map[string]string{"amount": "no corresponde a este tipo"})
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateContributionRequest) (*ContributionResponse, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de aporte invalido")
	}
	if err := checkAmount(req.Type, req.Amount); err != nil {
		return nil, err
	}

	member, err := s.members.FindByID(ctx, req.MemberID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "socio no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading member")
	}
	if !member.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el socio no esta activo")
	}

	contribution := &models.Contribution{
		MemberID:    member.ID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		Date:        req.Date,
	}
	if err := s.repo.Create(ctx, contribution); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating contribution")
	}

	s.interceptor.Begin(enums.EntityKindContribution, contribution.ID, nil).Saved(ctx, true, contribution)

	return toResponse(contribution), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ContributionResponse, error) {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "aporte no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading contribution")
	}
	return toResponse(contribution), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ContributionResponse, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing contributions")
	}
	out := make([]ContributionResponse, 0, len(records))
	for i := range records {
		out = append(out, *toResponse(&records[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateContributionRequest) (*ContributionResponse, error) {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "aporte no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading contribution")
	}

	kind := contribution.Type
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de aporte invalido")
		}
		kind = *req.Type
	}
	amount := contribution.Amount
	if req.Amount != nil {
		amount = req.Amount
	}
	// A type switch away from monetary drops the stale amount instead of
	// rejecting the edit.
	if kind != enums.ContributionTypeMonetary && req.Amount == nil {
		amount = nil
	}
	if err := checkAmount(kind, amount); err != nil {
		return nil, err
	}

	mutation := s.interceptor.Begin(enums.EntityKindContribution, contribution.ID, contribution)

	contribution.Type = kind
	contribution.Amount = amount
	if req.Description != nil {
		contribution.Description = strings.TrimSpace(*req.Description)
	}
	if req.Date != nil {
		contribution.Date = *req.Date
	}

	if err := s.repo.Save(ctx, contribution); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating contribution")
	}

	mutation.Saved(ctx, false, contribution)

	return toResponse(contribution), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "aporte no encontrado")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading contribution")
	}

	mutation := s.interceptor.Begin(enums.EntityKindContribution, contribution.ID, contribution)

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting contribution")
	}

	mutation.Deleted(ctx, contribution)
	return nil
}

func (s *service) Stats(ctx context.Context, memberID *uuid.UUID) (*Stats, error) {
	stats, err := s.repo.Aggregate(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregating contributions")
	}
	return stats, nil
}
