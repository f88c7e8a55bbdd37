package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

// Service owns the product catalog. Stock is read-only here; it only changes
// through inventory movements.
type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error)
	List(ctx context.Context, activeOnly bool) ([]ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        *Repository
	interceptor *audit.Interceptor
}

// ServiceParams bundles the dependencies required to build the products
// service.
type ServiceParams struct {
	Repo        *Repository
	Interceptor *audit.Interceptor
}

// NewService constructs the products service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("products repository is required")
	}
	if params.Interceptor == nil {
		return nil, fmt.Errorf("audit interceptor is required")
	}
	return &service{repo: params.Repo, interceptor: params.Interceptor}, nil
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre requerido")
	}
	if !req.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unidad de medida invalida")
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el precio no puede ser negativo")
	}
	if req.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el stock inicial no puede ser negativo")
	}

	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Unit:        req.Unit,
		Stock:       req.Stock,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}

	s.interceptor.Begin(enums.EntityKindProduct, product.ID, nil).Saved(ctx, true, product)

	return toResponse(product), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return toResponse(product), nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]ProductResponse, error) {
	records, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	out := make([]ProductResponse, 0, len(records))
	for i := range records {
		out = append(out, *toResponse(&records[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	if req.Unit != nil && !req.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unidad de medida invalida")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el precio no puede ser negativo")
	}

	mutation := s.interceptor.Begin(enums.EntityKindProduct, product.ID, product)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre requerido")
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}

	mutation.Saved(ctx, false, product)

	return toResponse(product), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	mutation := s.interceptor.Begin(enums.EntityKindProduct, product.ID, product)

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}

	mutation.Deleted(ctx, product)
	return nil
}
