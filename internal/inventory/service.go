package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/internal/products"
	"github.com/jmamani/cooperativa-backend/internal/requestctx"
	"github.com/jmamani/cooperativa-backend/pkg/db"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
)

// Service records stock movements. The movement row and the product's stock
// always change in the same transaction.
type Service interface {
	RecordMovement(ctx context.Context, req CreateMovementRequest) (*MovementResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*MovementResponse, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]MovementResponse, error)
}

type service struct {
	client      *db.Client
	repo        *Repository
	products    *products.Repository
	interceptor *audit.Interceptor
}

// ServiceParams bundles the dependencies required to build the inventory
// service.
type ServiceParams struct {
	DBClient    *db.Client
	Repo        *Repository
	Products    *products.Repository
	Interceptor *audit.Interceptor
}

// NewService constructs the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository is required")
	}
	if params.Interceptor == nil {
		return nil, fmt.Errorf("audit interceptor is required")
	}
	return &service{
		client:      params.DBClient,
		repo:        params.Repo,
		products:    params.Products,
		interceptor: params.Interceptor,
	}, nil
}

// RecordMovement applies a movement to the product's stock atomically. An
// ENTRADA adds quantity, a SALIDA subtracts it and fails when the product
// does not hold enough stock.
func (s *service) RecordMovement(ctx context.Context, req CreateMovementRequest) (*MovementResponse, error) {
	if !req.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo de movimiento invalido")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser mayor a cero").
			WithDetails(map[string]string{"quantity": "debe ser mayor a cero"})
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if products.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el producto no esta activo")
	}

	delta := req.Quantity
	if req.Type == enums.MovementTypeExit {
		delta = -req.Quantity
	}

	scope := requestctx.FromContext(ctx)

	movement := &models.InventoryMovement{
		ProductID:   product.ID,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Description: strings.TrimSpace(req.Description),
		RecordedBy:  scope.ActorID,
	}

	mutation := s.interceptor.Begin(enums.EntityKindProduct, product.ID, product)

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if aErr := s.products.WithDB(tx).AdjustStock(ctx, product.ID, delta); aErr != nil {
			return aErr
		}
		return s.repo.WithDB(tx).Create(ctx, movement)
	})
	if err != nil {
		if errors.Is(err, products.ErrInsufficientStock) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock insuficiente").
				WithDetails(map[string]string{"quantity": fmt.Sprintf("stock disponible: %d", product.Stock)})
		}
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording movement")
	}

	after, err := s.products.FindByID(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading product")
	}

	mutation.Saved(ctx, false, after)

	return toResponse(movement, after.Stock), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MovementResponse, error) {
	movement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movimiento no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading movement")
	}
	product, err := s.products.FindByID(ctx, movement.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return toResponse(movement, product.Stock), nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]MovementResponse, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if products.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	records, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing movements")
	}
	out := make([]MovementResponse, 0, len(records))
	for i := range records {
		out = append(out, *toResponse(&records[i], product.Stock))
	}
	return out, nil
}
