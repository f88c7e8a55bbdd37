package products

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  unit TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE audit_records (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  actor_label TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_kind TEXT,
  entity_id TEXT,
  description TEXT NOT NULL DEFAULT '',
  ip_address TEXT NOT NULL,
  user_agent TEXT NOT NULL DEFAULT '',
  prior_state TEXT,
  new_state TEXT,
  success INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newProductsService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	log := logger.New(logger.Options{ServiceName: "products-test", Output: io.Discard})

	recorder, err := audit.NewRecorder(audit.RecorderParams{
		Repo:   audit.NewRepository(conn),
		Logger: log,
	})
	require.NoError(t, err)

	interceptor, err := audit.NewInterceptor(audit.InterceptorParams{
		Recorder:     recorder,
		WatchedKinds: []enums.EntityKind{enums.EntityKindProduct},
		Logger:       log,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Interceptor: interceptor,
	})
	require.NoError(t, err)
	return svc
}

func TestCreateProductValidatesInput(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductRequest{
		Name:  "  ",
		Price: decimal.NewFromInt(10),
		Unit:  enums.MeasureUnitKilogram,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateProductRequest{
		Name:  "Quinua",
		Price: decimal.NewFromInt(10),
		Unit:  "CAJA",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	resp, err := svc.Create(ctx, CreateProductRequest{
		Name:  "Quinua",
		Price: decimal.RequireFromString("18.50"),
		Unit:  enums.MeasureUnitKilogram,
		Stock: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "Quinua", resp.Name)
	assert.EqualValues(t, 40, resp.Stock)
	assert.True(t, resp.IsActive)
}

func TestUpdateProductEmitsAuditWithPriorPrice(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductRequest{
		Name:  "Miel",
		Price: decimal.RequireFromString("25.00"),
		Unit:  enums.MeasureUnitLiter,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("27.50")
	updated, err := svc.Update(ctx, created.ID, UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))

	var records []models.AuditRecord
	require.NoError(t, conn.Where("action = ?", enums.AuditActionUpdate).Find(&records).Error)
	require.Len(t, records, 1)
	assert.NotEqual(t, records[0].PriorState["price"], records[0].NewState["price"])
}

func TestDeleteProductEmitsAudit(t *testing.T) {
	conn := setupProductsTestDB(t)
	svc := newProductsService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductRequest{
		Name:  "Cafe",
		Price: decimal.RequireFromString("35.00"),
		Unit:  enums.MeasureUnitKilogram,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, conn.Model(&models.AuditRecord{}).
		Where("action = ?", enums.AuditActionDelete).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAdjustStockRejectsUnderflow(t *testing.T) {
	conn := setupProductsTestDB(t)
	ctx := context.Background()

	repo := NewRepository(conn)
	product := &models.Product{
		Name:  "Arroz",
		Price: decimal.NewFromInt(8),
		Unit:  enums.MeasureUnitKilogram,
		Stock: 5,
	}
	require.NoError(t, conn.Create(product).Error)

	require.ErrorIs(t, repo.AdjustStock(ctx, product.ID, -6), ErrInsufficientStock)
	require.NoError(t, repo.AdjustStock(ctx, product.ID, -5))

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reloaded.Stock)
}
