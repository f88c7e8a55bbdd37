package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	"github.com/jmamani/cooperativa-backend/internal/products"
	"github.com/jmamani/cooperativa-backend/internal/requestctx"
	"github.com/jmamani/cooperativa-backend/pkg/db"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
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
CREATE TABLE inventory_movements (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  movement_type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  recorded_by TEXT,
  created_at DATETIME
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

func newInventoryService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	log := logger.New(logger.Options{ServiceName: "inventory-test", Output: io.Discard})

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
		DBClient:    db.NewFromConn(conn),
		Repo:        NewRepository(conn),
		Products:    products.NewRepository(conn),
		Interceptor: interceptor,
	})
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, stock int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     "Quinua",
		Price:    decimal.RequireFromString("18.50"),
		Unit:     enums.MeasureUnitKilogram,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestEntryMovementAddsStock(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newInventoryService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, 10)

	resp, err := svc.RecordMovement(ctx, CreateMovementRequest{
		ProductID: product.ID,
		Type:      enums.MovementTypeEntry,
		Quantity:  15,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 25, resp.ResultingStock)

	var records []models.AuditRecord
	require.NoError(t, conn.Where("action = ?", enums.AuditActionUpdate).Find(&records).Error)
	require.Len(t, records, 1)
}

func TestExitMovementRejectsInsufficientStock(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newInventoryService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, 5)

	_, err := svc.RecordMovement(ctx, CreateMovementRequest{
		ProductID: product.ID,
		Type:      enums.MovementTypeExit,
		Quantity:  6,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// The failed withdrawal leaves no movement behind.
	var count int64
	require.NoError(t, conn.Model(&models.InventoryMovement{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	reloaded, err := products.NewRepository(conn).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, reloaded.Stock)
}

func TestExitMovementSubtractsStock(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newInventoryService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, 20)

	resp, err := svc.RecordMovement(ctx, CreateMovementRequest{
		ProductID: product.ID,
		Type:      enums.MovementTypeExit,
		Quantity:  8,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 12, resp.ResultingStock)
}

func TestMovementRecordsActorFromScope(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newInventoryService(t, conn)

	product := seedProduct(t, conn, 10)
	actorID := uuid.New()
	ctx := requestctx.WithScope(context.Background(), requestctx.Scope{
		ActorID:    &actorID,
		ActorLabel: "operadora",
		IP:         "10.0.0.9",
	})

	resp, err := svc.RecordMovement(ctx, CreateMovementRequest{
		ProductID: product.ID,
		Type:      enums.MovementTypeEntry,
		Quantity:  1,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.RecordedBy)
	assert.Equal(t, actorID, *resp.RecordedBy)

	var records []models.AuditRecord
	require.NoError(t, conn.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "10.0.0.9", records[0].IPAddress)
}

func TestRejectNonPositiveQuantity(t *testing.T) {
	conn := setupInventoryTestDB(t)
	svc := newInventoryService(t, conn)
	ctx := context.Background()

	product := seedProduct(t, conn, 10)

	_, err := svc.RecordMovement(ctx, CreateMovementRequest{
		ProductID: product.ID,
		Type:      enums.MovementTypeEntry,
		Quantity:  0,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
