package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

func newTestInterceptor(t *testing.T, recorder Recorder, watched ...enums.EntityKind) *Interceptor {
	t.Helper()
	interceptor, err := NewInterceptor(InterceptorParams{
		Recorder:     recorder,
		WatchedKinds: watched,
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	return interceptor
}

func TestMutationUpdateCapturesPriorAndNewState(t *testing.T) {
	db := setupAuditTestDB(t)
	recorder, _ := newTestRecorder(t, db)
	interceptor := newTestInterceptor(t, recorder, enums.EntityKindUser)

	user := &models.User{ID: uuid.New(), Email: "before@coop.example", FirstName: "Ana"}
	actorID := uuid.New()
	ctx := scopedCtx("10.1.1.1", "agent", &actorID, "admin@coop.example")

	mutation := interceptor.Begin(enums.EntityKindUser, user.ID, user)
	user.Email = "after@coop.example"
	mutation.Saved(ctx, false, user)

	records := allRecords(t, db)
	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, enums.AuditActionUpdate, record.Action)
	require.NotNil(t, record.EntityKind)
	assert.Equal(t, enums.EntityKindUser, *record.EntityKind)
	require.NotNil(t, record.EntityID)
	assert.Equal(t, user.ID, *record.EntityID)
	assert.Equal(t, "before@coop.example", record.PriorState["email"])
	assert.Equal(t, "after@coop.example", record.NewState["email"])
	require.NotNil(t, record.UserID)
	assert.Equal(t, actorID, *record.UserID)
	assert.True(t, record.Success)
}

func TestMutationCreateHasNoPriorState(t *testing.T) {
	db := setupAuditTestDB(t)
	recorder, _ := newTestRecorder(t, db)
	interceptor := newTestInterceptor(t, recorder, enums.EntityKindUser)

	user := &models.User{ID: uuid.New(), Email: "nuevo@coop.example"}
	ctx := scopedCtx("10.1.1.1", "agent", nil, "")

	mutation := interceptor.Begin(enums.EntityKindUser, user.ID, nil)
	mutation.Saved(ctx, true, user)

	records := allRecords(t, db)
	require.Len(t, records, 1)
	assert.Equal(t, enums.AuditActionCreate, records[0].Action)
	assert.Nil(t, records[0].PriorState)
	assert.Equal(t, "nuevo@coop.example", records[0].NewState["email"])
	assert.Nil(t, records[0].UserID, "unauthenticated actor stays null")
}

func TestMutationDeleteSnapshotsFinalValues(t *testing.T) {
	db := setupAuditTestDB(t)
	recorder, _ := newTestRecorder(t, db)
	interceptor := newTestInterceptor(t, recorder, enums.EntityKindUser)

	user := &models.User{ID: uuid.New(), Email: "borrado@coop.example"}
	ctx := scopedCtx("10.1.1.1", "agent", nil, "")

	mutation := interceptor.Begin(enums.EntityKindUser, user.ID, user)
	mutation.Deleted(ctx, user)

	records := allRecords(t, db)
	require.Len(t, records, 1)
	assert.Equal(t, enums.AuditActionDelete, records[0].Action)
	assert.Equal(t, "borrado@coop.example", records[0].PriorState["email"])
	assert.Nil(t, records[0].NewState)
}

func TestUnwatchedKindEmitsNothing(t *testing.T) {
	db := setupAuditTestDB(t)
	recorder, _ := newTestRecorder(t, db)
	interceptor := newTestInterceptor(t, recorder, enums.EntityKindUser)

	product := &models.Product{ID: uuid.New(), Name: "Quinua"}
	ctx := scopedCtx("10.1.1.1", "agent", nil, "")

	mutation := interceptor.Begin(enums.EntityKindProduct, product.ID, product)
	mutation.Saved(ctx, false, product)
	mutation.Deleted(ctx, product)

	assert.Empty(t, allRecords(t, db))
}

func TestConcurrentMutationsKeepSeparateSnapshots(t *testing.T) {
	db := setupAuditTestDB(t)
	recorder, _ := newTestRecorder(t, db)
	interceptor := newTestInterceptor(t, recorder, enums.EntityKindUser)

	id := uuid.New()
	first := &models.User{ID: id, Email: "v1@coop.example"}
	second := &models.User{ID: id, Email: "v2@coop.example"}
	ctx := scopedCtx("10.1.1.1", "agent", nil, "")

	// Two units of work over the same entity: each mutation keeps its own
	// pre-write snapshot.
	m1 := interceptor.Begin(enums.EntityKindUser, id, first)
	m2 := interceptor.Begin(enums.EntityKindUser, id, second)

	m2.Saved(ctx, false, &models.User{ID: id, Email: "v3@coop.example"})
	m1.Saved(ctx, false, &models.User{ID: id, Email: "v2@coop.example"})

	records := allRecords(t, db)
	require.Len(t, records, 2)
	assert.Equal(t, "v2@coop.example", records[0].PriorState["email"])
	assert.Equal(t, "v1@coop.example", records[1].PriorState["email"])
}
