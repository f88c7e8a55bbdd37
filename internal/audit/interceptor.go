package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/internal/requestctx"
	dbtypes "github.com/jmamani/cooperativa-backend/pkg/db/types"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

// Interceptor observes entity writes for the configured set of watched kinds.
// Services call Begin before persisting a change; the returned Mutation
// carries the pre-write snapshot for the rest of that unit of work, so two
// concurrent updates to the same entity can never consume each other's
// snapshots.
type Interceptor struct {
	recorder Recorder
	watched  map[enums.EntityKind]struct{}
	log      *logger.Logger
}

// InterceptorParams bundles the dependencies for the mutation interceptor.
type InterceptorParams struct {
	Recorder Recorder
	// WatchedKinds is the allow-list of entity kinds that produce audit
	// records on create/update/delete.
	WatchedKinds []enums.EntityKind
	Logger       *logger.Logger
}

// NewInterceptor constructs the mutation interceptor.
func NewInterceptor(params InterceptorParams) (*Interceptor, error) {
	if params.Recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	watched := make(map[enums.EntityKind]struct{}, len(params.WatchedKinds))
	for _, kind := range params.WatchedKinds {
		watched[kind] = struct{}{}
	}
	return &Interceptor{
		recorder: params.Recorder,
		watched:  watched,
		log:      params.Logger,
	}, nil
}

// Watches reports whether the kind is on the allow-list.
func (i *Interceptor) Watches(kind enums.EntityKind) bool {
	_, ok := i.watched[kind]
	return ok
}

// Mutation is the unit-of-work handle for one entity write. It holds the
// pre-write snapshot captured at Begin and emits the audit record once the
// write lands.
type Mutation struct {
	interceptor *Interceptor
	ref         EntityRef
	prior       dbtypes.JSONMap
	enabled     bool
}

// Begin opens a mutation for the given entity. For updates, pass the entity's
// current persisted state so the prior snapshot can be captured; pass nil for
// inserts. Unwatched kinds return an inert mutation.
func (i *Interceptor) Begin(kind enums.EntityKind, id uuid.UUID, current any) *Mutation {
	m := &Mutation{
		interceptor: i,
		ref:         EntityRef{Kind: kind, ID: id},
		enabled:     i.Watches(kind),
	}
	if m.enabled && current != nil {
		m.prior = Capture(current)
	}
	return m
}

// Saved emits the create/update record after a successful write. A nil prior
// snapshot on update means no prior state was available, which is not an
// error. Success is reported as true unconditionally; the pipeline does not
// distinguish audit-write failures.
func (m *Mutation) Saved(ctx context.Context, created bool, entity any) {
	if !m.enabled {
		return
	}

	action := enums.AuditActionUpdate
	var prior dbtypes.JSONMap
	if created {
		action = enums.AuditActionCreate
	} else {
		prior = m.prior
	}

	m.emit(ctx, action, prior, Capture(entity))
}

// Deleted emits the delete record with the entity's final values as the prior
// state.
func (m *Mutation) Deleted(ctx context.Context, entity any) {
	if !m.enabled {
		return
	}
	prior := m.prior
	if entity != nil {
		prior = Capture(entity)
	}
	m.emit(ctx, enums.AuditActionDelete, prior, nil)
}

func (m *Mutation) emit(ctx context.Context, action enums.AuditAction, prior, next dbtypes.JSONMap) {
	scope := requestctx.FromContext(ctx)

	ref := m.ref
	if _, err := m.interceptor.recorder.Record(ctx, Entry{
		Action:      action,
		ActorID:     scope.ActorID,
		ActorLabel:  scope.ActorLabel,
		IP:          scope.IP,
		UserAgent:   scope.UserAgent,
		Entity:      &ref,
		Description: fmt.Sprintf("%s %s", actionVerb(action), m.ref.Kind),
		PriorState:  prior,
		NewState:    next,
		Success:     true,
	}); err != nil {
		m.interceptor.log.Error(ctx, "mutation audit emission failed", err)
	}
}

func actionVerb(action enums.AuditAction) string {
	switch action {
	case enums.AuditActionCreate:
		return "creacion de"
	case enums.AuditActionUpdate:
		return "actualizacion de"
	case enums.AuditActionDelete:
		return "eliminacion de"
	}
	return string(action)
}
