package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmamani/cooperativa-backend/internal/requestctx"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	dbtypes "github.com/jmamani/cooperativa-backend/pkg/db/types"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

// Pipeline reacts to authentication events, producing audit records and
// maintaining session rows. IP and user-agent come from the request scope.
type Pipeline struct {
	recorder Recorder
	sessions *SessionRepository
	log      *logger.Logger
	now      func() time.Time
}

// PipelineParams bundles the dependencies for the auth event pipeline.
type PipelineParams struct {
	Recorder Recorder
	Sessions *SessionRepository
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewPipeline constructs the auth event pipeline.
func NewPipeline(params PipelineParams) (*Pipeline, error) {
	if params.Recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		recorder: params.Recorder,
		sessions: params.Sessions,
		log:      params.Logger,
		now:      now,
	}, nil
}

// LoginSucceeded records the login and upserts the session row keyed by the
// session token.
func (p *Pipeline) LoginSucceeded(ctx context.Context, user *models.User, sessionToken string) {
	scope := requestctx.FromContext(ctx)

	if _, err := p.sessions.Upsert(ctx, user.ID, sessionToken, scope.IP, scope.UserAgent, p.now()); err != nil {
		p.log.Error(ctx, "session upsert failed", err)
	}

	userID := user.ID
	ref := UserRef(user.ID)
	if _, err := p.recorder.Record(ctx, Entry{
		Action:      enums.AuditActionLogin,
		ActorID:     &userID,
		ActorLabel:  user.Email,
		IP:          scope.IP,
		UserAgent:   scope.UserAgent,
		Entity:      &ref,
		Description: fmt.Sprintf("inicio de sesion de %s", user.Email),
		Success:     true,
	}); err != nil {
		p.log.Error(ctx, "login audit emission failed", err)
	}
}

// LoginFailed records a failed attempt. No actor is attached and no session
// row is touched.
func (p *Pipeline) LoginFailed(ctx context.Context, attemptedEmail string) {
	scope := requestctx.FromContext(ctx)

	if _, err := p.recorder.Record(ctx, Entry{
		Action:      enums.AuditActionLoginFailed,
		ActorLabel:  requestctx.FallbackActorLabel,
		IP:          scope.IP,
		UserAgent:   scope.UserAgent,
		Description: fmt.Sprintf("intento de inicio de sesion fallido para %s", attemptedEmail),
		NewState:    dbtypes.JSONMap{"attempted_email": attemptedEmail},
		Success:     false,
	}); err != nil {
		p.log.Error(ctx, "failed-login audit emission failed", err)
	}
}

// LoggedOut records the logout and closes the matching active session.
// A missing session is tolerated silently.
func (p *Pipeline) LoggedOut(ctx context.Context, user *models.User, sessionToken string) {
	scope := requestctx.FromContext(ctx)

	if err := p.sessions.Close(ctx, user.ID, sessionToken, p.now()); err != nil {
		p.log.Error(ctx, "session close failed", err)
	}

	userID := user.ID
	ref := UserRef(user.ID)
	if _, err := p.recorder.Record(ctx, Entry{
		Action:      enums.AuditActionLogout,
		ActorID:     &userID,
		ActorLabel:  user.Email,
		IP:          scope.IP,
		UserAgent:   scope.UserAgent,
		Entity:      &ref,
		Description: fmt.Sprintf("cierre de sesion de %s", user.Email),
		Success:     true,
	}); err != nil {
		p.log.Error(ctx, "logout audit emission failed", err)
	}
}
