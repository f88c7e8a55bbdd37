package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jmamani/cooperativa-backend/api/responses"
	"github.com/jmamani/cooperativa-backend/internal/requestctx"
	pkgauth "github.com/jmamani/cooperativa-backend/pkg/auth"
	"github.com/jmamani/cooperativa-backend/pkg/auth/session"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

// sessionToucher refreshes the tracked session's last-seen timestamp.
type sessionToucher interface {
	Touch(ctx context.Context, token string, at time.Time) error
}

// AuthParams configure the bearer token middleware.
type AuthParams struct {
	JWT      config.JWTConfig
	Verifier session.AccessSessionChecker
	Sessions sessionToucher
	Logger   *logger.Logger
}

// Auth validates a bearer token, confirms the server-side session is still
// alive, and seeds the request scope with the authenticated actor.
func Auth(params AuthParams) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), params.Logger, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(params.JWT, token)
			if err != nil {
				responses.WriteError(r.Context(), params.Logger, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), params.Logger, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if params.Verifier != nil {
				ok, err := params.Verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), params.Logger, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), params.Logger, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := WithClaims(r.Context(), claims)

			userID := claims.UserID
			scope := requestctx.FromRequest(r)
			scope.ActorID = &userID
			scope.ActorLabel = claims.Email
			scope.SessionToken = claims.ID
			ctx = requestctx.WithScope(ctx, scope)

			if params.Sessions != nil {
				if err := params.Sessions.Touch(ctx, claims.ID, time.Now().UTC()); err != nil && params.Logger != nil {
					params.Logger.Error(ctx, "session touch failed", err)
				}
			}

			if params.Logger != nil {
				ctx = params.Logger.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff gates management endpoints to staff accounts. Must run after
// Auth.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !claims.IsStaff {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "acceso restringido al personal"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
