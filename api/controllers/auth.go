package controllers

import (
	"net/http"
	"strings"

	"github.com/jmamani/cooperativa-backend/api/middleware"
	"github.com/jmamani/cooperativa-backend/api/responses"
	"github.com/jmamani/cooperativa-backend/api/validators"
	authsvc "github.com/jmamani/cooperativa-backend/internal/auth"
	pkgauth "github.com/jmamani/cooperativa-backend/pkg/auth"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

// Login handles credential verification and token issuance.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// Logout revokes the caller's session. Runs behind Auth.
func Logout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.Logout(r.Context(), claims); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// Refresh exchanges a refresh token for a new pair. The access token may be
// expired, so the handler parses it leniently instead of running behind Auth.
func Refresh(svc authsvc.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			raw = strings.TrimSpace(raw[7:])
		}
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgauth.ParseAccessTokenAllowExpired(jwtCfg, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		var payload authsvc.RefreshRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.Refresh(r.Context(), claims, payload.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pair)
	}
}
