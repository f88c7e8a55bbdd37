package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/internal/users"
	pkgauth "github.com/jmamani/cooperativa-backend/pkg/auth"
	"github.com/jmamani/cooperativa-backend/pkg/auth/session"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	"github.com/jmamani/cooperativa-backend/pkg/db/models"
	pkgerrors "github.com/jmamani/cooperativa-backend/pkg/errors"
	"github.com/jmamani/cooperativa-backend/pkg/security"
)

// authEvents is the slice of the audit pipeline the auth flow emits to.
type authEvents interface {
	LoginSucceeded(ctx context.Context, user *models.User, sessionToken string)
	LoginFailed(ctx context.Context, attemptedEmail string)
	LoggedOut(ctx context.Context, user *models.User, sessionToken string)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type userDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service owns login, logout, and token refresh.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, claims *pkgauth.AccessTokenClaims) error
	Refresh(ctx context.Context, claims *pkgauth.AccessTokenClaims, refreshToken string) (*TokenPair, error)
}

type service struct {
	users    userDirectory
	sessions sessionManager
	events   authEvents
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build the auth service.
type ServiceParams struct {
	Users    userDirectory
	Sessions sessionManager
	Events   authEvents
	JWT      config.JWTConfig
	Now      func() time.Time
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("auth event pipeline is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		events:   params.Events,
		jwtCfg:   params.JWT,
		now:      now,
	}, nil
}

var errInvalidCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "credenciales invalidas")

// Login verifies the credentials and issues a token pair. Every failed
// attempt leaves a failed-login audit record with no actor attached.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if users.IsNotFound(err) {
			s.events.LoginFailed(ctx, email)
			return nil, errInvalidCredentials
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		s.events.LoginFailed(ctx, email)
		return nil, errInvalidCredentials
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		s.events.LoginFailed(ctx, email)
		return nil, errInvalidCredentials
	}

	now := s.now()
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		Email:   user.Email,
		IsStaff: user.IsStaff,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating last login")
	}

	s.events.LoginSucceeded(ctx, user, accessID)

	return &LoginResponse{
		TokenPair: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		},
		User: LoginUser{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			IsStaff:   user.IsStaff,
		},
	}, nil
}

// Logout revokes the server-side session and records the event. The JWT
// itself stays valid until expiry; the session check is what cuts access.
func (s *service) Logout(ctx context.Context, claims *pkgauth.AccessTokenClaims) error {
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if users.IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	s.events.LoggedOut(ctx, user, claims.ID)
	return nil
}

// Refresh rotates the refresh token and mints a new access token bound to a
// fresh session identifier.
func (s *service) Refresh(ctx context.Context, claims *pkgauth.AccessTokenClaims, refreshToken string) (*TokenPair, error) {
	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion invalida")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotating session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if users.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion invalida")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesion invalida")
	}

	now := s.now()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		Email:   user.Email,
		IsStaff: user.IsStaff,
		JTI:     newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
	}, nil
}
