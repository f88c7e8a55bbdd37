package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jmamani/cooperativa-backend/internal/audit"
	authsvc "github.com/jmamani/cooperativa-backend/internal/auth"
	"github.com/jmamani/cooperativa-backend/internal/contributions"
	"github.com/jmamani/cooperativa-backend/internal/inventory"
	"github.com/jmamani/cooperativa-backend/internal/members"
	"github.com/jmamani/cooperativa-backend/internal/products"
	"github.com/jmamani/cooperativa-backend/internal/users"
	"github.com/jmamani/cooperativa-backend/internal/validation"
	pkgauth "github.com/jmamani/cooperativa-backend/pkg/auth"
	"github.com/jmamani/cooperativa-backend/pkg/auth/session"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubSessionTracker struct{}

func (stubSessionTracker) Touch(ctx context.Context, token string, at time.Time) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, claims *pkgauth.AccessTokenClaims) error {
	return nil
}

func (stubAuthService) Refresh(ctx context.Context, claims *pkgauth.AccessTokenClaims, refreshToken string) (*authsvc.TokenPair, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubUserService struct{}

func (stubUserService) Create(ctx context.Context, req users.CreateUserRequest) (*users.UserResponse, error) {
	return &users.UserResponse{}, nil
}

func (stubUserService) Get(ctx context.Context, id uuid.UUID) (*users.UserResponse, error) {
	return &users.UserResponse{}, nil
}

func (stubUserService) List(ctx context.Context) ([]users.UserResponse, error) {
	return nil, nil
}

func (stubUserService) Update(ctx context.Context, id uuid.UUID, req users.UpdateUserRequest) (*users.UserResponse, error) {
	return &users.UserResponse{}, nil
}

func (stubUserService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubMemberService struct{}

func (stubMemberService) Create(ctx context.Context, req members.CreateMemberRequest) (*members.MemberResponse, error) {
	return &members.MemberResponse{}, nil
}

func (stubMemberService) Get(ctx context.Context, id uuid.UUID) (*members.MemberResponse, error) {
	return &members.MemberResponse{}, nil
}

func (stubMemberService) List(ctx context.Context, activeOnly bool) ([]members.MemberResponse, error) {
	return nil, nil
}

func (stubMemberService) Search(ctx context.Context, term string) ([]members.MemberResponse, error) {
	return nil, nil
}

func (stubMemberService) Update(ctx context.Context, id uuid.UUID, req members.UpdateMemberRequest) (*members.MemberResponse, error) {
	return &members.MemberResponse{}, nil
}

func (stubMemberService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubMemberService) Stats(ctx context.Context) (*members.Stats, error) {
	return &members.Stats{}, nil
}

type stubContributionService struct{}

func (stubContributionService) Create(ctx context.Context, req contributions.CreateContributionRequest) (*contributions.ContributionResponse, error) {
	return &contributions.ContributionResponse{}, nil
}

func (stubContributionService) Get(ctx context.Context, id uuid.UUID) (*contributions.ContributionResponse, error) {
	return &contributions.ContributionResponse{}, nil
}

func (stubContributionService) List(ctx context.Context, filter contributions.ListFilter) ([]contributions.ContributionResponse, error) {
	return nil, nil
}

func (stubContributionService) Update(ctx context.Context, id uuid.UUID, req contributions.UpdateContributionRequest) (*contributions.ContributionResponse, error) {
	return &contributions.ContributionResponse{}, nil
}

func (stubContributionService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubContributionService) Stats(ctx context.Context, memberID *uuid.UUID) (*contributions.Stats, error) {
	return &contributions.Stats{}, nil
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, req products.CreateProductRequest) (*products.ProductResponse, error) {
	return &products.ProductResponse{}, nil
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*products.ProductResponse, error) {
	return &products.ProductResponse{}, nil
}

func (stubProductService) List(ctx context.Context, activeOnly bool) ([]products.ProductResponse, error) {
	return nil, nil
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, req products.UpdateProductRequest) (*products.ProductResponse, error) {
	return &products.ProductResponse{}, nil
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubInventoryService struct{}

func (stubInventoryService) RecordMovement(ctx context.Context, req inventory.CreateMovementRequest) (*inventory.MovementResponse, error) {
	return &inventory.MovementResponse{}, nil
}

func (stubInventoryService) Get(ctx context.Context, id uuid.UUID) (*inventory.MovementResponse, error) {
	return &inventory.MovementResponse{}, nil
}

func (stubInventoryService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.MovementResponse, error) {
	return nil, nil
}

type stubValidationService struct{}

func (stubValidationService) CheckDuplicates(ctx context.Context, req validation.CheckRequest) (*validation.Result, error) {
	return &validation.Result{}, nil
}

func setupAuditStore(t *testing.T) (*audit.Repository, *audit.SessionRepository, *audit.Purger) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{`
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
);`, `
CREATE TABLE user_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  session_token TEXT NOT NULL UNIQUE,
  ip_address TEXT NOT NULL,
  user_agent TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  started_at DATETIME,
  last_seen_at DATETIME,
  closed_at DATETIME
);`}
	for _, stmt := range statements {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	repo := audit.NewRepository(conn)
	sessionRepo := audit.NewSessionRepository(conn)
	purger, err := audit.NewPurger(audit.PurgerParams{
		Records:  repo,
		Sessions: sessionRepo,
	})
	if err != nil {
		t.Fatalf("build purger: %v", err)
	}
	return repo, sessionRepo, purger
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	auditRepo, sessionRepo, auditPurger := setupAuditStore(t)
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubSessionChecker{},
		stubSessionTracker{},
		stubAuthService{},
		stubUserService{},
		stubMemberService{},
		stubContributionService{},
		stubProductService{},
		stubInventoryService{},
		stubValidationService{},
		auditRepo,
		sessionRepo,
		auditPurger,
	)
}

func buildToken(t *testing.T, cfg *config.Config, isStaff bool) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:  uuid.New(),
		Email:   "ana@coop.bo",
		IsStaff: isStaff,
		JTI:     session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live probe got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for member list got %d", resp.Code)
	}
}

func TestUserMutationsRequireStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	body := `{"email":"x@coop.bo","password":"secret123","first_name":"X","last_name":"Y"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff user create got %d", resp.Code)
	}

	readReq := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	readReq.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, readReq)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for non-staff user list got %d", resp.Code)
	}
}

func TestAdminGroupRequiresStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	nonStaff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit", nil)
	nonStaff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonStaff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff audit list got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/audit", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff audit list got %d", resp.Code)
	}
}

func TestAuditPurgeRunsForStaff(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	body := `{"retention_days":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/audit/purge", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, true))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff purge got %d", resp.Code)
	}
}

func TestOwnAuditTrailAvailableToAnyUser(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for own audit trail got %d", resp.Code)
	}

	sessions := httptest.NewRequest(http.MethodGet, "/api/v1/audit/sessions/me", nil)
	sessions.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, false))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, sessions)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for own sessions got %d", resp.Code)
	}
}

func TestLoginRejectsBadJSON(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}
