package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmamani/cooperativa-backend/api/controllers"
	"github.com/jmamani/cooperativa-backend/api/middleware"
	"github.com/jmamani/cooperativa-backend/internal/audit"
	authsvc "github.com/jmamani/cooperativa-backend/internal/auth"
	"github.com/jmamani/cooperativa-backend/internal/contributions"
	"github.com/jmamani/cooperativa-backend/internal/inventory"
	"github.com/jmamani/cooperativa-backend/internal/members"
	"github.com/jmamani/cooperativa-backend/internal/products"
	"github.com/jmamani/cooperativa-backend/internal/users"
	"github.com/jmamani/cooperativa-backend/internal/validation"
	"github.com/jmamani/cooperativa-backend/pkg/auth/session"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	"github.com/jmamani/cooperativa-backend/pkg/db"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
)

// sessionTracker keeps the relational session row's last-seen fresh while a
// token is in use.
type sessionTracker interface {
	Touch(ctx context.Context, token string, at time.Time) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	sessionChecker session.AccessSessionChecker,
	sessionTracker sessionTracker,
	authService authsvc.Service,
	userService users.Service,
	memberService members.Service,
	contributionService contributions.Service,
	productService products.Service,
	inventoryService inventory.Service,
	validationService validation.Service,
	auditRepo *audit.Repository,
	sessionRepo *audit.SessionRepository,
	auditPurger *audit.Purger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	authMW := middleware.Auth(middleware.AuthParams{
		JWT:      cfg.JWT,
		Verifier: sessionChecker,
		Sessions: sessionTracker,
		Logger:   logg,
	})
	staffOnly := middleware.RequireStaff(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RequestScope())
		r.Post("/login", controllers.Login(authService, logg))
		r.Post("/refresh", controllers.Refresh(authService, cfg.JWT, logg))
		r.With(authMW).Post("/logout", controllers.Logout(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(userService, logg))
			r.Get("/{id}", controllers.GetUser(userService, logg))
			r.With(staffOnly).Post("/", controllers.CreateUser(userService, logg))
			r.With(staffOnly).Put("/{id}", controllers.UpdateUser(userService, logg))
			r.With(staffOnly).Delete("/{id}", controllers.DeleteUser(userService, logg))
		})

		r.Route("/v1/members", func(r chi.Router) {
			r.Get("/", controllers.ListMembers(memberService, logg))
			r.Get("/stats", controllers.MemberStats(memberService, logg))
			r.Get("/{id}", controllers.GetMember(memberService, logg))
			r.Post("/", controllers.CreateMember(memberService, logg))
			r.Put("/{id}", controllers.UpdateMember(memberService, logg))
			r.Delete("/{id}", controllers.DeactivateMember(memberService, logg))
		})

		r.Route("/v1/contributions", func(r chi.Router) {
			r.Get("/", controllers.ListContributions(contributionService, logg))
			r.Get("/stats", controllers.ContributionStats(contributionService, logg))
			r.Get("/{id}", controllers.GetContribution(contributionService, logg))
			r.Post("/", controllers.CreateContribution(contributionService, logg))
			r.Put("/{id}", controllers.UpdateContribution(contributionService, logg))
			r.Delete("/{id}", controllers.DeleteContribution(contributionService, logg))
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{id}", controllers.GetProduct(productService, logg))
			r.Get("/{id}/movements", controllers.ListProductMovements(inventoryService, logg))
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Put("/{id}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{id}", controllers.DeleteProduct(productService, logg))
		})

		r.Route("/v1/inventory/movements", func(r chi.Router) {
			r.Post("/", controllers.RecordMovement(inventoryService, logg))
			r.Get("/{id}", controllers.GetMovement(inventoryService, logg))
		})

		r.Post("/v1/validate", controllers.CheckDuplicates(validationService, logg))

		r.Route("/v1/audit", func(r chi.Router) {
			r.Get("/me", controllers.MyAuditRecords(auditRepo, logg))
			r.Get("/sessions/me", controllers.MySessions(sessionRepo, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMW)
		r.Use(staffOnly)

		r.Route("/v1/audit", func(r chi.Router) {
			r.Get("/", controllers.ListAuditRecords(auditRepo, logg))
			r.Get("/stats", controllers.AuditStats(auditRepo, logg))
			r.Get("/sessions", controllers.ListActiveSessions(sessionRepo, logg))
			r.Post("/purge", controllers.PurgeAudit(auditPurger, logg))
		})
	})

	return r
}
