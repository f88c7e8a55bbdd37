package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jmamani/cooperativa-backend/api/routes"
	"github.com/jmamani/cooperativa-backend/internal/audit"
	authsvc "github.com/jmamani/cooperativa-backend/internal/auth"
	"github.com/jmamani/cooperativa-backend/internal/contributions"
	"github.com/jmamani/cooperativa-backend/internal/identity"
	"github.com/jmamani/cooperativa-backend/internal/inventory"
	"github.com/jmamani/cooperativa-backend/internal/members"
	"github.com/jmamani/cooperativa-backend/internal/products"
	"github.com/jmamani/cooperativa-backend/internal/users"
	"github.com/jmamani/cooperativa-backend/internal/validation"
	"github.com/jmamani/cooperativa-backend/pkg/auth/session"
	"github.com/jmamani/cooperativa-backend/pkg/config"
	"github.com/jmamani/cooperativa-backend/pkg/db"
	"github.com/jmamani/cooperativa-backend/pkg/enums"
	"github.com/jmamani/cooperativa-backend/pkg/logger"
	"github.com/jmamani/cooperativa-backend/pkg/migrate"
	"github.com/jmamani/cooperativa-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	conn := dbClient.DB()

	auditRepo := audit.NewRepository(conn)
	sessionRepo := audit.NewSessionRepository(conn)

	auditRecorder, err := audit.NewRecorder(audit.RecorderParams{Repo: auditRepo, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	watchedKinds := make([]enums.EntityKind, 0, len(cfg.Audit.WatchedKinds))
	for _, raw := range cfg.Audit.WatchedKinds {
		kind, err := enums.ParseEntityKind(raw)
		if err != nil {
			logg.Error(context.Background(), "invalid watched entity kind", err)
			os.Exit(1)
		}
		watchedKinds = append(watchedKinds, kind)
	}

	interceptor, err := audit.NewInterceptor(audit.InterceptorParams{
		Recorder:     auditRecorder,
		WatchedKinds: watchedKinds,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit interceptor", err)
		os.Exit(1)
	}

	pipeline, err := audit.NewPipeline(audit.PipelineParams{
		Recorder: auditRecorder,
		Sessions: sessionRepo,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit pipeline", err)
		os.Exit(1)
	}

	auditPurger, err := audit.NewPurger(audit.PurgerParams{Records: auditRepo, Sessions: sessionRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit purger", err)
		os.Exit(1)
	}

	documentRegistry := identity.NewRegistry(conn)
	documentService, err := identity.NewService(identity.ServiceParams{Registry: documentRegistry})
	if err != nil {
		logg.Error(context.Background(), "failed to create document service", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(conn)

	validationService, err := validation.NewService(validation.ServiceParams{
		Users:     userRepo,
		Documents: documentService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create validation service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		DBClient:       dbClient,
		Repo:           userRepo,
		Registry:       documentRegistry,
		Documents:      documentService,
		Duplicates:     validationService,
		Interceptor:    interceptor,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	memberService, err := members.NewService(members.ServiceParams{
		Repo:        members.NewRepository(conn),
		Users:       userRepo,
		Documents:   documentRegistry,
		Interceptor: interceptor,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create member service", err)
		os.Exit(1)
	}

	contributionService, err := contributions.NewService(contributions.ServiceParams{
		Repo:        contributions.NewRepository(conn),
		Members:     members.NewRepository(conn),
		Interceptor: interceptor,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create contribution service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(conn)
	productService, err := products.NewService(products.ServiceParams{
		Repo:        productRepo,
		Interceptor: interceptor,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		DBClient:    dbClient,
		Repo:        inventory.NewRepository(conn),
		Products:    productRepo,
		Interceptor: interceptor,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Users:    userRepo,
		Sessions: sessionManager,
		Events:   pipeline,
		JWT:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			sessionManager,
			sessionRepo,
			authService,
			userService,
			memberService,
			contributionService,
			productService,
			inventoryService,
			validationService,
			auditRepo,
			sessionRepo,
			auditPurger,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
